// Package validate checks user-submitted forms and converts them into domain
// values. Forms carry raw strings so every field can be reported at once.
package validate

import (
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Errors maps a form field to its message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when no field failed.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Required reports whether s has non-space content.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Amount parses a strictly positive decimal.
func Amount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// Number parses any decimal, sign included.
func Number(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Date parses a YYYY-MM-DD calendar date.
func Date(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if !dateFormat.MatchString(s) {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}
