// Package dates computes the calendar windows ("today", "this month", "this
// week") that every aggregation is evaluated against.
package dates

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// Clock supplies the wall-clock time. Tests pin it with Fixed.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// Fixed is a Clock that always returns the same instant.
type Fixed time.Time

// Now implements Clock.
func (f Fixed) Now() time.Time { return time.Time(f) }

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("dates.Parse: %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) civil.Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Ptr returns a pointer to d.
func Ptr(d civil.Date) *civil.Date { return &d }

// Compare returns -1, 0 or +1 as a is before, equal to or after b.
func Compare(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Between reports whether from <= d <= to.
func Between(d, from, to civil.Date) bool {
	return !d.Before(from) && !d.After(to)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves d by n months and sets the day of month to day, clipped to
// the length of the target month.
func AddMonths(d civil.Date, n int, day int) civil.Date {
	total := d.Year*12 + int(d.Month-1) + n
	year, month := total/12, time.Month(total%12+1)
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}
