// Package recurring advances recurring-rule schedules and decides which
// occurrences are due.
package recurring

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// ErrUnknownFrequency is returned for a frequency outside domain.Frequencies.
var ErrUnknownFrequency = errors.New("unknown frequency")

// PreviewCount is the number of dates shown before a rule is saved.
const PreviewCount = 5

// Advance moves base forward by one frequency step. Month-based steps pin the
// day of month to anchor's day (and yearly steps also anchor's month),
// clipped to the length of the target month, so short months do not shift
// the schedule permanently.
func Advance(base civil.Date, freq domain.Frequency, anchor civil.Date) (civil.Date, error) {
	switch freq {
	case domain.FrequencyDaily:
		return base.AddDays(1), nil
	case domain.FrequencyWeekly:
		return base.AddDays(7), nil
	case domain.FrequencyBiweekly:
		return base.AddDays(14), nil
	case domain.FrequencyMonthly:
		return dates.AddMonths(base, 1, anchor.Day), nil
	case domain.FrequencyQuarterly:
		return dates.AddMonths(base, 3, anchor.Day), nil
	case domain.FrequencyYearly:
		next := civil.Date{Year: base.Year + 1, Month: anchor.Month, Day: anchor.Day}
		if last := dates.DaysIn(next.Year, next.Month); next.Day > last {
			next.Day = last
		}
		return next, nil
	}
	return civil.Date{}, fmt.Errorf("recurring.Advance: %w: %q", ErrUnknownFrequency, freq)
}

// NextOccurrence returns base when it is still in the future relative to
// today, otherwise base advanced by one step.
func NextOccurrence(base civil.Date, freq domain.Frequency, anchor, today civil.Date) (civil.Date, error) {
	if base.After(today) {
		if !freq.Valid() {
			return civil.Date{}, fmt.Errorf("recurring.NextOccurrence: %w: %q", ErrUnknownFrequency, freq)
		}
		return base, nil
	}
	return Advance(base, freq, anchor)
}

// InitialOccurrence is the first nextOccurrence of a newly created rule.
func InitialOccurrence(rule domain.RecurringRule, today civil.Date) (civil.Date, error) {
	return NextOccurrence(rule.StartDate, rule.Frequency, rule.StartDate, today)
}

// Preview lists the first n occurrence dates of a rule, beginning with its
// start date. Dates past the rule's end date are omitted.
func Preview(rule domain.RecurringRule, n int) ([]civil.Date, error) {
	if n <= 0 {
		n = PreviewCount
	}
	out := make([]civil.Date, 0, n)
	current := rule.StartDate
	for len(out) < n {
		if rule.EndDate != nil && current.After(*rule.EndDate) {
			break
		}
		out = append(out, current)
		next, err := Advance(current, rule.Frequency, rule.StartDate)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return out, nil
}
