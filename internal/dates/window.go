package dates

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// TrailingDays is the window used for the average daily expense.
const TrailingDays = 30

// Window is the set of calendar boundaries derived from one instant. All
// membership tests in a single aggregation share one Window so "today" cannot
// move mid-computation.
type Window struct {
	Now       time.Time
	Today     civil.Date
	WeekStart civil.Date // most recent Monday, inclusive
}

// WindowAt derives the window for now, in now's location.
func WindowAt(now time.Time) Window {
	today := civil.DateOf(now)
	// Monday-based week: Sunday belongs to the week that started six days earlier.
	offset := (int(now.Weekday()) + 6) % 7
	return Window{
		Now:       now,
		Today:     today,
		WeekStart: today.AddDays(-offset),
	}
}

// From derives the window for the clock's current time.
func From(c Clock) Window {
	return WindowAt(c.Now())
}

// Month returns the current month as YYYY-MM.
func (w Window) Month() string {
	return fmt.Sprintf("%04d-%02d", w.Today.Year, int(w.Today.Month))
}

// MonthStart returns the first day of the current month.
func (w Window) MonthStart() civil.Date {
	return civil.Date{Year: w.Today.Year, Month: w.Today.Month, Day: 1}
}

// DaysInMonth returns the length of the current month.
func (w Window) DaysInMonth() int {
	return DaysIn(w.Today.Year, w.Today.Month)
}

// DaysAgo returns the date n days before today.
func (w Window) DaysAgo(n int) civil.Date {
	return w.Today.AddDays(-n)
}

// IsToday reports whether d is today.
func (w Window) IsToday(d civil.Date) bool {
	return d == w.Today
}

// InCurrentMonth reports whether d falls in the current calendar month.
func (w Window) InCurrentMonth(d civil.Date) bool {
	return d.Year == w.Today.Year && d.Month == w.Today.Month
}

// InCurrentWeek reports whether d is between the last Monday and today.
func (w Window) InCurrentWeek(d civil.Date) bool {
	return Between(d, w.WeekStart, w.Today)
}

// InTrailing reports whether d is within the n days ending today, today included.
func (w Window) InTrailing(d civil.Date, n int) bool {
	return Between(d, w.DaysAgo(n-1), w.Today)
}
