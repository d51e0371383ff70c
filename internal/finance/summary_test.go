package finance

import (
	"testing"

	"github.com/dvloznov/pocket-pulse/internal/domain"
)

func TestSummarize(t *testing.T) {
	s := Summarize(filterFixture())
	if s.Count != 10 {
		t.Errorf("Count = %d, want 10", s.Count)
	}
	assertDecimal(t, "Income", s.Income, "3050")
	assertDecimal(t, "Expenses", s.Expenses, "364.75")
	assertDecimal(t, "Net", s.Net(), "2685.25")

	empty := Summarize([]domain.Transaction{})
	if empty.Count != 0 || !empty.Income.IsZero() {
		t.Errorf("unexpected empty summary %+v", empty)
	}
}
