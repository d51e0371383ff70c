package finance

import (
	"testing"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

func TestCategoryBreakdown(t *testing.T) {
	txs := []domain.Transaction{
		expense("e1", "10.004", "2024-06-01", "Groceries"),
		income("i1", "500", "2024-06-01"),
		expense("e2", "5", "2024-06-02", "Dining"),
		expense("e3", "2.50", "2024-05-02", "Groceries"),
		tx("lp", domain.TypeLoanPayment, "100", "2024-06-02", "acc1"),
	}

	got := CategoryBreakdown(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %+v", got)
	}
	if got[0].Name != "Groceries" || got[1].Name != "Dining" {
		t.Errorf("expected first-encounter order, got %s, %s", got[0].Name, got[1].Name)
	}
	assertDecimal(t, "Groceries", got[0].Value, "12.50")
	assertDecimal(t, "Dining", got[1].Value, "5")

	if empty := CategoryBreakdown(nil); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty slice, got %#v", empty)
	}
}

func TestDailyCashFlow(t *testing.T) {
	txs := []domain.Transaction{
		income("i1", "100", "2024-06-01"),
		expense("e1", "40", "2024-06-01", "Dining"),
		expense("e2", "15", "2024-06-30", "Dining"),
		expense("other-month", "999", "2024-07-01", "Dining"),
		tx("loan", domain.TypeLoan, "999", "2024-06-05", "acc1"),
	}

	got := DailyCashFlow(txs, testWindow)
	if len(got) != 30 {
		t.Fatalf("expected 30 days, got %d", len(got))
	}
	if got[0].Day != "1" || got[0].Date.String() != "2024-06-01" {
		t.Errorf("first entry = %+v", got[0])
	}
	assertDecimal(t, "day1.Income", got[0].Income, "100")
	assertDecimal(t, "day1.Expense", got[0].Expense, "40")
	assertDecimal(t, "day1.Net", got[0].Net, "60")
	assertDecimal(t, "day5.Income", got[4].Income, "0")
	assertDecimal(t, "day30.Net", got[29].Net, "-15")
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Fatalf("series not ascending at %d", i)
		}
	}
}

func TestDailyCashFlow_Dense(t *testing.T) {
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 31},
	}

	for _, tt := range tests {
		t.Run(tt.now.Format("2006-01"), func(t *testing.T) {
			got := DailyCashFlow(nil, dates.WindowAt(tt.now))
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}
