package finance

import (
	"reflect"
	"testing"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

func filterFixture() []domain.Transaction {
	txs := []domain.Transaction{
		expense("coffee", "4.50", "2024-06-01", "Dining"),
		expense("groceries", "20", "2024-06-02", "Groceries"),
		income("salary", "3000", "2024-06-03"),
		expense("dinner", "55.25", "2024-06-04", "Dining"),
		expense("rent", "100", "2024-06-05", "Rent"),
		expense("tv", "100.01", "2024-06-06", "Shopping"),
		tx("loan", domain.TypeLoan, "50", "2024-06-07", "acc2"),
		expense("market", "35", "2024-06-08", "Groceries"),
		tx("repay", domain.TypeLoanPayment, "30", "2024-06-09", "acc1"),
		expense("snack", "19.99", "2024-06-10", "Dining"),
	}
	txs[0].Description = "Morning Coffee"
	return txs
}

func ids(txs []domain.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func TestFilterTransactions(t *testing.T) {
	from, to := dates.MustParse("2024-06-02"), dates.MustParse("2024-06-05")

	tests := []struct {
		name    string
		search  string
		filters Filters
		want    []string
	}{
		{
			name: "no constraints",
			want: []string{"coffee", "groceries", "salary", "dinner", "rent", "tv", "loan", "market", "repay", "snack"},
		},
		{
			name: "expense amount range inclusive",
			filters: Filters{
				Type:      domain.TypeExpense,
				AmountMin: decimal.NewNullDecimal(dec("20")),
				AmountMax: decimal.NewNullDecimal(dec("100")),
			},
			want: []string{"groceries", "dinner", "rent", "market"},
		},
		{
			name:   "search is case-insensitive on description",
			search: "COFFEE",
			want:   []string{"coffee"},
		},
		{
			name:   "search matches category",
			search: "dining",
			want:   []string{"coffee", "dinner", "snack"},
		},
		{
			name:   "search matches income source",
			search: "salary",
			want:   []string{"salary"},
		},
		{
			name:   "search matches amount",
			search: "55.2",
			want:   []string{"dinner"},
		},
		{
			name:   "leading space is part of the term",
			search: " coffee",
			want:   []string{"coffee"},
		},
		{
			name:   "trailing space is part of the term",
			search: "coffee ",
			want:   []string{},
		},
		{
			name:   "blank term matches text containing a space",
			search: " ",
			want:   []string{"coffee", "salary"},
		},
		{
			name:    "date range inclusive",
			filters: Filters{DateFrom: &from, DateTo: &to},
			want:    []string{"groceries", "salary", "dinner", "rent"},
		},
		{
			name:    "account",
			filters: Filters{Account: "acc2"},
			want:    []string{"loan"},
		},
		{
			name:    "category and search combine",
			search:  "market",
			filters: Filters{Category: "Groceries"},
			want:    []string{"market"},
		},
		{
			name:    "nothing matches",
			filters: Filters{Category: "Travel"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterTransactions(filterFixture(), tt.search, tt.filters))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterTransactions_Idempotent(t *testing.T) {
	f := Filters{Type: domain.TypeExpense, AmountMin: decimal.NewNullDecimal(dec("5"))}
	once := FilterTransactions(filterFixture(), "d", f)
	twice := FilterTransactions(once, "d", f)
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Errorf("second pass changed result: %v vs %v", ids(once), ids(twice))
	}
}

func TestFilterTransactions_DoesNotMutate(t *testing.T) {
	txs := filterFixture()
	before := ids(txs)
	FilterTransactions(txs, "", Filters{Type: domain.TypeIncome})
	if !reflect.DeepEqual(before, ids(txs)) {
		t.Error("input was modified")
	}
}

func TestFilters_Active(t *testing.T) {
	if (Filters{}).Active() {
		t.Error("zero Filters should be inactive")
	}
	if !(Filters{AmountMax: decimal.NewNullDecimal(dec("1"))}).Active() {
		t.Error("AmountMax should activate filters")
	}
}
