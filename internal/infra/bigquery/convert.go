package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// numericScale is the scale of the BigQuery NUMERIC type.
const numericScale = 9

func ratOf(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func decimalOf(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, numericScale)
}

func nullDate(d *civil.Date) bigquery.NullDate {
	if d == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: *d, Valid: true}
}

func datePtr(n bigquery.NullDate) *civil.Date {
	if !n.Valid {
		return nil
	}
	d := n.Date
	return &d
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
