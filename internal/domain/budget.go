package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending limit for one expense category. There is at
// most one budget per category per user.
type Budget struct {
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	UpdatedAt time.Time       `json:"updated_at"`
}
