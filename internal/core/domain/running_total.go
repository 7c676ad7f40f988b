package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunningTotal caches the raw signed sum of an account's legs in one currency.
// It is derived data and can always be rebuilt from legs.
type RunningTotal struct {
	AccountID string          `json:"accountID"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// LegDelta is a pending change to one running total.
type LegDelta struct {
	AccountID string
	Currency  string
	Amount    decimal.Decimal
}

// Mismatch reports a running total that disagrees with the sum of its legs.
type Mismatch struct {
	AccountID string          `json:"accountID"`
	Currency  string          `json:"currency"`
	Stored    decimal.Decimal `json:"stored"`
	Actual    decimal.Decimal `json:"actual"`
}
