package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table.
type Transaction struct {
	TransactionID string    `db:"transaction_id"`
	Sequence      int64     `db:"sequence"`
	Date          time.Time `db:"date"`
	Description   string    `db:"description"`
	AuditFields
}

// Leg is a row of the legs table joined with its transaction's date and sequence.
type Leg struct {
	LegID         string          `db:"leg_id"`
	TransactionID string          `db:"transaction_id"`
	AccountID     string          `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"` // signed: negative debits, positive credits
	CurrencyCode  string          `db:"currency_code"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
	Date          time.Time       `db:"date"`
	Sequence      int64           `db:"sequence"`
}

// RunningTotal is a row of the running_totals table.
type RunningTotal struct {
	AccountID    string          `db:"account_id"`
	CurrencyCode string          `db:"currency_code"`
	Balance      decimal.Decimal `db:"balance"`
	UpdatedAt    time.Time       `db:"updated_at"`
}
