package dto

import (
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// BalanceQuery holds the query parameters of balance endpoints.
type BalanceQuery struct {
	AsOf     *time.Time `form:"as_of" time_format:"2006-01-02T15:04:05Z07:00"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	Currency string     `form:"currency" binding:"omitempty,iso4217"`
	Raw      bool       `form:"raw"`
}

// Options converts the query into balance options.
func (q BalanceQuery) Options() domain.BalanceOptions {
	return domain.BalanceOptions{AsOf: q.AsOf, FromDate: q.From, Currency: domain.NormalizeCurrency(q.Currency), Raw: q.Raw}
}

// BalanceResponse is returned by every balance endpoint.
type BalanceResponse struct {
	AccountID string            `json:"accountID"`
	LegID     string            `json:"legID,omitempty"`
	AsOf      *time.Time        `json:"asOf,omitempty"`
	Raw       bool              `json:"raw"`
	Balance   domain.Balance    `json:"balance"`
	Formatted map[string]string `json:"formatted"`
}

// StatementRequest pages through an account's legs.
type StatementRequest struct {
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int        `form:"limit,default=50" binding:"min=0,max=500"`
	NextToken string     `form:"nextToken"`
}

// StatementLine is one leg with the account balance right after it.
type StatementLine struct {
	LegID         string         `json:"legID"`
	TransactionID string         `json:"transactionID"`
	Date          time.Time      `json:"date"`
	Sequence      int64          `json:"sequence"`
	Description   string         `json:"description"`
	Amount        domain.Money   `json:"amount"`
	Side          domain.LegSide `json:"side"`
	BalanceAfter  domain.Balance `json:"balanceAfter"`
}

// StatementResponse is one page of a statement.
type StatementResponse struct {
	AccountID      string          `json:"accountID"`
	OpeningBalance domain.Balance  `json:"openingBalance"`
	Lines          []StatementLine `json:"lines"`
	NextToken      *string         `json:"nextToken,omitempty"`
}

// ReconcileResponse reports the outcome of a running total reconciliation.
type ReconcileResponse struct {
	AccountID  string            `json:"accountID,omitempty"`
	CheckOnly  bool              `json:"checkOnly"`
	Mismatches []domain.Mismatch `json:"mismatches"`
}
