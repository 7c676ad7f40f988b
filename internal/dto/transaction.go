package dto

import (
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LegRequest is one leg of a new transaction. Amount is signed: negative debits the
// account, positive credits it.
type LegRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"-100.00"`
	Currency    string          `json:"currency" binding:"required,iso4217"`
	Description string          `json:"description"`
}

// CreateTransactionRequest records a balanced set of legs.
type CreateTransactionRequest struct {
	Legs        []LegRequest `json:"legs" binding:"dive"`
	Description string       `json:"description"`
	Date        *time.Time   `json:"date"` // defaults to now
}

// TransferRequest moves an amount between two accounts.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountID" binding:"required"`
	ToAccountID   string          `json:"toAccountID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	Currency      string          `json:"currency" binding:"required,iso4217"`
	Description   string          `json:"description"`
	Date          *time.Time      `json:"date"`
}

// UpdateTransactionRequest edits the fields that do not affect leg sums.
type UpdateTransactionRequest struct {
	Date        *time.Time `json:"date"`
	Description *string    `json:"description"`
}

// LegAmountUpdate sets a new signed amount on an existing leg.
type LegAmountUpdate struct {
	LegID  string          `json:"legID" binding:"required"`
	Amount decimal.Decimal `json:"amount" swaggertype:"string"`
}

// UpdateLegAmountsRequest rewrites several legs of one transaction at once.
type UpdateLegAmountsRequest struct {
	Legs []LegAmountUpdate `json:"legs" binding:"required,min=1,dive"`
}

// ReverseTransactionRequest customises the reversing transaction.
type ReverseTransactionRequest struct {
	Description string     `json:"description"`
	Date        *time.Time `json:"date"` // defaults to the original transaction date
}

// LegResponse is a leg as returned by the API.
type LegResponse struct {
	LegID       string          `json:"legID"`
	AccountID   string          `json:"accountID"`
	Amount      domain.Money    `json:"amount"`
	Side        domain.LegSide  `json:"side"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// TransactionResponse is a transaction with its legs.
type TransactionResponse struct {
	TransactionID string        `json:"transactionID"`
	Sequence      int64         `json:"sequence"`
	Date          time.Time     `json:"date"`
	Description   string        `json:"description"`
	CreatedAt     time.Time     `json:"createdAt"`
	CreatedBy     string        `json:"createdBy,omitempty"`
	Legs          []LegResponse `json:"legs"`
}

// ToTransactionResponse converts a domain.Transaction to its API shape.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	legs := make([]LegResponse, len(txn.Legs))
	for i, l := range txn.Legs {
		legs[i] = LegResponse{
			LegID:       l.LegID,
			AccountID:   l.AccountID,
			Amount:      l.Amount,
			Side:        l.Side(),
			Debit:       l.Debit(),
			Credit:      l.Credit(),
			Description: l.Description,
		}
	}
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Sequence:      txn.Sequence,
		Date:          txn.Date,
		Description:   txn.Description,
		CreatedAt:     txn.CreatedAt,
		CreatedBy:     txn.CreatedBy,
		Legs:          legs,
	}
}
