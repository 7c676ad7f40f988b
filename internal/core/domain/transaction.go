package domain

import (
	"time"
)

// Transaction groups two or more legs whose amounts sum to zero per currency.
// Sequence is assigned once by the store when the transaction is first saved and is never
// reused; together with Date it gives the chronological order of transactions.
type Transaction struct {
	TransactionID string    `json:"transactionID"`
	Sequence      int64     `json:"sequence"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	AuditFields
	Legs []Leg `json:"legs,omitempty"`
}

// TransactionImbalance is a stored transaction whose legs do not sum to zero.
type TransactionImbalance struct {
	TransactionID string  `json:"transactionID"`
	Residue       Balance `json:"residue"`
}
