package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegSide is the conventional direction of a leg.
type LegSide string

const (
	Debit  LegSide = "DEBIT"
	Credit LegSide = "CREDIT"
)

// Leg is one side of a transaction. Amount is signed: negative is a debit, positive a credit.
// Date and Sequence are copied from the owning transaction when a leg is read.
type Leg struct {
	LegID         string    `json:"legID"`
	TransactionID string    `json:"transactionID"`
	AccountID     string    `json:"accountID"`
	Amount        Money     `json:"amount"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Sequence      int64     `json:"sequence"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Side returns Debit for negative amounts and Credit otherwise.
func (l Leg) Side() LegSide {
	if l.Amount.Amount.IsNegative() {
		return Debit
	}
	return Credit
}

// Debit returns the debited amount, zero for credits.
func (l Leg) Debit() decimal.Decimal {
	if l.Amount.Amount.IsNegative() {
		return l.Amount.Amount.Neg()
	}
	return decimal.Zero
}

// Credit returns the credited amount, zero for debits.
func (l Leg) Credit() decimal.Decimal {
	if l.Amount.Amount.IsPositive() {
		return l.Amount.Amount
	}
	return decimal.Zero
}

// Position returns the leg's place in the ledger's chronological order.
func (l Leg) Position() LegPosition {
	return LegPosition{Date: l.Date, Sequence: l.Sequence, LegID: l.LegID}
}

// TransactionPosition orders transactions by date, then sequence.
type TransactionPosition struct {
	Date     time.Time
	Sequence int64
}

// Compare returns -1, 0 or 1.
func (p TransactionPosition) Compare(o TransactionPosition) int {
	switch {
	case p.Date.Before(o.Date):
		return -1
	case p.Date.After(o.Date):
		return 1
	case p.Sequence < o.Sequence:
		return -1
	case p.Sequence > o.Sequence:
		return 1
	}
	return 0
}

// LegPosition orders legs by transaction position, then leg id.
// The leg id only breaks ties between legs of the same transaction.
type LegPosition struct {
	Date     time.Time
	Sequence int64
	LegID    string
}

// Transaction drops the leg id.
func (p LegPosition) Transaction() TransactionPosition {
	return TransactionPosition{Date: p.Date, Sequence: p.Sequence}
}

// Compare returns -1, 0 or 1.
func (p LegPosition) Compare(o LegPosition) int {
	if c := p.Transaction().Compare(o.Transaction()); c != 0 {
		return c
	}
	switch {
	case p.LegID < o.LegID:
		return -1
	case p.LegID > o.LegID:
		return 1
	}
	return 0
}

func (p LegPosition) Less(o LegPosition) bool {
	return p.Compare(o) < 0
}
