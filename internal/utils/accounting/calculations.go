package accounting

import (
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferDirection decides which side of a two-leg transfer is credited.
// The source leg gets +amount*direction and the destination leg -amount*direction.
//
// The direction flips when the destination has a positive sign (trading accounts excepted)
// and when a liability pays an expense.
func TransferDirection(from, to domain.AccountType) int {
	if to.Sign() == 1 && to != domain.Trading {
		return -1
	}
	if from == domain.Liability && to == domain.Expense {
		return -1
	}
	return 1
}

// SignedBalance converts a raw leg sum into the user-facing balance of an account type.
func SignedBalance(raw domain.Balance, accountType domain.AccountType) domain.Balance {
	if accountType.Sign() == 1 {
		return raw
	}
	return raw.Neg()
}

// SumByCurrency sums leg amounts per currency.
func SumByCurrency(legs []domain.Leg) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, leg := range legs {
		sums[leg.Amount.Currency] = sums[leg.Amount.Currency].Add(leg.Amount.Amount)
	}
	return sums
}

// Residue returns the currencies whose sum is not zero.
func Residue(sums map[string]decimal.Decimal) map[string]decimal.Decimal {
	var out map[string]decimal.Decimal
	for currency, sum := range sums {
		if sum.IsZero() {
			continue
		}
		if out == nil {
			out = make(map[string]decimal.Decimal)
		}
		out[currency] = sum
	}
	return out
}

// ValidateLegs checks the structural rules that need no account data: at least two legs,
// no zero amounts, and a zero sum in every currency.
func ValidateLegs(transactionID string, legs []domain.Leg) error {
	if len(legs) < 2 {
		return fmt.Errorf("%w: got %d", apperrors.ErrTooFewLegs, len(legs))
	}
	for i, leg := range legs {
		if leg.Amount.IsZero() {
			return fmt.Errorf("%w: leg %d on account %s", apperrors.ErrZeroAmount, i, leg.AccountID)
		}
	}
	return ValidateZeroSum(transactionID, legs)
}

// ValidateZeroSum returns an UnbalancedTransactionError if any currency does not sum to zero.
func ValidateZeroSum(transactionID string, legs []domain.Leg) error {
	if residue := Residue(SumByCurrency(legs)); residue != nil {
		return &apperrors.UnbalancedTransactionError{TransactionID: transactionID, Residue: residue}
	}
	return nil
}

// Deltas converts legs into running total deltas, multiplied by factor (1 to add the legs,
// -1 to remove them).
func Deltas(legs []domain.Leg, factor int64) []domain.LegDelta {
	out := make([]domain.LegDelta, 0, len(legs))
	f := decimal.NewFromInt(factor)
	for _, leg := range legs {
		out = append(out, domain.LegDelta{
			AccountID: leg.AccountID,
			Currency:  leg.Amount.Currency,
			Amount:    leg.Amount.Amount.Mul(f),
		})
	}
	return out
}
