package repositories

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RunningTotalReader defines read operations for cached running totals.
type RunningTotalReader interface {
	// ListRunningTotals returns the stored totals of one account ordered by currency.
	ListRunningTotals(ctx context.Context, accountID string) ([]domain.RunningTotal, error)
}

// RunningTotalWriter defines the locked read-modify-write cycle on running totals.
type RunningTotalWriter interface {
	// LockRunningTotal takes an exclusive lock on the (account, currency) row, creating it
	// at zero when absent, and returns its current value. The lock is held until the unit
	// of work ends. A lock that cannot be obtained yields apperrors.ErrConcurrentModification.
	LockRunningTotal(ctx context.Context, accountID, currency string) (domain.RunningTotal, error)

	// AddToRunningTotal applies a delta to a row previously locked in this unit of work.
	AddToRunningTotal(ctx context.Context, accountID, currency string, delta decimal.Decimal) error

	// SetRunningTotal overwrites a row previously locked in this unit of work.
	SetRunningTotal(ctx context.Context, accountID, currency string, balance decimal.Decimal) error
}
