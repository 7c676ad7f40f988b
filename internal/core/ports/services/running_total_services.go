package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
)

// RunningTotalMaintainer applies leg deltas to running totals inside a caller's unit of work.
type RunningTotalMaintainer interface {
	// ApplyDeltas locks every affected (account, currency) row in a fixed order and adds
	// the net delta to it.
	ApplyDeltas(ctx context.Context, repo portsrepo.Repository, deltas []domain.LegDelta) error
}

// RunningTotalSvcFacade exposes running total maintenance and reconciliation.
type RunningTotalSvcFacade interface {
	RunningTotalMaintainer

	// UpdateRunningTotals recomputes one account's totals from its legs and returns the
	// mismatches. Stored values are corrected unless checkOnly is set.
	UpdateRunningTotals(ctx context.Context, accountID string, checkOnly bool) ([]domain.Mismatch, error)

	// UpdateAllRunningTotals runs UpdateRunningTotals for every account, one unit of work
	// per account.
	UpdateAllRunningTotals(ctx context.Context, checkOnly bool) ([]domain.Mismatch, error)

	// RunningTotals returns the cached balance of one account.
	RunningTotals(ctx context.Context, accountID string, raw bool) (domain.Balance, error)
}
