package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionReader defines read operations for transactions.
type TransactionReader interface {
	// FindTransactionByID returns the transaction without its legs.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListUnbalancedTransactions returns every stored transaction whose legs do not sum
	// to zero in some currency. Always empty on a healthy ledger.
	ListUnbalancedTransactions(ctx context.Context) ([]domain.TransactionImbalance, error)
}

// TransactionWriter defines write operations for transactions.
type TransactionWriter interface {
	// SaveTransaction persists the transaction and assigns txn.Sequence from a monotonic
	// sequence. Sequence values are never reused.
	SaveTransaction(ctx context.Context, txn *domain.Transaction) error

	UpdateTransactionDetails(ctx context.Context, transactionID string, date time.Time, description string, updatedBy string, now time.Time) error

	// DeleteTransaction removes a transaction that no longer has legs.
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// LegFilter selects legs. Zero fields do not filter.
type LegFilter struct {
	AccountIDs    []string
	TransactionID string
	Currency      string
	// FromDate and AsOf bound the transaction date, both inclusive.
	FromDate *time.Time
	AsOf     *time.Time
	// UpTo bounds the ledger position; UpToInclusive selects <= instead of <.
	UpTo          *domain.LegPosition
	UpToInclusive bool
	// UpToTransaction bounds the transaction position of each leg, ignoring leg ids, so every
	// leg of one transaction falls on the same side. UpToTransactionInclusive selects <=.
	UpToTransaction          *domain.TransactionPosition
	UpToTransactionInclusive bool
	// After selects legs strictly after a position, used for paging.
	After *domain.LegPosition
	Limit int
}

// LegReader defines read operations for legs.
type LegReader interface {
	FindLegByID(ctx context.Context, legID string) (*domain.Leg, error)

	// ListLegs returns matching legs in ledger position order.
	ListLegs(ctx context.Context, filter LegFilter) ([]domain.Leg, error)

	// SumLegs returns the raw signed sum per currency of matching legs. Limit is ignored.
	SumLegs(ctx context.Context, filter LegFilter) (map[string]decimal.Decimal, error)

	CountLegs(ctx context.Context, filter LegFilter) (int, error)
}

// LegWriter defines write operations for legs. Callers are responsible for the matching
// running total deltas inside the same unit of work.
type LegWriter interface {
	SaveLegs(ctx context.Context, legs []domain.Leg) error
	UpdateLegAmount(ctx context.Context, legID string, amount decimal.Decimal) error
	DeleteLeg(ctx context.Context, legID string) error
}
