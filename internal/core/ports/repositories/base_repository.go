package repositories

import (
	"context"
)

// TransactionManager runs fn as one atomic unit of work. Everything fn writes through the
// given Repository commits together or not at all; a non-nil error from fn rolls back.
// Deferred integrity checks (per-currency zero sum of every touched transaction) run
// at commit.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Reader groups every read operation. Reads outside WithTx only observe committed state.
type Reader interface {
	AccountReader
	CurrencyReader
	TransactionReader
	LegReader
	RunningTotalReader
}

// Writer groups every write operation. Writers are only handed out inside WithTx.
type Writer interface {
	AccountWriter
	CurrencyWriter
	TransactionWriter
	LegWriter
	RunningTotalWriter
}

// Repository is the view of the store available inside an atomic unit.
type Repository interface {
	Reader
	Writer
}

// Store is implemented by every storage adapter.
type Store interface {
	Reader
	TransactionManager
	Close() error
}
