package repositories

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves an account; apperrors.ErrNotFound when absent.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByFullCode retrieves the account owning a full code.
	FindAccountByFullCode(ctx context.Context, fullCode string) (*domain.Account, error)

	// ListChildAccounts lists direct children ordered by name.
	ListChildAccounts(ctx context.Context, parentAccountID string) ([]domain.Account, error)

	// ListRootAccounts lists accounts without a parent ordered by name.
	ListRootAccounts(ctx context.Context) ([]domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by full code then name.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)

	// ListAccountsAfter retrieves up to limit accounts whose id sorts after afterAccountID,
	// ordered by id. An empty afterAccountID starts from the first account.
	ListAccountsAfter(ctx context.Context, afterAccountID string, limit int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount overwrites every mutable column, including the derived type and full code.
	UpdateAccount(ctx context.Context, account domain.Account) error

	DeleteAccount(ctx context.Context, accountID string) error
}
