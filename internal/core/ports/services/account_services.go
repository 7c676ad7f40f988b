package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// AccountReaderSvc defines read operations on the chart of accounts.
type AccountReaderSvc interface {
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error)

	// AccountTree returns the account with its descendants and rolled up balances.
	AccountTree(ctx context.Context, accountID string, opts domain.BalanceOptions) (*domain.AccountNode, error)
}

// AccountWriterSvc defines the tree maintenance operations. Type and full code of every
// affected account are recomputed inside the same unit of work as the change.
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error)

	// DeleteAccount refuses accounts that have legs or children.
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountTreeSvcFacade combines all account tree operations.
type AccountTreeSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc

	// ValidateAccountingEquation sums the raw balance of every root account and returns an
	// *apperrors.AccountingEquationViolationError if the total is not zero.
	ValidateAccountingEquation(ctx context.Context) error
}
