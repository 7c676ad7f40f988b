package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// BalanceSvcFacade computes balances from legs. Results are sign adjusted so that an
// increase is positive, unless opts.Raw is set.
type BalanceSvcFacade interface {
	// Balance is the sum of SimpleBalance over the account and all its descendants.
	Balance(ctx context.Context, accountID string, opts domain.BalanceOptions) (domain.Balance, error)

	// SimpleBalance sums only the account's own legs. Every currency of the account is
	// present in the result, at zero if it has no legs.
	SimpleBalance(ctx context.Context, accountID string, opts domain.BalanceOptions) (domain.Balance, error)

	// AccountBalanceAfter is the balance of the leg's account over legs up to and including it.
	AccountBalanceAfter(ctx context.Context, legID string) (domain.Balance, error)

	// AccountBalanceBefore is the balance of the leg's account over legs strictly before it.
	AccountBalanceBefore(ctx context.Context, legID string) (domain.Balance, error)

	// Statement lists an account's legs chronologically with the balance after each one.
	Statement(ctx context.Context, accountID string, req dto.StatementRequest) (*dto.StatementResponse, error)
}
