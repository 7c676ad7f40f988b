package memory

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// Reads outside a unit of work go to the latest committed state.

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.view().FindAccountByID(ctx, accountID)
}

func (s *Store) FindAccountByFullCode(ctx context.Context, fullCode string) (*domain.Account, error) {
	return s.view().FindAccountByFullCode(ctx, fullCode)
}

func (s *Store) ListChildAccounts(ctx context.Context, parentAccountID string) ([]domain.Account, error) {
	return s.view().ListChildAccounts(ctx, parentAccountID)
}

func (s *Store) ListRootAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.view().ListRootAccounts(ctx)
}

func (s *Store) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	return s.view().ListAccounts(ctx, limit, offset)
}

func (s *Store) ListAccountsAfter(ctx context.Context, afterAccountID string, limit int) ([]domain.Account, error) {
	return s.view().ListAccountsAfter(ctx, afterAccountID, limit)
}

func (s *Store) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	return s.view().FindCurrencyByCode(ctx, currencyCode)
}

func (s *Store) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	return s.view().ListCurrencies(ctx)
}

func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.view().FindTransactionByID(ctx, transactionID)
}

func (s *Store) ListUnbalancedTransactions(ctx context.Context) ([]domain.TransactionImbalance, error) {
	return s.view().ListUnbalancedTransactions(ctx)
}

func (s *Store) FindLegByID(ctx context.Context, legID string) (*domain.Leg, error) {
	return s.view().FindLegByID(ctx, legID)
}

func (s *Store) ListLegs(ctx context.Context, filter portsrepo.LegFilter) ([]domain.Leg, error) {
	return s.view().ListLegs(ctx, filter)
}

func (s *Store) SumLegs(ctx context.Context, filter portsrepo.LegFilter) (map[string]decimal.Decimal, error) {
	return s.view().SumLegs(ctx, filter)
}

func (s *Store) CountLegs(ctx context.Context, filter portsrepo.LegFilter) (int, error) {
	return s.view().CountLegs(ctx, filter)
}

func (s *Store) ListRunningTotals(ctx context.Context, accountID string) ([]domain.RunningTotal, error) {
	return s.view().ListRunningTotals(ctx, accountID)
}
