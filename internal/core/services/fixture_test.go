package services_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/core/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/SscSPs/ledger_engine/internal/platform/config"
	"github.com/SscSPs/ledger_engine/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testActor = "tester"

// ledgerSuite wires every service against a fresh in-memory store.
type ledgerSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   *portssvc.ServiceContainer
}

func (s *ledgerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = middleware.WithUserID(middleware.WithLogger(context.Background(), logger), testActor)
	s.store = memory.New()
	s.svc = services.NewServiceContainer(&config.Config{DefaultCurrency: "EUR"}, s.store)
	s.Require().NoError(s.svc.Currency.EnsureCurrencies(s.ctx, []string{"EUR", "USD", "GBP", "JPY"}))
}

func (s *ledgerSuite) root(name, code string, t domain.AccountType, currencies ...string) *domain.Account {
	acc, err := s.svc.AccountTree.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Name:        name,
		Code:        code,
		AccountType: t,
		Currencies:  currencies,
	})
	s.Require().NoError(err)
	return acc
}

func (s *ledgerSuite) child(parent *domain.Account, name, code string, currencies ...string) *domain.Account {
	acc, err := s.svc.AccountTree.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Name:            name,
		Code:            code,
		ParentAccountID: parent.AccountID,
		Currencies:      currencies,
	})
	s.Require().NoError(err)
	return acc
}

func (s *ledgerSuite) transfer(from, to *domain.Account, amount, currency string) *domain.Transaction {
	txn, err := s.svc.Ledger.Transfer(s.ctx, dto.TransferRequest{
		FromAccountID: from.AccountID,
		ToAccountID:   to.AccountID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      currency,
	})
	s.Require().NoError(err)
	return txn
}

func (s *ledgerSuite) balance(acc *domain.Account) domain.Balance {
	b, err := s.svc.Balance.Balance(s.ctx, acc.AccountID, domain.BalanceOptions{})
	s.Require().NoError(err)
	return b
}

// requireAmount asserts a single currency entry of b.
func (s *ledgerSuite) requireAmount(b domain.Balance, currency, want string) {
	s.T().Helper()
	s.Require().True(b.Has(currency), "balance %s has no %s entry", b, currency)
	s.True(decimal.RequireFromString(want).Equal(b.Get(currency)), "want %s %s, got %s", want, currency, b)
}

func leg(acc *domain.Account, amount, currency string) dto.LegRequest {
	return dto.LegRequest{AccountID: acc.AccountID, Amount: decimal.RequireFromString(amount), Currency: currency}
}
