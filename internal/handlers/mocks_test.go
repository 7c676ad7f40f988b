package handlers_test

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock CurrencyService ---
type MockCurrencyService struct {
	mock.Mock
}

func (m *MockCurrencyService) GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest) (*domain.Currency, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) EnsureCurrencies(ctx context.Context, codes []string) error {
	return m.Called(ctx, codes).Error(0)
}

var _ portssvc.CurrencySvcFacade = (*MockCurrencyService)(nil)

// --- Mock AccountTreeService ---
type MockAccountTreeService struct {
	mock.Mock
}

func (m *MockAccountTreeService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountTreeService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountTreeService) AccountTree(ctx context.Context, accountID string, opts domain.BalanceOptions) (*domain.AccountNode, error) {
	args := m.Called(ctx, accountID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountNode), args.Error(1)
}

func (m *MockAccountTreeService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountTreeService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountTreeService) DeleteAccount(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *MockAccountTreeService) ValidateAccountingEquation(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ portssvc.AccountTreeSvcFacade = (*MockAccountTreeService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) Balance(ctx context.Context, accountID string, opts domain.BalanceOptions) (domain.Balance, error) {
	args := m.Called(ctx, accountID, opts)
	return args.Get(0).(domain.Balance), args.Error(1)
}

func (m *MockBalanceService) SimpleBalance(ctx context.Context, accountID string, opts domain.BalanceOptions) (domain.Balance, error) {
	args := m.Called(ctx, accountID, opts)
	return args.Get(0).(domain.Balance), args.Error(1)
}

func (m *MockBalanceService) AccountBalanceAfter(ctx context.Context, legID string) (domain.Balance, error) {
	args := m.Called(ctx, legID)
	return args.Get(0).(domain.Balance), args.Error(1)
}

func (m *MockBalanceService) AccountBalanceBefore(ctx context.Context, legID string) (domain.Balance, error) {
	args := m.Called(ctx, legID)
	return args.Get(0).(domain.Balance), args.Error(1)
}

func (m *MockBalanceService) Statement(ctx context.Context, accountID string, req dto.StatementRequest) (*dto.StatementResponse, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StatementResponse), args.Error(1)
}

var _ portssvc.BalanceSvcFacade = (*MockBalanceService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) txn(args mock.Arguments) (*domain.Transaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, transactionID))
}

func (m *MockLedgerService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, req))
}

func (m *MockLedgerService) Transfer(ctx context.Context, req dto.TransferRequest) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, req))
}

func (m *MockLedgerService) UpdateTransactionDetails(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, transactionID, req))
}

func (m *MockLedgerService) UpdateLegAmounts(ctx context.Context, transactionID string, req dto.UpdateLegAmountsRequest) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, transactionID, req))
}

func (m *MockLedgerService) DeleteTransaction(ctx context.Context, transactionID string) error {
	return m.Called(ctx, transactionID).Error(0)
}

func (m *MockLedgerService) ReverseTransaction(ctx context.Context, transactionID string, req dto.ReverseTransactionRequest) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, transactionID, req))
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock RunningTotalService ---
type MockRunningTotalService struct {
	mock.Mock
}

func (m *MockRunningTotalService) ApplyDeltas(ctx context.Context, repo portsrepo.Repository, deltas []domain.LegDelta) error {
	return m.Called(ctx, repo, deltas).Error(0)
}

func (m *MockRunningTotalService) UpdateRunningTotals(ctx context.Context, accountID string, checkOnly bool) ([]domain.Mismatch, error) {
	args := m.Called(ctx, accountID, checkOnly)
	return args.Get(0).([]domain.Mismatch), args.Error(1)
}

func (m *MockRunningTotalService) UpdateAllRunningTotals(ctx context.Context, checkOnly bool) ([]domain.Mismatch, error) {
	args := m.Called(ctx, checkOnly)
	return args.Get(0).([]domain.Mismatch), args.Error(1)
}

func (m *MockRunningTotalService) RunningTotals(ctx context.Context, accountID string, raw bool) (domain.Balance, error) {
	args := m.Called(ctx, accountID, raw)
	return args.Get(0).(domain.Balance), args.Error(1)
}

var _ portssvc.RunningTotalSvcFacade = (*MockRunningTotalService)(nil)

// --- Mock AuditService ---
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Audit(ctx context.Context) (*domain.AuditReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditReport), args.Error(1)
}

var _ portssvc.AuditSvcFacade = (*MockAuditService)(nil)
