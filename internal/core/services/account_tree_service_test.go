package services_test

import (
	"sync"
	"testing"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountTreeServiceTestSuite struct {
	ledgerSuite
}

func TestAccountTreeService(t *testing.T) {
	suite.Run(t, new(AccountTreeServiceTestSuite))
}

func strPtr(s string) *string { return &s }

func (suite *AccountTreeServiceTestSuite) TestCreateRoot_DefaultsCurrency() {
	acc := suite.root("Assets", "1", domain.Asset)

	suite.Equal(domain.Asset, acc.AccountType)
	suite.Equal([]string{"EUR"}, acc.Currencies)
	suite.Equal("1", acc.FullCode)
	suite.Equal(testActor, acc.CreatedBy)
	suite.True(acc.IsRoot())
}

func (suite *AccountTreeServiceTestSuite) TestCreateRoot_RequiresType() {
	_, err := suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{Name: "Nowhere"})
	suite.ErrorIs(err, apperrors.ErrInvalidAccountType)
}

func (suite *AccountTreeServiceTestSuite) TestCreateChild_InheritsTypeAndCurrencies() {
	assets := suite.root("Assets", "1", domain.Asset, "EUR", "USD")
	bank := suite.child(assets, "Bank", "10")
	cash := suite.child(bank, "Cash", "1", "usd")

	suite.Equal(domain.Asset, bank.AccountType)
	suite.Equal([]string{"EUR", "USD"}, bank.Currencies)
	suite.Equal("110", bank.FullCode)
	suite.Equal([]string{"USD"}, cash.Currencies)
	suite.Equal("1101", cash.FullCode)
}

func (suite *AccountTreeServiceTestSuite) TestCreateChild_RejectsExplicitType() {
	assets := suite.root("Assets", "1", domain.Asset)
	_, err := suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "Bank",
		ParentAccountID: assets.AccountID,
		AccountType:     domain.Liability,
	})
	suite.ErrorIs(err, apperrors.ErrInvalidAccountType)
}

func (suite *AccountTreeServiceTestSuite) TestCreate_UnknownParent() {
	_, err := suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{Name: "Orphan", ParentAccountID: "missing"})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountTreeServiceTestSuite) TestCreate_UnsupportedCurrency() {
	_, err := suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:        "Assets",
		AccountType: domain.Asset,
		Currencies:  []string{"XXX"},
	})
	suite.ErrorIs(err, apperrors.ErrUnsupportedCurrency)
}

func (suite *AccountTreeServiceTestSuite) TestFullCode_EmptyWhenAnyCodeMissing() {
	assets := suite.root("Assets", "", domain.Asset)
	bank := suite.child(assets, "Bank", "10")
	suite.Empty(bank.FullCode)

	_, err := suite.svc.AccountTree.UpdateAccount(suite.ctx, assets.AccountID, dto.UpdateAccountRequest{Code: strPtr("1")})
	suite.Require().NoError(err)

	reloaded, err := suite.svc.AccountTree.GetAccountByID(suite.ctx, bank.AccountID)
	suite.Require().NoError(err)
	suite.Equal("110", reloaded.FullCode)
}

func (suite *AccountTreeServiceTestSuite) TestUpdateCode_CascadesToDescendants() {
	assets := suite.root("Assets", "1", domain.Asset)
	bank := suite.child(assets, "Bank", "10")
	cash := suite.child(bank, "Cash", "1")

	_, err := suite.svc.AccountTree.UpdateAccount(suite.ctx, bank.AccountID, dto.UpdateAccountRequest{Code: strPtr("20")})
	suite.Require().NoError(err)

	reloaded, err := suite.svc.AccountTree.GetAccountByID(suite.ctx, cash.AccountID)
	suite.Require().NoError(err)
	suite.Equal("1201", reloaded.FullCode)
}

func (suite *AccountTreeServiceTestSuite) TestUpdateParent_ChangesInheritedType() {
	assets := suite.root("Assets", "1", domain.Asset)
	liabilities := suite.root("Liabilities", "2", domain.Liability)
	loan := suite.child(assets, "Loan", "5")
	detail := suite.child(loan, "Detail", "1")

	_, err := suite.svc.AccountTree.UpdateAccount(suite.ctx, loan.AccountID, dto.UpdateAccountRequest{ParentAccountID: &liabilities.AccountID})
	suite.Require().NoError(err)

	reloaded, err := suite.svc.AccountTree.GetAccountByID(suite.ctx, detail.AccountID)
	suite.Require().NoError(err)
	suite.Equal(domain.Liability, reloaded.AccountType)
	suite.Equal("251", reloaded.FullCode)
}

func (suite *AccountTreeServiceTestSuite) TestUpdateParent_RejectsCycle() {
	assets := suite.root("Assets", "1", domain.Asset)
	bank := suite.child(assets, "Bank", "10")
	cash := suite.child(bank, "Cash", "1")

	_, err := suite.svc.AccountTree.UpdateAccount(suite.ctx, assets.AccountID, dto.UpdateAccountRequest{ParentAccountID: &cash.AccountID})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.AccountTree.UpdateAccount(suite.ctx, bank.AccountID, dto.UpdateAccountRequest{ParentAccountID: &bank.AccountID})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountTreeServiceTestSuite) TestUpdateType_OnlyOnRoots() {
	assets := suite.root("Assets", "1", domain.Asset)
	bank := suite.child(assets, "Bank", "10")
	liability := domain.Liability

	_, err := suite.svc.AccountTree.UpdateAccount(suite.ctx, bank.AccountID, dto.UpdateAccountRequest{AccountType: &liability})
	suite.ErrorIs(err, apperrors.ErrInvalidAccountType)

	_, err = suite.svc.AccountTree.UpdateAccount(suite.ctx, assets.AccountID, dto.UpdateAccountRequest{AccountType: &liability})
	suite.Require().NoError(err)
	reloaded, err := suite.svc.AccountTree.GetAccountByID(suite.ctx, bank.AccountID)
	suite.Require().NoError(err)
	suite.Equal(domain.Liability, reloaded.AccountType)
}

func (suite *AccountTreeServiceTestSuite) TestDuplicateFullCode() {
	assets := suite.root("Assets", "1", domain.Asset)
	suite.child(assets, "Bank", "10")
	suite.root("Other", "11", domain.Asset)

	_, err := suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{Name: "Clash", Code: "110", AccountType: domain.Equity})
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountTreeServiceTestSuite) TestBankAccountRules() {
	liabilities := suite.root("Liabilities", "2", domain.Liability)
	_, err := suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "Card",
		ParentAccountID: liabilities.AccountID,
		IsBankAccount:   true,
	})
	suite.ErrorIs(err, apperrors.ErrBankAccountMustBeAsset)

	_, err = suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:          "Checking",
		AccountType:   domain.Asset,
		Currencies:    []string{"EUR", "USD"},
		IsBankAccount: true,
	})
	suite.ErrorIs(err, apperrors.ErrBankAccountSingleCurrency)

	assets := suite.root("Assets", "1", domain.Asset)
	bank, err := suite.svc.AccountTree.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "Checking",
		ParentAccountID: assets.AccountID,
		IsBankAccount:   true,
	})
	suite.Require().NoError(err)

	// moving a bank account under a liability root breaks the asset rule
	_, err = suite.svc.AccountTree.UpdateAccount(suite.ctx, bank.AccountID, dto.UpdateAccountRequest{ParentAccountID: &liabilities.AccountID})
	suite.ErrorIs(err, apperrors.ErrBankAccountMustBeAsset)
}

func (suite *AccountTreeServiceTestSuite) TestRemoveCurrencyWithLegs() {
	a := suite.root("A", "1", domain.Asset, "EUR", "USD")
	b := suite.root("B", "2", domain.Asset, "EUR", "USD")
	suite.transfer(a, b, "10", "EUR")

	_, err := suite.svc.AccountTree.UpdateAccount(suite.ctx, a.AccountID, dto.UpdateAccountRequest{Currencies: []string{"USD"}})
	suite.ErrorIs(err, apperrors.ErrAccountInUse)

	updated, err := suite.svc.AccountTree.UpdateAccount(suite.ctx, a.AccountID, dto.UpdateAccountRequest{Currencies: []string{"EUR"}})
	suite.Require().NoError(err)
	suite.Equal([]string{"EUR"}, updated.Currencies)
}

func (suite *AccountTreeServiceTestSuite) TestDeleteAccount() {
	assets := suite.root("Assets", "1", domain.Asset)
	bank := suite.child(assets, "Bank", "10")
	other := suite.root("Other", "2", domain.Asset)

	suite.ErrorIs(suite.svc.AccountTree.DeleteAccount(suite.ctx, assets.AccountID), apperrors.ErrAccountInUse)

	suite.transfer(bank, other, "5", "EUR")
	suite.ErrorIs(suite.svc.AccountTree.DeleteAccount(suite.ctx, bank.AccountID), apperrors.ErrAccountInUse)

	empty := suite.child(assets, "Empty", "99")
	suite.Require().NoError(suite.svc.AccountTree.DeleteAccount(suite.ctx, empty.AccountID))
	_, err := suite.svc.AccountTree.GetAccountByID(suite.ctx, empty.AccountID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountTreeServiceTestSuite) TestAccountTree_RollsUp() {
	assets := suite.root("Assets", "1", domain.Asset)
	bank := suite.child(assets, "Bank", "10")
	cash := suite.child(assets, "Cash", "20")
	income := suite.root("Income", "4", domain.Income)

	suite.transfer(income, bank, "100", "EUR")
	suite.transfer(income, cash, "30", "EUR")

	tree, err := suite.svc.AccountTree.AccountTree(suite.ctx, assets.AccountID, domain.BalanceOptions{})
	suite.Require().NoError(err)
	suite.Len(tree.Children, 2)
	suite.requireAmount(tree.Balance, "EUR", "130")
	suite.requireAmount(tree.SimpleBalance, "EUR", "0")
	suite.requireAmount(tree.Children[0].Balance, "EUR", "100")
	suite.requireAmount(tree.Children[1].Balance, "EUR", "30")

	raw, err := suite.svc.AccountTree.AccountTree(suite.ctx, assets.AccountID, domain.BalanceOptions{Raw: true})
	suite.Require().NoError(err)
	suite.requireAmount(raw.Balance, "EUR", "-130")
}

func (suite *AccountTreeServiceTestSuite) TestValidateAccountingEquation() {
	assets := suite.root("Assets", "1", domain.Asset, "EUR", "USD")
	equity := suite.root("Equity", "3", domain.Equity, "EUR", "USD")
	expenses := suite.root("Expenses", "5", domain.Expense, "EUR")

	suite.transfer(equity, assets, "1000", "EUR")
	suite.transfer(equity, assets, "50", "USD")
	suite.transfer(assets, expenses, "75", "EUR")

	suite.NoError(suite.svc.AccountTree.ValidateAccountingEquation(suite.ctx))
}

func (suite *AccountTreeServiceTestSuite) TestValidateAccountingEquation_DuringConcurrentTransfers() {
	liabilities := suite.root("Liabilities", "2", domain.Liability)
	assets := suite.root("Assets", "1", domain.Asset)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var transferErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, err := suite.svc.Ledger.Transfer(suite.ctx, dto.TransferRequest{
				FromAccountID: liabilities.AccountID,
				ToAccountID:   assets.AccountID,
				Amount:        decimal.NewFromInt(1),
				Currency:      "EUR",
			})
			if err != nil {
				transferErr = err
				return
			}
		}
	}()

	violations := 0
	for i := 0; i < 2000; i++ {
		if err := suite.svc.AccountTree.ValidateAccountingEquation(suite.ctx); err != nil {
			suite.Require().ErrorIs(err, apperrors.ErrAccountingEquationViolation)
			violations++
		}
	}
	close(stop)
	wg.Wait()

	suite.Require().NoError(transferErr)
	suite.Zero(violations)
}

func (suite *AccountTreeServiceTestSuite) TestListAccounts() {
	suite.root("B", "2", domain.Asset)
	suite.root("A", "1", domain.Asset)

	accounts, err := suite.svc.AccountTree.ListAccounts(suite.ctx, dto.ListAccountsParams{})
	suite.Require().NoError(err)
	suite.Len(accounts, 2)

	page, err := suite.svc.AccountTree.ListAccounts(suite.ctx, dto.ListAccountsParams{Limit: 1, Offset: 1})
	suite.Require().NoError(err)
	suite.Len(page, 1)
}
