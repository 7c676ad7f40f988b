package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BalanceServiceTestSuite struct {
	ledgerSuite
}

func TestBalanceService(t *testing.T) {
	suite.Run(t, new(BalanceServiceTestSuite))
}

func (suite *BalanceServiceTestSuite) transferOn(from, to *domain.Account, amount string, date time.Time) *domain.Transaction {
	txn, err := suite.svc.Ledger.Transfer(suite.ctx, dto.TransferRequest{
		FromAccountID: from.AccountID,
		ToAccountID:   to.AccountID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "EUR",
		Date:          &date,
	})
	suite.Require().NoError(err)
	return txn
}

func legOn(txn *domain.Transaction, acc *domain.Account) domain.Leg {
	for _, l := range txn.Legs {
		if l.AccountID == acc.AccountID {
			return l
		}
	}
	panic("no leg for account " + acc.AccountID)
}

func (suite *BalanceServiceTestSuite) TestAccountBalanceAfter_SameDateOrderedBySequence() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	txns := []*domain.Transaction{
		suite.transferOn(a, b, "100", day),
		suite.transferOn(a, b, "100", day),
		suite.transferOn(a, b, "50", day),
		suite.transferOn(b, a, "70", day),
	}

	want := []string{"100", "200", "250", "180"}
	for i, txn := range txns {
		after, err := suite.svc.Balance.AccountBalanceAfter(suite.ctx, legOn(txn, b).LegID)
		suite.Require().NoError(err)
		suite.requireAmount(after, "EUR", want[i])
	}

	before, err := suite.svc.Balance.AccountBalanceBefore(suite.ctx, legOn(txns[0], b).LegID)
	suite.Require().NoError(err)
	suite.requireAmount(before, "EUR", "0")

	before, err = suite.svc.Balance.AccountBalanceBefore(suite.ctx, legOn(txns[3], b).LegID)
	suite.Require().NoError(err)
	suite.requireAmount(before, "EUR", "250")
}

func (suite *BalanceServiceTestSuite) TestAccountBalanceAfter_DateBeatsSequence() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	late := suite.transferOn(a, b, "10", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	suite.transferOn(a, b, "5", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	after, err := suite.svc.Balance.AccountBalanceAfter(suite.ctx, legOn(late, b).LegID)
	suite.Require().NoError(err)
	suite.requireAmount(after, "EUR", "15")
}

func (suite *BalanceServiceTestSuite) TestAccountBalanceAtLeg_SameTransactionLegsAgree() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	suite.transferOn(b, a, "30", day)

	txn, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{leg(a, "-50", "EUR"), leg(a, "-50", "EUR"), leg(b, "100", "EUR")},
		Date: &day,
	})
	suite.Require().NoError(err)

	var legsOnA int
	for _, l := range txn.Legs {
		if l.AccountID != a.AccountID {
			continue
		}
		legsOnA++
		after, err := suite.svc.Balance.AccountBalanceAfter(suite.ctx, l.LegID)
		suite.Require().NoError(err)
		suite.requireAmount(after, "EUR", "130")

		before, err := suite.svc.Balance.AccountBalanceBefore(suite.ctx, l.LegID)
		suite.Require().NoError(err)
		suite.requireAmount(before, "EUR", "30")
	}
	suite.Equal(2, legsOnA)
}

func (suite *BalanceServiceTestSuite) TestAccountBalanceAfter_UnknownLeg() {
	_, err := suite.svc.Balance.AccountBalanceAfter(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *BalanceServiceTestSuite) TestSimpleBalance_ZeroForEveryCurrency() {
	acc := suite.root("Wallet", "1", domain.Asset, "GBP", "EUR")

	b, err := suite.svc.Balance.SimpleBalance(suite.ctx, acc.AccountID, domain.BalanceOptions{})
	suite.Require().NoError(err)

	suite.Equal([]string{"EUR", "GBP"}, b.Currencies())
	suite.True(b.IsZero())
}

func (suite *BalanceServiceTestSuite) TestBalance_AsOfAndFrom() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	suite.transferOn(a, b, "10", jan)
	suite.transferOn(a, b, "20", feb)

	endOfJan := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	got, err := suite.svc.Balance.Balance(suite.ctx, b.AccountID, domain.BalanceOptions{AsOf: &endOfJan})
	suite.Require().NoError(err)
	suite.requireAmount(got, "EUR", "10")

	firstOfFeb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	got, err = suite.svc.Balance.Balance(suite.ctx, b.AccountID, domain.BalanceOptions{FromDate: &firstOfFeb})
	suite.Require().NoError(err)
	suite.requireAmount(got, "EUR", "20")

	got, err = suite.svc.Balance.Balance(suite.ctx, b.AccountID, domain.BalanceOptions{Raw: true})
	suite.Require().NoError(err)
	suite.requireAmount(got, "EUR", "-30")
}

func (suite *BalanceServiceTestSuite) TestBalance_CurrencyFilter() {
	a := suite.root("A", "1", domain.Asset, "EUR", "USD")
	b := suite.root("B", "2", domain.Asset, "EUR", "USD")
	suite.transfer(a, b, "10", "EUR")
	suite.transfer(a, b, "7", "USD")

	got, err := suite.svc.Balance.Balance(suite.ctx, b.AccountID, domain.BalanceOptions{Currency: "USD"})
	suite.Require().NoError(err)
	suite.Equal([]string{"USD"}, got.Currencies())
	suite.requireAmount(got, "USD", "7")
}

func (suite *BalanceServiceTestSuite) TestBalance_RollsUpDescendants() {
	assets := suite.root("Assets", "1", domain.Asset, "EUR", "USD")
	bank := suite.child(assets, "Bank", "1", "EUR")
	broker := suite.child(assets, "Broker", "2", "USD")
	equity := suite.root("Equity", "3", domain.Equity, "EUR", "USD")

	suite.transfer(equity, bank, "100", "EUR")
	suite.transfer(equity, broker, "40", "USD")

	got := suite.balance(assets)
	suite.requireAmount(got, "EUR", "100")
	suite.requireAmount(got, "USD", "40")

	simple, err := suite.svc.Balance.SimpleBalance(suite.ctx, assets.AccountID, domain.BalanceOptions{})
	suite.Require().NoError(err)
	suite.True(simple.IsZero())

	suite.requireAmount(suite.balance(equity), "EUR", "100")
}

func (suite *BalanceServiceTestSuite) TestStatement_Pagination() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, amount := range []string{"10", "20", "30", "40", "50"} {
		suite.transferOn(a, b, amount, day)
	}

	page1, err := suite.svc.Balance.Statement(suite.ctx, b.AccountID, dto.StatementRequest{Limit: 2})
	suite.Require().NoError(err)
	suite.Len(page1.Lines, 2)
	suite.Require().NotNil(page1.NextToken)
	suite.requireAmount(page1.OpeningBalance, "EUR", "0")
	suite.requireAmount(page1.Lines[1].BalanceAfter, "EUR", "30")
	suite.Equal(domain.Debit, page1.Lines[0].Side)

	page2, err := suite.svc.Balance.Statement(suite.ctx, b.AccountID, dto.StatementRequest{Limit: 2, NextToken: *page1.NextToken})
	suite.Require().NoError(err)
	suite.requireAmount(page2.OpeningBalance, "EUR", "30")
	suite.requireAmount(page2.Lines[1].BalanceAfter, "EUR", "100")

	page3, err := suite.svc.Balance.Statement(suite.ctx, b.AccountID, dto.StatementRequest{Limit: 2, NextToken: *page2.NextToken})
	suite.Require().NoError(err)
	suite.Len(page3.Lines, 1)
	suite.Nil(page3.NextToken)
	suite.requireAmount(page3.Lines[0].BalanceAfter, "EUR", "150")
}

func (suite *BalanceServiceTestSuite) TestStatement_FromDate() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	suite.transferOn(a, b, "10", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	suite.transferOn(a, b, "5", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	st, err := suite.svc.Balance.Statement(suite.ctx, b.AccountID, dto.StatementRequest{From: &from})
	suite.Require().NoError(err)
	suite.requireAmount(st.OpeningBalance, "EUR", "10")
	suite.Require().Len(st.Lines, 1)
	suite.requireAmount(st.Lines[0].BalanceAfter, "EUR", "15")
}

func (suite *BalanceServiceTestSuite) TestStatement_BadToken() {
	a := suite.root("A", "1", domain.Asset)
	_, err := suite.svc.Balance.Statement(suite.ctx, a.AccountID, dto.StatementRequest{NextToken: "%%%"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}
