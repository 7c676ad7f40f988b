package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	ledgerSuite
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (suite *LedgerServiceTestSuite) countLegs() int {
	n, err := suite.store.CountLegs(suite.ctx, portsrepo.LegFilter{})
	suite.Require().NoError(err)
	return n
}

func (suite *LedgerServiceTestSuite) TestTransfer_IncomeToAsset() {
	bank := suite.root("Bank", "1", domain.Asset)
	sales := suite.root("Sales", "4", domain.Income)

	txn := suite.transfer(sales, bank, "100", "EUR")

	suite.Len(txn.Legs, 2)
	suite.requireAmount(suite.balance(bank), "EUR", "100")
	suite.requireAmount(suite.balance(sales), "EUR", "100")
}

func (suite *LedgerServiceTestSuite) TestTransfer_AssetToAsset() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)

	suite.transfer(a, b, "100", "EUR")

	suite.requireAmount(suite.balance(a), "EUR", "-100")
	suite.requireAmount(suite.balance(b), "EUR", "100")
}

func (suite *LedgerServiceTestSuite) TestTransfer_LiabilityToExpense() {
	card := suite.root("Card", "2", domain.Liability)
	food := suite.root("Food", "5", domain.Expense)

	txn := suite.transfer(card, food, "40", "EUR")

	suite.Equal(card.AccountID, txn.Legs[0].AccountID)
	suite.True(txn.Legs[0].Amount.Amount.Equal(decimal.NewFromInt(-40)))
	suite.requireAmount(suite.balance(card), "EUR", "-40")
	suite.requireAmount(suite.balance(food), "EUR", "-40")
}

func (suite *LedgerServiceTestSuite) TestTransfer_ZeroAmount() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	_, err := suite.svc.Ledger.Transfer(suite.ctx, dto.TransferRequest{FromAccountID: a.AccountID, ToAccountID: b.AccountID, Currency: "EUR"})
	suite.ErrorIs(err, apperrors.ErrZeroAmount)
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_TooFewLegs() {
	a := suite.root("A", "1", domain.Asset)

	_, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{leg(a, "100", "EUR")},
	})

	suite.ErrorIs(err, apperrors.ErrTooFewLegs)
	suite.Zero(suite.countLegs())
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_Unbalanced() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)

	_, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{leg(a, "100", "EUR"), leg(b, "-90", "EUR")},
	})

	var unbalanced *apperrors.UnbalancedTransactionError
	suite.Require().ErrorAs(err, &unbalanced)
	suite.True(unbalanced.Residue["EUR"].Equal(decimal.NewFromInt(10)))
	suite.ErrorIs(err, apperrors.ErrUnbalancedTransaction)
	suite.Zero(suite.countLegs())

	totals, err := suite.svc.RunningTotal.RunningTotals(suite.ctx, a.AccountID, true)
	suite.Require().NoError(err)
	suite.requireAmount(totals, "EUR", "0")
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_BalancedPerCurrency() {
	a := suite.root("A", "1", domain.Asset, "EUR", "USD")
	trading := suite.root("FX", "9", domain.Trading, "EUR", "USD")

	// EUR sums to zero but USD does not
	_, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{leg(a, "-100", "EUR"), leg(trading, "100", "EUR"), leg(a, "110", "USD")},
	})
	suite.ErrorIs(err, apperrors.ErrUnbalancedTransaction)

	txn, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{
			leg(a, "-100", "EUR"), leg(trading, "100", "EUR"),
			leg(trading, "-110", "USD"), leg(a, "110", "USD"),
		},
		Description: "convert",
	})
	suite.Require().NoError(err)
	suite.Len(txn.Legs, 4)
	suite.NoError(suite.svc.AccountTree.ValidateAccountingEquation(suite.ctx))
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_ZeroLeg() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	_, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{leg(a, "0", "EUR"), leg(b, "0", "EUR")},
	})
	suite.ErrorIs(err, apperrors.ErrZeroAmount)
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_UnsupportedCurrency() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	_, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{leg(a, "5", "USD"), leg(b, "-5", "USD")},
	})
	suite.ErrorIs(err, apperrors.ErrUnsupportedCurrency)
	suite.Zero(suite.countLegs())
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_AssignsSequenceAndDate() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := suite.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Legs: []dto.LegRequest{leg(a, "5", "EUR"), leg(b, "-5", "EUR")},
		Date: &date,
	})
	suite.Require().NoError(err)
	second := suite.transfer(a, b, "1", "EUR")

	suite.Less(first.Sequence, second.Sequence)
	suite.True(first.Date.Equal(date))
	suite.Equal(testActor, first.CreatedBy)

	got, err := suite.svc.Ledger.GetTransaction(suite.ctx, first.TransactionID)
	suite.Require().NoError(err)
	suite.Len(got.Legs, 2)
	suite.Equal(first.Sequence, got.Legs[0].Sequence)
}

func (suite *LedgerServiceTestSuite) TestUpdateTransactionDetails() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	txn := suite.transfer(a, b, "10", "EUR")
	date := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	description := "rent"

	updated, err := suite.svc.Ledger.UpdateTransactionDetails(suite.ctx, txn.TransactionID, dto.UpdateTransactionRequest{Date: &date, Description: &description})
	suite.Require().NoError(err)
	suite.Equal("rent", updated.Description)
	suite.True(updated.Date.Equal(date))
	suite.Equal(txn.Sequence, updated.Sequence)
}

func (suite *LedgerServiceTestSuite) TestUpdateLegAmounts() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	txn := suite.transfer(a, b, "10", "EUR")

	_, err := suite.svc.Ledger.UpdateLegAmounts(suite.ctx, txn.TransactionID, dto.UpdateLegAmountsRequest{
		Legs: []dto.LegAmountUpdate{{LegID: txn.Legs[0].LegID, Amount: decimal.NewFromInt(25)}},
	})
	suite.ErrorIs(err, apperrors.ErrUnbalancedTransaction)

	_, err = suite.svc.Ledger.UpdateLegAmounts(suite.ctx, txn.TransactionID, dto.UpdateLegAmountsRequest{
		Legs: []dto.LegAmountUpdate{
			{LegID: txn.Legs[0].LegID, Amount: decimal.NewFromInt(25)},
			{LegID: txn.Legs[1].LegID, Amount: decimal.NewFromInt(-25)},
		},
	})
	suite.Require().NoError(err)
	suite.requireAmount(suite.balance(a), "EUR", "-25")

	totals, err := suite.svc.RunningTotal.RunningTotals(suite.ctx, b.AccountID, false)
	suite.Require().NoError(err)
	suite.requireAmount(totals, "EUR", "25")

	_, err = suite.svc.Ledger.UpdateLegAmounts(suite.ctx, txn.TransactionID, dto.UpdateLegAmountsRequest{
		Legs: []dto.LegAmountUpdate{{LegID: "nope", Amount: decimal.NewFromInt(1)}},
	})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestDeleteTransaction() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	txn := suite.transfer(a, b, "10", "EUR")

	suite.Require().NoError(suite.svc.Ledger.DeleteTransaction(suite.ctx, txn.TransactionID))

	suite.Zero(suite.countLegs())
	suite.requireAmount(suite.balance(a), "EUR", "0")
	totals, err := suite.svc.RunningTotal.RunningTotals(suite.ctx, a.AccountID, true)
	suite.Require().NoError(err)
	suite.requireAmount(totals, "EUR", "0")

	_, err = suite.svc.Ledger.GetTransaction(suite.ctx, txn.TransactionID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	txn := suite.transfer(a, b, "10", "EUR")

	reversal, err := suite.svc.Ledger.ReverseTransaction(suite.ctx, txn.TransactionID, dto.ReverseTransactionRequest{})
	suite.Require().NoError(err)

	suite.True(reversal.Date.Equal(txn.Date))
	suite.Contains(reversal.Description, txn.TransactionID)
	suite.requireAmount(suite.balance(a), "EUR", "0")
	suite.requireAmount(suite.balance(b), "EUR", "0")
}

func (suite *LedgerServiceTestSuite) TestConcurrentTransfers() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	c := suite.root("C", "3", domain.Asset)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := a, b
			if i%2 == 1 {
				from, to = b, c
			}
			_, err := suite.svc.Ledger.Transfer(suite.ctx, dto.TransferRequest{
				FromAccountID: from.AccountID,
				ToAccountID:   to.AccountID,
				Amount:        decimal.NewFromInt(1),
				Currency:      "EUR",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		suite.Require().NoError(err)
	}

	suite.requireAmount(suite.balance(a), "EUR", "-10")
	suite.requireAmount(suite.balance(b), "EUR", "0")
	suite.requireAmount(suite.balance(c), "EUR", "10")

	mismatches, err := suite.svc.RunningTotal.UpdateAllRunningTotals(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Empty(mismatches)
}
