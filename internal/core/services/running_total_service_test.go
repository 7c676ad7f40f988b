package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/core/services"
	"github.com/SscSPs/ledger_engine/internal/platform/config"
	"github.com/SscSPs/ledger_engine/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RunningTotalServiceTestSuite struct {
	ledgerSuite
}

func TestRunningTotalService(t *testing.T) {
	suite.Run(t, new(RunningTotalServiceTestSuite))
}

// corrupt overwrites a stored total behind the services' back.
func (suite *RunningTotalServiceTestSuite) corrupt(acc *domain.Account, currency, value string) {
	err := suite.store.WithTx(suite.ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		if _, err := repo.LockRunningTotal(ctx, acc.AccountID, currency); err != nil {
			return err
		}
		return repo.SetRunningTotal(ctx, acc.AccountID, currency, decimal.RequireFromString(value))
	})
	suite.Require().NoError(err)
}

func (suite *RunningTotalServiceTestSuite) TestTotalsFollowLegs() {
	a := suite.root("A", "1", domain.Asset)
	income := suite.root("Income", "4", domain.Income)
	suite.transfer(income, a, "100", "EUR")
	suite.transfer(a, income, "30", "EUR")

	cached, err := suite.svc.RunningTotal.RunningTotals(suite.ctx, a.AccountID, false)
	suite.Require().NoError(err)
	suite.True(cached.Equal(suite.balance(a)))
	suite.requireAmount(cached, "EUR", "70")

	raw, err := suite.svc.RunningTotal.RunningTotals(suite.ctx, a.AccountID, true)
	suite.Require().NoError(err)
	suite.requireAmount(raw, "EUR", "-70")
}

func (suite *RunningTotalServiceTestSuite) TestCheckOnlyReportsWithoutFixing() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	suite.transfer(a, b, "10", "EUR")
	suite.corrupt(a, "EUR", "99")

	mismatches, err := suite.svc.RunningTotal.UpdateRunningTotals(suite.ctx, a.AccountID, true)
	suite.Require().NoError(err)
	suite.Require().Len(mismatches, 1)
	suite.Equal("EUR", mismatches[0].Currency)
	suite.True(mismatches[0].Stored.Equal(decimal.NewFromInt(99)))
	suite.True(mismatches[0].Actual.Equal(decimal.NewFromInt(10)))

	again, err := suite.svc.RunningTotal.UpdateRunningTotals(suite.ctx, a.AccountID, true)
	suite.Require().NoError(err)
	suite.Len(again, 1)
}

func (suite *RunningTotalServiceTestSuite) TestUpdateFixesAndIsIdempotent() {
	a := suite.root("A", "1", domain.Asset, "EUR", "USD")
	b := suite.root("B", "2", domain.Asset, "EUR", "USD")
	suite.transfer(a, b, "10", "EUR")
	suite.corrupt(a, "EUR", "0")
	suite.corrupt(b, "USD", "3")

	mismatches, err := suite.svc.RunningTotal.UpdateAllRunningTotals(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Len(mismatches, 2)

	again, err := suite.svc.RunningTotal.UpdateAllRunningTotals(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Empty(again)

	cached, err := suite.svc.RunningTotal.RunningTotals(suite.ctx, b.AccountID, false)
	suite.Require().NoError(err)
	suite.requireAmount(cached, "EUR", "10")
	suite.requireAmount(cached, "USD", "0")
}

func (suite *RunningTotalServiceTestSuite) TestDriftToZeroIsCorrected() {
	a := suite.root("A", "1", domain.Asset)
	b := suite.root("B", "2", domain.Asset)
	suite.transfer(a, b, "10", "EUR")

	// cancel the leg's effect on the cached row only
	err := suite.store.WithTx(suite.ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		if _, err := repo.LockRunningTotal(ctx, b.AccountID, "EUR"); err != nil {
			return err
		}
		return repo.AddToRunningTotal(ctx, b.AccountID, "EUR", decimal.NewFromInt(10))
	})
	suite.Require().NoError(err)

	mismatches, err := suite.svc.RunningTotal.UpdateRunningTotals(suite.ctx, b.AccountID, false)
	suite.Require().NoError(err)
	suite.Require().Len(mismatches, 1)
	suite.True(mismatches[0].Stored.IsZero())
	suite.True(mismatches[0].Actual.Equal(decimal.NewFromInt(-10)))
}

func (suite *RunningTotalServiceTestSuite) TestNetZeroDeltasSkipLocking() {
	a := suite.root("A", "1", domain.Asset)
	err := suite.store.WithTx(suite.ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		return suite.svc.RunningTotal.ApplyDeltas(ctx, repo, []domain.LegDelta{
			{AccountID: a.AccountID, Currency: "EUR", Amount: decimal.NewFromInt(5)},
			{AccountID: a.AccountID, Currency: "EUR", Amount: decimal.NewFromInt(-5)},
		})
	})
	suite.Require().NoError(err)

	totals, err := suite.store.ListRunningTotals(suite.ctx, a.AccountID)
	suite.Require().NoError(err)
	suite.Empty(totals)
}

// renamingStore runs onPage before every account page is read.
type renamingStore struct {
	*memory.Store
	onPage func(after string)
}

func (r *renamingStore) ListAccountsAfter(ctx context.Context, afterAccountID string, limit int) ([]domain.Account, error) {
	if r.onPage != nil {
		r.onPage(afterAccountID)
	}
	return r.Store.ListAccountsAfter(ctx, afterAccountID, limit)
}

func (suite *RunningTotalServiceTestSuite) TestUpdateAllVisitsEveryAccountOnceAcrossRenames() {
	const n = 250
	var last string
	for i := 0; i < n; i++ {
		acc := suite.root(fmt.Sprintf("Account %03d", i), fmt.Sprintf("%03d", i+1), domain.Asset)
		suite.corrupt(acc, "EUR", "1")
		if acc.AccountID > last {
			last = acc.AccountID
		}
	}

	store := &renamingStore{Store: suite.store}
	renamed := false
	store.onPage = func(after string) {
		if after == "" || renamed {
			return
		}
		renamed = true
		// move the last account by id to the front of the full code order
		suite.Require().NoError(suite.store.WithTx(suite.ctx, func(ctx context.Context, repo portsrepo.Repository) error {
			acc, err := repo.FindAccountByID(ctx, last)
			if err != nil {
				return err
			}
			acc.Code, acc.FullCode = "0", "0"
			return repo.UpdateAccount(ctx, *acc)
		}))
	}
	svc := services.NewServiceContainer(&config.Config{DefaultCurrency: "EUR"}, store)

	mismatches, err := svc.RunningTotal.UpdateAllRunningTotals(suite.ctx, true)
	suite.Require().NoError(err)
	suite.True(renamed)

	seen := make(map[string]int, n)
	for _, m := range mismatches {
		seen[m.AccountID]++
	}
	suite.Len(seen, n)
	for id, count := range seen {
		suite.Equal(1, count, "account %s", id)
	}
	suite.Equal(1, seen[last])
}
