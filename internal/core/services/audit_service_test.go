package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AuditServiceTestSuite struct {
	ledgerSuite
}

func TestAuditService(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}

func (suite *AuditServiceTestSuite) TestHealthyLedger() {
	a := suite.root("A", "1", domain.Asset)
	income := suite.root("Income", "4", domain.Income)
	suite.transfer(income, a, "100", "EUR")

	report, err := suite.svc.Audit.Audit(suite.ctx)
	suite.Require().NoError(err)
	suite.True(report.Healthy())
	suite.Empty(report.UnbalancedTransactions)
	suite.Empty(report.RunningTotalMismatches)
	suite.False(report.CheckedAt.IsZero())
}

func (suite *AuditServiceTestSuite) TestReportsRunningTotalDriftWithoutFixing() {
	a := suite.root("A", "1", domain.Asset)
	income := suite.root("Income", "4", domain.Income)
	suite.transfer(income, a, "100", "EUR")

	err := suite.store.WithTx(suite.ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		if _, err := repo.LockRunningTotal(ctx, a.AccountID, "EUR"); err != nil {
			return err
		}
		return repo.SetRunningTotal(ctx, a.AccountID, "EUR", decimal.NewFromInt(1))
	})
	suite.Require().NoError(err)

	report, err := suite.svc.Audit.Audit(suite.ctx)
	suite.Require().NoError(err)
	suite.False(report.Healthy())
	suite.Len(report.RunningTotalMismatches, 1)
	suite.True(report.EquationResidue.IsZero())

	again, err := suite.svc.Audit.Audit(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(again.RunningTotalMismatches, 1)
}
