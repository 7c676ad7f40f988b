package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

type auditService struct {
	BaseService
	store  portsrepo.Store
	totals portssvc.RunningTotalSvcFacade
}

// NewAuditService creates the integrity auditor.
func NewAuditService(store portsrepo.Store, totals portssvc.RunningTotalSvcFacade) portssvc.AuditSvcFacade {
	return &auditService{store: store, totals: totals}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// Audit only reports. Running totals are compared in check-only mode.
func (s *auditService) Audit(ctx context.Context) (*domain.AuditReport, error) {
	report := &domain.AuditReport{CheckedAt: s.Now()}

	residue, err := equationResidue(ctx, s.store)
	if err != nil {
		return nil, err
	}
	report.EquationResidue = residue
	if !residue.IsZero() {
		s.LogError(ctx, &apperrors.AccountingEquationViolationError{Total: residue.String()}, "Audit found accounting equation violation")
	}

	unbalanced, err := s.store.ListUnbalancedTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unbalanced transactions: %w", err)
	}
	report.UnbalancedTransactions = unbalanced
	for _, u := range unbalanced {
		s.GetLogger(ctx).Error("Audit found unbalanced transaction",
			slog.String("transaction_id", u.TransactionID),
			slog.String("residue", u.Residue.String()))
	}

	mismatches, err := s.totals.UpdateAllRunningTotals(ctx, true)
	if err != nil {
		return nil, err
	}
	report.RunningTotalMismatches = mismatches

	s.LogInfo(ctx, "Audit finished",
		slog.Bool("healthy", report.Healthy()),
		slog.Int("unbalanced_transactions", len(unbalanced)),
		slog.Int("running_total_mismatches", len(mismatches)))
	return report, nil
}
