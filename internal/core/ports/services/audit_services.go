package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// AuditSvcFacade checks ledger integrity. It reports problems and never corrects them.
type AuditSvcFacade interface {
	Audit(ctx context.Context) (*domain.AuditReport, error)
}
