// Package jobs holds background workers run next to the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/middleware"
)

// Reconciler periodically compares every running total with the sum of its legs.
type Reconciler struct {
	totals   portssvc.RunningTotalSvcFacade
	interval time.Duration
	autoFix  bool
	logger   *slog.Logger
}

// NewReconciler creates a reconciler. With autoFix unset it only reports mismatches.
func NewReconciler(totals portssvc.RunningTotalSvcFacade, interval time.Duration, autoFix bool, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		totals:   totals,
		interval: interval,
		autoFix:  autoFix,
		logger:   logger.With(slog.String("job", "reconciler")),
	}
}

// Run blocks until ctx is cancelled. A zero interval disables the job.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.interval <= 0 {
		r.logger.Info("Reconciler disabled")
		return nil
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Reconciler started", slog.Duration("interval", r.interval), slog.Bool("auto_fix", r.autoFix))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass over all accounts and returns the number of mismatches.
// Failures are logged; the next tick tries again.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	ctx = middleware.WithLogger(ctx, r.logger)
	start := time.Now()
	mismatches, err := r.totals.UpdateAllRunningTotals(ctx, !r.autoFix)
	if err != nil {
		r.logger.Error("Reconciliation pass failed", slog.String("error", err.Error()))
		return len(mismatches)
	}
	if len(mismatches) > 0 {
		r.logger.Warn("Running totals drifted from legs",
			slog.Int("mismatches", len(mismatches)),
			slog.Bool("corrected", r.autoFix))
	} else {
		r.logger.Debug("Running totals consistent", slog.Duration("took", time.Since(start)))
	}
	return len(mismatches)
}
