package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/google/uuid"
)

// ledgerService records transactions. Every write goes through one WithTx call that saves
// the transaction, its legs and the running total deltas together.
type ledgerService struct {
	BaseService
	store  portsrepo.Store
	totals portssvc.RunningTotalMaintainer
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store portsrepo.Store, totals portssvc.RunningTotalMaintainer) portssvc.LedgerSvcFacade {
	return &ledgerService{store: store, totals: totals}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.store.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	legs, err := s.store.ListLegs(ctx, portsrepo.LegFilter{TransactionID: transactionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list legs of transaction %s: %w", transactionID, err)
	}
	txn.Legs = legs
	return txn, nil
}

func (s *ledgerService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	legs := make([]domain.Leg, len(req.Legs))
	for i, l := range req.Legs {
		legs[i] = domain.Leg{
			AccountID:   l.AccountID,
			Amount:      domain.Money{Amount: l.Amount, Currency: domain.NormalizeCurrency(l.Currency)},
			Description: l.Description,
		}
	}
	return s.record(ctx, legs, req.Description, req.Date, nil)
}

func (s *ledgerService) Transfer(ctx context.Context, req dto.TransferRequest) (*domain.Transaction, error) {
	amount := domain.Money{Amount: req.Amount, Currency: domain.NormalizeCurrency(req.Currency)}
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: transfer amount", apperrors.ErrZeroAmount)
	}
	// legs are built once the account types are known inside the unit of work
	build := func(ctx context.Context, repo portsrepo.Repository) ([]domain.Leg, error) {
		from, err := repo.FindAccountByID(ctx, req.FromAccountID)
		if err != nil {
			return nil, err
		}
		to, err := repo.FindAccountByID(ctx, req.ToAccountID)
		if err != nil {
			return nil, err
		}
		dir, err := amount.Mul(accounting.TransferDirection(from.AccountType, to.AccountType))
		if err != nil {
			return nil, err
		}
		return []domain.Leg{
			{AccountID: from.AccountID, Amount: dir},
			{AccountID: to.AccountID, Amount: dir.Neg()},
		}, nil
	}
	return s.record(ctx, nil, req.Description, req.Date, build)
}

// record validates and stores a new transaction. When build is set it supplies the legs
// from inside the unit of work.
func (s *ledgerService) record(ctx context.Context, legs []domain.Leg, description string, date *time.Time,
	build func(ctx context.Context, repo portsrepo.Repository) ([]domain.Leg, error)) (*domain.Transaction, error) {
	if build == nil && len(legs) < 2 {
		err := fmt.Errorf("%w: got %d", apperrors.ErrTooFewLegs, len(legs))
		s.LogWarn(ctx, err, "Rejected transaction")
		return nil, err
	}
	txID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	now := s.Now()
	actor := s.Actor(ctx)
	txn := &domain.Transaction{
		TransactionID: txID.String(),
		Date:          now,
		Description:   strings.TrimSpace(description),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	if date != nil {
		txn.Date = date.UTC()
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		posting := legs
		if build != nil {
			var err error
			if posting, err = build(ctx, repo); err != nil {
				return err
			}
		}
		prepared, err := s.prepareLegs(ctx, repo, txn, posting, now)
		if err != nil {
			return err
		}
		if err := repo.SaveTransaction(ctx, txn); err != nil {
			return err
		}
		if err := repo.SaveLegs(ctx, prepared); err != nil {
			return err
		}
		if err := s.totals.ApplyDeltas(ctx, repo, accounting.Deltas(prepared, 1)); err != nil {
			return err
		}
		for i := range prepared {
			prepared[i].Date = txn.Date
			prepared[i].Sequence = txn.Sequence
		}
		txn.Legs = prepared
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to create transaction", slog.String("transaction_id", txn.TransactionID))
		return nil, err
	}
	s.LogInfo(ctx, "Transaction created",
		slog.String("transaction_id", txn.TransactionID),
		slog.Int64("sequence", txn.Sequence),
		slog.Int("legs", len(txn.Legs)))
	return txn, nil
}

// prepareLegs runs the per-leg checks and the zero sum check, and assigns leg ids.
func (s *ledgerService) prepareLegs(ctx context.Context, repo portsrepo.AccountReader, txn *domain.Transaction, legs []domain.Leg, now time.Time) ([]domain.Leg, error) {
	if len(legs) < 2 {
		return nil, fmt.Errorf("%w: got %d", apperrors.ErrTooFewLegs, len(legs))
	}
	accounts := make(map[string]*domain.Account)
	out := make([]domain.Leg, len(legs))
	for i, leg := range legs {
		if leg.Amount.IsZero() {
			return nil, fmt.Errorf("%w: leg %d on account %s", apperrors.ErrZeroAmount, i, leg.AccountID)
		}
		acc, ok := accounts[leg.AccountID]
		if !ok {
			var err error
			if acc, err = repo.FindAccountByID(ctx, leg.AccountID); err != nil {
				return nil, err
			}
			accounts[leg.AccountID] = acc
		}
		if !acc.SupportsCurrency(leg.Amount.Currency) {
			return nil, fmt.Errorf("%w: account %s does not hold %s", apperrors.ErrUnsupportedCurrency, acc.AccountID, leg.Amount.Currency)
		}
		legID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate leg id: %w", err)
		}
		leg.LegID = legID.String()
		leg.TransactionID = txn.TransactionID
		leg.Description = strings.TrimSpace(leg.Description)
		leg.CreatedAt = now
		out[i] = leg
	}
	if err := accounting.ValidateZeroSum(txn.TransactionID, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ledgerService) UpdateTransactionDetails(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		txn, err := repo.FindTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}
		date, description := txn.Date, txn.Description
		if req.Date != nil {
			date = req.Date.UTC()
		}
		if req.Description != nil {
			description = strings.TrimSpace(*req.Description)
		}
		return repo.UpdateTransactionDetails(ctx, transactionID, date, description, s.Actor(ctx), s.Now())
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to update transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}
	return s.GetTransaction(ctx, transactionID)
}

func (s *ledgerService) UpdateLegAmounts(ctx context.Context, transactionID string, req dto.UpdateLegAmountsRequest) (*domain.Transaction, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		if _, err := repo.FindTransactionByID(ctx, transactionID); err != nil {
			return err
		}
		legs, err := repo.ListLegs(ctx, portsrepo.LegFilter{TransactionID: transactionID})
		if err != nil {
			return err
		}
		byID := make(map[string]int, len(legs))
		for i, l := range legs {
			byID[l.LegID] = i
		}
		var deltas []domain.LegDelta
		for _, u := range req.Legs {
			i, ok := byID[u.LegID]
			if !ok {
				return apperrors.NewNotFoundError(fmt.Sprintf("leg %s in transaction %s", u.LegID, transactionID))
			}
			if u.Amount.IsZero() {
				return fmt.Errorf("%w: leg %s", apperrors.ErrZeroAmount, u.LegID)
			}
			old := legs[i].Amount
			deltas = append(deltas, domain.LegDelta{
				AccountID: legs[i].AccountID,
				Currency:  old.Currency,
				Amount:    u.Amount.Sub(old.Amount),
			})
			legs[i].Amount = domain.Money{Amount: u.Amount, Currency: old.Currency}
			if err := repo.UpdateLegAmount(ctx, u.LegID, u.Amount); err != nil {
				return err
			}
		}
		if err := accounting.ValidateZeroSum(transactionID, legs); err != nil {
			return err
		}
		return s.totals.ApplyDeltas(ctx, repo, deltas)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to update leg amounts", slog.String("transaction_id", transactionID))
		return nil, err
	}
	s.LogInfo(ctx, "Leg amounts updated", slog.String("transaction_id", transactionID), slog.Int("legs", len(req.Legs)))
	return s.GetTransaction(ctx, transactionID)
}

func (s *ledgerService) DeleteTransaction(ctx context.Context, transactionID string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		if _, err := repo.FindTransactionByID(ctx, transactionID); err != nil {
			return err
		}
		legs, err := repo.ListLegs(ctx, portsrepo.LegFilter{TransactionID: transactionID})
		if err != nil {
			return err
		}
		for _, l := range legs {
			if err := repo.DeleteLeg(ctx, l.LegID); err != nil {
				return err
			}
		}
		if err := s.totals.ApplyDeltas(ctx, repo, accounting.Deltas(legs, -1)); err != nil {
			return err
		}
		return repo.DeleteTransaction(ctx, transactionID)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to delete transaction", slog.String("transaction_id", transactionID))
		return err
	}
	s.LogInfo(ctx, "Transaction deleted", slog.String("transaction_id", transactionID))
	return nil
}

func (s *ledgerService) ReverseTransaction(ctx context.Context, transactionID string, req dto.ReverseTransactionRequest) (*domain.Transaction, error) {
	original, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	legs := make([]domain.Leg, len(original.Legs))
	for i, l := range original.Legs {
		legs[i] = domain.Leg{AccountID: l.AccountID, Amount: l.Amount.Neg(), Description: l.Description}
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Reversal of " + transactionID
		if original.Description != "" {
			description += ": " + original.Description
		}
	}
	date := original.Date
	if req.Date != nil {
		date = *req.Date
	}
	return s.record(ctx, legs, description, &date, nil)
}
