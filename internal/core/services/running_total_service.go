package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

const reconcilePageSize = 200

type runningTotalService struct {
	BaseService
	store portsrepo.Store
}

// NewRunningTotalService creates the running total maintainer.
func NewRunningTotalService(store portsrepo.Store) portssvc.RunningTotalSvcFacade {
	return &runningTotalService{store: store}
}

var _ portssvc.RunningTotalSvcFacade = (*runningTotalService)(nil)

type totalKey struct {
	accountID string
	currency  string
}

func sortKeys(keys []totalKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].accountID != keys[j].accountID {
			return keys[i].accountID < keys[j].accountID
		}
		return keys[i].currency < keys[j].currency
	})
}

// ApplyDeltas nets the deltas per (account, currency), then locks and updates the rows in
// (account, currency) order. Every writer uses the same order, so two units of work can
// never wait on each other's rows in a cycle.
func (s *runningTotalService) ApplyDeltas(ctx context.Context, repo portsrepo.Repository, deltas []domain.LegDelta) error {
	net := make(map[totalKey]decimal.Decimal, len(deltas))
	for _, d := range deltas {
		k := totalKey{accountID: d.AccountID, currency: d.Currency}
		net[k] = net[k].Add(d.Amount)
	}
	keys := make([]totalKey, 0, len(net))
	for k, amount := range net {
		if amount.IsZero() {
			continue
		}
		keys = append(keys, k)
	}
	sortKeys(keys)

	for _, k := range keys {
		if _, err := repo.LockRunningTotal(ctx, k.accountID, k.currency); err != nil {
			return fmt.Errorf("failed to lock running total %s/%s: %w", k.accountID, k.currency, err)
		}
		if err := repo.AddToRunningTotal(ctx, k.accountID, k.currency, net[k]); err != nil {
			return fmt.Errorf("failed to update running total %s/%s: %w", k.accountID, k.currency, err)
		}
	}
	return nil
}

func (s *runningTotalService) UpdateRunningTotals(ctx context.Context, accountID string, checkOnly bool) ([]domain.Mismatch, error) {
	var mismatches []domain.Mismatch
	err := s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		var err error
		mismatches, err = s.reconcile(ctx, repo, accountID, checkOnly)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to reconcile running totals", slog.String("account_id", accountID))
		return nil, err
	}
	for _, m := range mismatches {
		s.GetLogger(ctx).Warn("Running total mismatch",
			slog.String("account_id", m.AccountID),
			slog.String("currency", m.Currency),
			slog.String("stored", m.Stored.String()),
			slog.String("actual", m.Actual.String()),
			slog.Bool("check_only", checkOnly))
	}
	return mismatches, nil
}

// reconcile compares one account's stored totals with its legs. Rows are locked in currency
// order before the legs are summed so no writer can move a total in between. Legs only ever
// use the account's currencies, so when correcting, those rows are created up front; a
// check-only pass locks existing rows and reports missing ones as stored zero.
func (s *runningTotalService) reconcile(ctx context.Context, repo portsrepo.Repository, accountID string, checkOnly bool) ([]domain.Mismatch, error) {
	acc, err := repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	existing, err := repo.ListRunningTotals(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list running totals: %w", err)
	}
	toLock := make(map[string]struct{}, len(existing)+len(acc.Currencies))
	for _, rt := range existing {
		toLock[rt.Currency] = struct{}{}
	}
	if !checkOnly {
		for _, c := range acc.Currencies {
			toLock[c] = struct{}{}
		}
	}
	currencies := make([]string, 0, len(toLock))
	for c := range toLock {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	stored := make(map[string]decimal.Decimal, len(currencies))
	for _, c := range currencies {
		rt, err := repo.LockRunningTotal(ctx, accountID, c)
		if err != nil {
			return nil, fmt.Errorf("failed to lock running total %s/%s: %w", accountID, c, err)
		}
		stored[c] = rt.Balance
	}

	actual, err := repo.SumLegs(ctx, portsrepo.LegFilter{AccountIDs: []string{accountID}})
	if err != nil {
		return nil, fmt.Errorf("failed to sum legs of account %s: %w", accountID, err)
	}
	for c := range actual {
		if _, ok := toLock[c]; !ok {
			currencies = append(currencies, c)
		}
	}
	sort.Strings(currencies)

	var mismatches []domain.Mismatch
	for _, c := range currencies {
		have, want := stored[c], actual[c]
		if have.Equal(want) {
			continue
		}
		mismatches = append(mismatches, domain.Mismatch{AccountID: accountID, Currency: c, Stored: have, Actual: want})
		if checkOnly {
			continue
		}
		if _, locked := stored[c]; !locked {
			if _, err := repo.LockRunningTotal(ctx, accountID, c); err != nil {
				return nil, fmt.Errorf("failed to lock running total %s/%s: %w", accountID, c, err)
			}
		}
		if err := repo.SetRunningTotal(ctx, accountID, c, want); err != nil {
			return nil, fmt.Errorf("failed to correct running total %s/%s: %w", accountID, c, err)
		}
	}
	return mismatches, nil
}

func (s *runningTotalService) UpdateAllRunningTotals(ctx context.Context, checkOnly bool) ([]domain.Mismatch, error) {
	all := []domain.Mismatch{}
	// pages are keyed on account id so renames during the pass do not move the cursor
	after := ""
	for {
		accounts, err := s.store.ListAccountsAfter(ctx, after, reconcilePageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}
		for _, acc := range accounts {
			mismatches, err := s.UpdateRunningTotals(ctx, acc.AccountID, checkOnly)
			if err != nil {
				return nil, err
			}
			all = append(all, mismatches...)
		}
		if len(accounts) < reconcilePageSize {
			break
		}
		after = accounts[len(accounts)-1].AccountID
	}
	s.LogInfo(ctx, "Reconciled running totals",
		slog.Int("mismatches", len(all)),
		slog.Bool("check_only", checkOnly))
	return all, nil
}

func (s *runningTotalService) RunningTotals(ctx context.Context, accountID string, raw bool) (domain.Balance, error) {
	acc, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return domain.Balance{}, err
	}
	totals, err := s.store.ListRunningTotals(ctx, accountID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to list running totals: %w", err)
	}
	b := domain.ZeroBalance(acc.Currencies...)
	for _, rt := range totals {
		b = b.AddMoney(domain.Money{Amount: rt.Balance, Currency: rt.Currency})
	}
	if raw {
		return b, nil
	}
	return accounting.SignedBalance(b, acc.AccountType), nil
}
