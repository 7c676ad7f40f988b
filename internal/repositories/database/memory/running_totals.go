package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

func (st *state) ListRunningTotals(_ context.Context, accountID string) ([]domain.RunningTotal, error) {
	out := []domain.RunningTotal{}
	for k, rt := range st.totals {
		if k.accountID == accountID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// LockRunningTotal marks the row as owned by this unit of work. Write units are already
// serialized by the store, so the lock never waits.
func (tx *txState) LockRunningTotal(_ context.Context, accountID, currency string) (domain.RunningTotal, error) {
	if _, ok := tx.accounts[accountID]; !ok {
		return domain.RunningTotal{}, apperrors.NewNotFoundError("account " + accountID)
	}
	k := totalKey{accountID: accountID, currency: currency}
	rt, ok := tx.totals[k]
	if !ok {
		rt = domain.RunningTotal{AccountID: accountID, Currency: currency, Balance: decimal.Zero, UpdatedAt: time.Now().UTC()}
		tx.totals[k] = rt
	}
	tx.locked[k] = struct{}{}
	return rt, nil
}

func (tx *txState) lockedTotal(accountID, currency string) (totalKey, domain.RunningTotal, error) {
	k := totalKey{accountID: accountID, currency: currency}
	if _, ok := tx.locked[k]; !ok {
		return k, domain.RunningTotal{}, fmt.Errorf("%w: running total %s/%s written without lock", apperrors.ErrInternal, accountID, currency)
	}
	return k, tx.totals[k], nil
}

func (tx *txState) AddToRunningTotal(_ context.Context, accountID, currency string, delta decimal.Decimal) error {
	k, rt, err := tx.lockedTotal(accountID, currency)
	if err != nil {
		return err
	}
	rt.Balance = rt.Balance.Add(delta)
	rt.UpdatedAt = time.Now().UTC()
	tx.totals[k] = rt
	return nil
}

func (tx *txState) SetRunningTotal(_ context.Context, accountID, currency string, balance decimal.Decimal) error {
	k, rt, err := tx.lockedTotal(accountID, currency)
	if err != nil {
		return err
	}
	rt.Balance = balance
	rt.UpdatedAt = time.Now().UTC()
	tx.totals[k] = rt
	return nil
}
