package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const selectRunningTotal = `SELECT account_id, currency_code, balance, updated_at FROM running_totals`

func scanRunningTotal(row rowScanner) (domain.RunningTotal, error) {
	var m models.RunningTotal
	if err := row.Scan(&m.AccountID, &m.CurrencyCode, &m.Balance, timeText{&m.UpdatedAt}); err != nil {
		return domain.RunningTotal{}, err
	}
	return mapping.ToDomainRunningTotal(m), nil
}

func (r reader) ListRunningTotals(ctx context.Context, accountID string) ([]domain.RunningTotal, error) {
	rows, err := r.q.QueryContext(ctx, selectRunningTotal+" WHERE account_id = ? ORDER BY currency_code", accountID)
	if err != nil {
		return nil, mapError(err, "list running totals")
	}
	defer rows.Close()

	out := []domain.RunningTotal{}
	for rows.Next() {
		rt, err := scanRunningTotal(rows)
		if err != nil {
			return nil, mapError(err, "scan running total")
		}
		out = append(out, rt)
	}
	return out, mapError(rows.Err(), "list running totals")
}

// LockRunningTotal creates the row if needed. The unit of work already holds the
// database write lock, so the row is exclusively ours until it ends.
func (t *txRepo) LockRunningTotal(ctx context.Context, accountID, currency string) (domain.RunningTotal, error) {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO running_totals (account_id, currency_code, balance, updated_at)
		VALUES (?, ?, '0', ?)
		ON CONFLICT (account_id, currency_code) DO NOTHING`, accountID, currency, formatTime(time.Now()))
	if err != nil {
		return domain.RunningTotal{}, mapError(err, fmt.Sprintf("create running total %s/%s", accountID, currency))
	}
	rt, err := scanRunningTotal(t.tx.QueryRowContext(ctx, selectRunningTotal+" WHERE account_id = ? AND currency_code = ?", accountID, currency))
	if err != nil {
		return domain.RunningTotal{}, mapError(err, fmt.Sprintf("lock running total %s/%s", accountID, currency))
	}
	t.locked[totalKey{accountID: accountID, currency: currency}] = struct{}{}
	return rt, nil
}

func (t *txRepo) lockedTotal(ctx context.Context, accountID, currency string) (domain.RunningTotal, error) {
	if _, ok := t.locked[totalKey{accountID: accountID, currency: currency}]; !ok {
		return domain.RunningTotal{}, fmt.Errorf("%w: running total %s/%s written without lock", apperrors.ErrInternal, accountID, currency)
	}
	rt, err := scanRunningTotal(t.tx.QueryRowContext(ctx, selectRunningTotal+" WHERE account_id = ? AND currency_code = ?", accountID, currency))
	if err != nil {
		return domain.RunningTotal{}, mapError(err, "read running total")
	}
	return rt, nil
}

func (t *txRepo) AddToRunningTotal(ctx context.Context, accountID, currency string, delta decimal.Decimal) error {
	rt, err := t.lockedTotal(ctx, accountID, currency)
	if err != nil {
		return err
	}
	return t.writeTotal(ctx, accountID, currency, rt.Balance.Add(delta))
}

func (t *txRepo) SetRunningTotal(ctx context.Context, accountID, currency string, balance decimal.Decimal) error {
	if _, err := t.lockedTotal(ctx, accountID, currency); err != nil {
		return err
	}
	return t.writeTotal(ctx, accountID, currency, balance)
}

func (t *txRepo) writeTotal(ctx context.Context, accountID, currency string, balance decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE running_totals SET balance = ?, updated_at = ?
		WHERE account_id = ? AND currency_code = ?`, balance.String(), formatTime(time.Now()), accountID, currency)
	return mapError(err, "write running total")
}
