package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

func (r reader) ListRunningTotals(ctx context.Context, accountID string) ([]domain.RunningTotal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT account_id, currency_code, balance, updated_at
		FROM running_totals WHERE account_id = $1 ORDER BY currency_code`, accountID)
	if err != nil {
		return nil, mapError(err, "list running totals")
	}
	defer rows.Close()

	out := []domain.RunningTotal{}
	for rows.Next() {
		var m models.RunningTotal
		if err := rows.Scan(&m.AccountID, &m.CurrencyCode, &m.Balance, &m.UpdatedAt); err != nil {
			return nil, mapError(err, "scan running total")
		}
		out = append(out, mapping.ToDomainRunningTotal(m))
	}
	return out, mapError(rows.Err(), "list running totals")
}

// LockRunningTotal creates the row if needed and holds it FOR UPDATE until the
// transaction ends. A lock wait beyond lock_timeout surfaces as 55P03.
func (t *txRepo) LockRunningTotal(ctx context.Context, accountID, currency string) (domain.RunningTotal, error) {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO running_totals (account_id, currency_code, balance, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (account_id, currency_code) DO NOTHING`, accountID, currency)
	if err != nil {
		return domain.RunningTotal{}, mapError(err, fmt.Sprintf("create running total %s/%s", accountID, currency))
	}

	var m models.RunningTotal
	err = t.tx.QueryRow(ctx, `
		SELECT account_id, currency_code, balance, updated_at
		FROM running_totals WHERE account_id = $1 AND currency_code = $2
		FOR UPDATE`, accountID, currency).Scan(&m.AccountID, &m.CurrencyCode, &m.Balance, &m.UpdatedAt)
	if err != nil {
		return domain.RunningTotal{}, mapError(err, fmt.Sprintf("lock running total %s/%s", accountID, currency))
	}
	t.locked[totalKey{accountID: accountID, currency: currency}] = struct{}{}
	return mapping.ToDomainRunningTotal(m), nil
}

func (t *txRepo) requireLock(accountID, currency string) error {
	if _, ok := t.locked[totalKey{accountID: accountID, currency: currency}]; !ok {
		return fmt.Errorf("%w: running total %s/%s written without lock", apperrors.ErrInternal, accountID, currency)
	}
	return nil
}

func (t *txRepo) AddToRunningTotal(ctx context.Context, accountID, currency string, delta decimal.Decimal) error {
	if err := t.requireLock(accountID, currency); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE running_totals SET balance = balance + $3, updated_at = now()
		WHERE account_id = $1 AND currency_code = $2`, accountID, currency, delta)
	return mapError(err, "add to running total")
}

func (t *txRepo) SetRunningTotal(ctx context.Context, accountID, currency string, balance decimal.Decimal) error {
	if err := t.requireLock(accountID, currency); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE running_totals SET balance = $3, updated_at = now()
		WHERE account_id = $1 AND currency_code = $2`, accountID, currency, balance)
	return mapError(err, "set running total")
}
