package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/repositories/database/sqlfilter"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const selectLeg = `
	SELECT l.leg_id, l.transaction_id, l.account_id, l.amount, l.currency_code, l.description, l.created_at,
	       t.date, t.sequence
	FROM legs l JOIN transactions t ON t.transaction_id = l.transaction_id`

func scanLeg(row pgx.Row) (domain.Leg, error) {
	var m models.Leg
	err := row.Scan(&m.LegID, &m.TransactionID, &m.AccountID, &m.Amount, &m.CurrencyCode, &m.Description, &m.CreatedAt, &m.Date, &m.Sequence)
	if err != nil {
		return domain.Leg{}, err
	}
	return mapping.ToDomainLeg(m), nil
}

func (r reader) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var m models.Transaction
	err := r.q.QueryRow(ctx, `
		SELECT transaction_id, sequence, date, description, created_at, created_by, last_updated_at, last_updated_by
		FROM transactions WHERE transaction_id = $1`, transactionID).Scan(
		&m.TransactionID, &m.Sequence, &m.Date, &m.Description,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID)
		}
		return nil, mapError(err, "find transaction")
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

func (r reader) ListUnbalancedTransactions(ctx context.Context) ([]domain.TransactionImbalance, error) {
	rows, err := r.q.Query(ctx, `
		SELECT transaction_id, currency_code, SUM(amount)
		FROM legs
		GROUP BY transaction_id, currency_code
		HAVING SUM(amount) <> 0
		ORDER BY transaction_id, currency_code`)
	if err != nil {
		return nil, mapError(err, "list unbalanced transactions")
	}
	defer rows.Close()

	out := []domain.TransactionImbalance{}
	for rows.Next() {
		var (
			id, currency string
			residue      decimal.Decimal
		)
		if err := rows.Scan(&id, &currency, &residue); err != nil {
			return nil, mapError(err, "scan imbalance")
		}
		m := domain.Money{Amount: residue, Currency: currency}
		if n := len(out); n > 0 && out[n-1].TransactionID == id {
			out[n-1].Residue = out[n-1].Residue.AddMoney(m)
			continue
		}
		out = append(out, domain.TransactionImbalance{TransactionID: id, Residue: domain.NewBalance(m)})
	}
	return out, mapError(rows.Err(), "list unbalanced transactions")
}

func (t *txRepo) SaveTransaction(ctx context.Context, txn *domain.Transaction) error {
	m := mapping.ToModelTransaction(*txn)
	err := t.tx.QueryRow(ctx, `
		INSERT INTO transactions (transaction_id, date, description, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING sequence`,
		m.TransactionID, m.Date, m.Description, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&txn.Sequence)
	return mapError(err, fmt.Sprintf("save transaction %s", txn.TransactionID))
}

func (t *txRepo) UpdateTransactionDetails(ctx context.Context, transactionID string, date time.Time, description string, updatedBy string, now time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE transactions SET date = $2, description = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1`, transactionID, date.UTC(), description, now.UTC(), updatedBy)
	if err != nil {
		return mapError(err, "update transaction")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("transaction " + transactionID)
	}
	return nil
}

func (t *txRepo) DeleteTransaction(ctx context.Context, transactionID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1`, transactionID)
	if err != nil {
		mapped := mapError(err, "delete transaction")
		if errors.Is(mapped, apperrors.ErrAccountInUse) {
			return fmt.Errorf("%w: transaction %s still has legs", apperrors.ErrConflict, transactionID)
		}
		return mapped
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("transaction " + transactionID)
	}
	return nil
}

func (r reader) FindLegByID(ctx context.Context, legID string) (*domain.Leg, error) {
	leg, err := scanLeg(r.q.QueryRow(ctx, selectLeg+" WHERE l.leg_id = $1", legID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFoundError("leg " + legID)
		}
		return nil, mapError(err, "find leg")
	}
	return &leg, nil
}

func (r reader) ListLegs(ctx context.Context, filter portsrepo.LegFilter) ([]domain.Leg, error) {
	b := sqlfilter.New(sqlfilter.Postgres).Legs(filter)
	query := selectLeg + b.SQL() + " ORDER BY t.date, t.sequence, l.leg_id"
	if filter.Limit > 0 {
		query += " LIMIT " + b.Arg(filter.Limit)
	}
	rows, err := r.q.Query(ctx, query, b.Args()...)
	if err != nil {
		return nil, mapError(err, "list legs")
	}
	defer rows.Close()

	legs := []domain.Leg{}
	for rows.Next() {
		leg, err := scanLeg(rows)
		if err != nil {
			return nil, mapError(err, "scan leg")
		}
		legs = append(legs, leg)
	}
	return legs, mapError(rows.Err(), "list legs")
}

func (r reader) SumLegs(ctx context.Context, filter portsrepo.LegFilter) (map[string]decimal.Decimal, error) {
	b := sqlfilter.New(sqlfilter.Postgres).Legs(filter)
	rows, err := r.q.Query(ctx, `
		SELECT l.currency_code, SUM(l.amount)
		FROM legs l JOIN transactions t ON t.transaction_id = l.transaction_id`+b.SQL()+`
		GROUP BY l.currency_code`, b.Args()...)
	if err != nil {
		return nil, mapError(err, "sum legs")
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			currency string
			sum      decimal.Decimal
		)
		if err := rows.Scan(&currency, &sum); err != nil {
			return nil, mapError(err, "scan sum")
		}
		sums[currency] = sum
	}
	return sums, mapError(rows.Err(), "sum legs")
}

func (r reader) CountLegs(ctx context.Context, filter portsrepo.LegFilter) (int, error) {
	b := sqlfilter.New(sqlfilter.Postgres).Legs(filter)
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM legs l JOIN transactions t ON t.transaction_id = l.transaction_id`+b.SQL(), b.Args()...).Scan(&n)
	return n, mapError(err, "count legs")
}

func (t *txRepo) SaveLegs(ctx context.Context, legs []domain.Leg) error {
	batch := &pgx.Batch{}
	for _, leg := range legs {
		m := mapping.ToModelLeg(leg)
		batch.Queue(`
			INSERT INTO legs (leg_id, transaction_id, account_id, amount, currency_code, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.LegID, m.TransactionID, m.AccountID, m.Amount, m.CurrencyCode, m.Description, m.CreatedAt)
	}
	results := t.tx.SendBatch(ctx, batch)
	for _, leg := range legs {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return mapError(err, fmt.Sprintf("save leg %s", leg.LegID))
		}
	}
	return mapError(results.Close(), "save legs")
}

func (t *txRepo) UpdateLegAmount(ctx context.Context, legID string, amount decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `UPDATE legs SET amount = $2 WHERE leg_id = $1`, legID, amount)
	if err != nil {
		return mapError(err, fmt.Sprintf("update leg %s", legID))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("leg " + legID)
	}
	return nil
}

func (t *txRepo) DeleteLeg(ctx context.Context, legID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM legs WHERE leg_id = $1`, legID)
	if err != nil {
		return mapError(err, fmt.Sprintf("delete leg %s", legID))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("leg " + legID)
	}
	return nil
}
