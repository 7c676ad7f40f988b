package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/repositories/database/sqlfilter"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const legRelation = ` FROM legs l JOIN transactions t ON t.transaction_id = l.transaction_id`

const selectLeg = `
	SELECT l.leg_id, l.transaction_id, l.account_id, l.amount, l.currency_code, l.description, l.created_at,
	       t.date, t.sequence` + legRelation

func scanLeg(row rowScanner) (domain.Leg, error) {
	var m models.Leg
	err := row.Scan(&m.LegID, &m.TransactionID, &m.AccountID, &m.Amount, &m.CurrencyCode, &m.Description,
		timeText{&m.CreatedAt}, timeText{&m.Date}, &m.Sequence)
	if err != nil {
		return domain.Leg{}, err
	}
	return mapping.ToDomainLeg(m), nil
}

func (r reader) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var m models.Transaction
	err := r.q.QueryRowContext(ctx, `
		SELECT transaction_id, sequence, date, description, created_at, created_by, last_updated_at, last_updated_by
		FROM transactions WHERE transaction_id = ?`, transactionID).Scan(
		&m.TransactionID, &m.Sequence, timeText{&m.Date}, &m.Description,
		timeText{&m.CreatedAt}, &m.CreatedBy, timeText{&m.LastUpdatedAt}, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID)
		}
		return nil, mapError(err, "find transaction")
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

func (r reader) ListUnbalancedTransactions(ctx context.Context) ([]domain.TransactionImbalance, error) {
	legs, err := r.queryLegs(ctx, selectLeg+" ORDER BY l.transaction_id")
	if err != nil {
		return nil, err
	}
	out := []domain.TransactionImbalance{}
	for start := 0; start < len(legs); {
		end := start
		for end < len(legs) && legs[end].TransactionID == legs[start].TransactionID {
			end++
		}
		if residue := accounting.Residue(accounting.SumByCurrency(legs[start:end])); residue != nil {
			out = append(out, domain.TransactionImbalance{
				TransactionID: legs[start].TransactionID,
				Residue:       domain.NewBalanceFromMap(residue),
			})
		}
		start = end
	}
	return out, nil
}

func (t *txRepo) checkTransactionBalanced(ctx context.Context, transactionID string) error {
	legs, err := t.queryLegs(ctx, selectLeg+" WHERE l.transaction_id = ?", transactionID)
	if err != nil {
		return err
	}
	return accounting.ValidateZeroSum(transactionID, legs)
}

// SaveTransaction draws the sequence from an AUTOINCREMENT table, which never hands out
// the value of a committed row twice.
func (t *txRepo) SaveTransaction(ctx context.Context, txn *domain.Transaction) error {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO transaction_sequence DEFAULT VALUES`)
	if err != nil {
		return mapError(err, "next sequence")
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return mapError(err, "next sequence")
	}

	m := mapping.ToModelTransaction(*txn)
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO transactions (transaction_id, sequence, date, description, created_at, created_by, last_updated_at, last_updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.TransactionID, seq, formatTime(m.Date), m.Description,
		formatTime(m.CreatedAt), m.CreatedBy, formatTime(m.LastUpdatedAt), m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("save transaction %s", txn.TransactionID))
	}
	txn.Sequence = seq
	t.touch(txn.TransactionID)
	return nil
}

func (t *txRepo) UpdateTransactionDetails(ctx context.Context, transactionID string, date time.Time, description string, updatedBy string, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE transactions SET date = ?, description = ?, last_updated_at = ?, last_updated_by = ?
		WHERE transaction_id = ?`, formatTime(date), description, formatTime(now), updatedBy, transactionID)
	if err != nil {
		return mapError(err, "update transaction")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("transaction " + transactionID)
	}
	return nil
}

func (t *txRepo) DeleteTransaction(ctx context.Context, transactionID string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM transactions WHERE transaction_id = ?`, transactionID)
	if err != nil {
		mapped := mapError(err, "delete transaction")
		if errors.Is(mapped, apperrors.ErrConflict) {
			return fmt.Errorf("%w: transaction %s still has legs", apperrors.ErrConflict, transactionID)
		}
		return mapped
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("transaction " + transactionID)
	}
	return nil
}

func (r reader) queryLegs(ctx context.Context, query string, args ...any) ([]domain.Leg, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
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

func (r reader) FindLegByID(ctx context.Context, legID string) (*domain.Leg, error) {
	leg, err := scanLeg(r.q.QueryRowContext(ctx, selectLeg+" WHERE l.leg_id = ?", legID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("leg " + legID)
		}
		return nil, mapError(err, "find leg")
	}
	return &leg, nil
}

func (r reader) ListLegs(ctx context.Context, filter portsrepo.LegFilter) ([]domain.Leg, error) {
	b := sqlfilter.New(dialect).Legs(filter)
	query := selectLeg + b.SQL() + " ORDER BY t.date, t.sequence, l.leg_id"
	if filter.Limit > 0 {
		query += " LIMIT " + b.Arg(filter.Limit)
	}
	return r.queryLegs(ctx, query, b.Args()...)
}

func (r reader) SumLegs(ctx context.Context, filter portsrepo.LegFilter) (map[string]decimal.Decimal, error) {
	b := sqlfilter.New(dialect).Legs(filter)
	rows, err := r.q.QueryContext(ctx, `SELECT l.currency_code, l.amount`+legRelation+b.SQL(), b.Args()...)
	if err != nil {
		return nil, mapError(err, "sum legs")
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			currency string
			amount   decimal.Decimal
		)
		if err := rows.Scan(&currency, &amount); err != nil {
			return nil, mapError(err, "scan amount")
		}
		sums[currency] = sums[currency].Add(amount)
	}
	return sums, mapError(rows.Err(), "sum legs")
}

func (r reader) CountLegs(ctx context.Context, filter portsrepo.LegFilter) (int, error) {
	b := sqlfilter.New(dialect).Legs(filter)
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*)`+legRelation+b.SQL(), b.Args()...).Scan(&n)
	return n, mapError(err, "count legs")
}

func (t *txRepo) SaveLegs(ctx context.Context, legs []domain.Leg) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO legs (leg_id, transaction_id, account_id, amount, currency_code, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return mapError(err, "prepare save legs")
	}
	defer stmt.Close()

	for _, leg := range legs {
		if leg.Amount.IsZero() {
			return fmt.Errorf("%w: leg %s", apperrors.ErrZeroAmount, leg.LegID)
		}
		m := mapping.ToModelLeg(leg)
		if _, err := stmt.ExecContext(ctx, m.LegID, m.TransactionID, m.AccountID, m.Amount.String(), m.CurrencyCode,
			m.Description, formatTime(m.CreatedAt)); err != nil {
			return mapError(err, fmt.Sprintf("save leg %s", leg.LegID))
		}
		t.touch(leg.TransactionID)
	}
	return nil
}

func (t *txRepo) UpdateLegAmount(ctx context.Context, legID string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: leg %s", apperrors.ErrZeroAmount, legID)
	}
	leg, err := t.FindLegByID(ctx, legID)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE legs SET amount = ? WHERE leg_id = ?`, amount.String(), legID); err != nil {
		return mapError(err, fmt.Sprintf("update leg %s", legID))
	}
	t.touch(leg.TransactionID)
	return nil
}

func (t *txRepo) DeleteLeg(ctx context.Context, legID string) error {
	leg, err := t.FindLegByID(ctx, legID)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM legs WHERE leg_id = ?`, legID); err != nil {
		return mapError(err, fmt.Sprintf("delete leg %s", legID))
	}
	t.touch(leg.TransactionID)
	return nil
}
