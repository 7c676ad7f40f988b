// Package pgsql implements the ledger store on PostgreSQL using pgx.
//
// Units of work run in READ COMMITTED transactions. The per-currency zero sum of every
// transaction is enforced by a deferred constraint trigger and full code uniqueness by a
// deferred unique constraint, both evaluated at COMMIT. Running total rows are locked with
// SELECT ... FOR UPDATE under a transaction-local lock_timeout.
package pgsql

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrations holds the schema, applied with golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const defaultLockTimeout = 5 * time.Second

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL ledger store.
type Store struct {
	reader
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long a unit of work waits for a row lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// New creates a store on an open pool. The schema must already be migrated.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{reader: reader{q: pool}, pool: pool, lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portsrepo.Store = (*Store)(nil)

// Close is a no-op: the pool is owned by the caller.
func (s *Store) Close() error {
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repo portsrepo.Repository) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		return mapError(err, "set lock timeout")
	}

	repo := &txRepo{reader: reader{q: tx}, tx: tx, locked: make(map[totalKey]struct{})}
	if err = fn(ctx, repo); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return mapError(err, "commit")
	}
	return nil
}

// reader implements portsrepo.Reader over any querier.
type reader struct {
	q querier
}

// txRepo implements portsrepo.Repository inside one database transaction.
type txRepo struct {
	reader
	tx     pgx.Tx
	locked map[totalKey]struct{}
}

var _ portsrepo.Repository = (*txRepo)(nil)

type totalKey struct {
	accountID string
	currency  string
}

// mapError translates driver errors into the application error taxonomy.
const legsAccountCurrencyFK = "legs_account_currency_fkey"

func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s: %s", apperrors.ErrDuplicate, op, pgErr.Detail)
		case "23514": // check_violation
			if pgErr.ConstraintName == "legs_amount_not_zero" {
				return fmt.Errorf("%w: %s", apperrors.ErrZeroAmount, op)
			}
			return fmt.Errorf("%w: %s: %s", apperrors.ErrUnbalancedTransaction, op, pgErr.Message)
		case "23503": // foreign_key_violation
			if pgErr.ConstraintName == legsAccountCurrencyFK {
				if strings.HasPrefix(pgErr.Message, "update or delete") {
					return fmt.Errorf("%w: %s: currency still has legs on the account: %s", apperrors.ErrConflict, op, pgErr.Detail)
				}
				return fmt.Errorf("%w: %s: %s", apperrors.ErrUnsupportedCurrency, op, pgErr.Detail)
			}
			if strings.HasPrefix(pgErr.Message, "update or delete") {
				return fmt.Errorf("%w: %s: %s", apperrors.ErrAccountInUse, op, pgErr.Detail)
			}
			return fmt.Errorf("%w: %s: %s", apperrors.ErrNotFound, op, pgErr.Detail)
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return fmt.Errorf("%w: %s: %s", apperrors.ErrConcurrentModification, op, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
