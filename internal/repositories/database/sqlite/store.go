// Package sqlite implements the ledger store on SQLite for single node deployments.
//
// Units of work run in BEGIN IMMEDIATE transactions, so writers are serialized by the
// database lock and wait for it up to the connection's busy timeout. SQLite has no
// deferrable constraints or exact decimal arithmetic: amounts are stored as decimal text
// and summed in Go, and the per-currency zero sum of every touched transaction and full
// code uniqueness are verified just before COMMIT.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/repositories/database/sqlfilter"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Migrations holds the schema, applied with golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// timeLayout is fixed width so text comparison orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

var dialect = sqlfilter.Dialect{
	Placeholder: func(int) string { return "?" },
	Time:        func(t time.Time) any { return formatTime(t) },
}

// timeText scans a stored timestamp.
type timeText struct {
	dst *time.Time
}

func (s timeText) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	case time.Time:
		*s.dst = v.UTC()
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
	t, err := time.Parse(timeLayout, text)
	if err != nil {
		return err
	}
	*s.dst = t
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite ledger store.
type Store struct {
	reader
	db *sql.DB
}

// New creates a store on an open, migrated database. See database.OpenSQLite for the
// connection settings it expects.
func New(db *sql.DB) *Store {
	return &Store{reader: reader{q: db}, db: db}
}

var _ portsrepo.Store = (*Store)(nil)

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repo portsrepo.Repository) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repo := &txRepo{
		reader:  reader{q: tx},
		tx:      tx,
		touched: make(map[string]struct{}),
		locked:  make(map[totalKey]struct{}),
	}
	if err = fn(ctx, repo); err != nil {
		return err
	}
	if err = repo.checkCommit(ctx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapError(err, "commit")
	}
	return nil
}

type reader struct {
	q querier
}

type txRepo struct {
	reader
	tx      *sql.Tx
	touched map[string]struct{}
	locked  map[totalKey]struct{}
}

var _ portsrepo.Repository = (*txRepo)(nil)

type totalKey struct {
	accountID string
	currency  string
}

func (t *txRepo) touch(transactionID string) {
	t.touched[transactionID] = struct{}{}
}

// checkCommit evaluates the constraints PostgreSQL would defer to COMMIT.
func (t *txRepo) checkCommit(ctx context.Context) error {
	for id := range t.touched {
		if err := t.checkTransactionBalanced(ctx, id); err != nil {
			return err
		}
	}
	var fullCode string
	err := t.tx.QueryRowContext(ctx, `
		SELECT full_code FROM accounts WHERE full_code IS NOT NULL
		GROUP BY full_code HAVING COUNT(*) > 1 LIMIT 1`).Scan(&fullCode)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return mapError(err, "check full codes")
	}
	return fmt.Errorf("%w: full code %q used by more than one account", apperrors.ErrDuplicate, fullCode)
}

// mapError translates driver errors into the application error taxonomy.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %s: %s", apperrors.ErrConcurrentModification, op, sqlErr.Error())
		case sqlite3.ErrConstraint:
			switch sqlErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, op)
			case sqlite3.ErrConstraintForeignKey:
				return fmt.Errorf("%w: %s: referenced row missing or still referenced", apperrors.ErrConflict, op)
			case sqlite3.ErrConstraintCheck:
				return fmt.Errorf("%w: %s: %s", apperrors.ErrValidation, op, sqlErr.Error())
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
