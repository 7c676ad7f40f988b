package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4/database/sqlite3"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a SQLite database file. Foreign keys are enforced, writers take the
// database lock at BEGIN and wait up to busyTimeout for it.
func OpenSQLite(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	slog.Info("Opened SQLite database", slog.String("path", path))
	return db, nil
}

// MigrateSQLite applies every pending up migration found under migrations/ in fsys.
// It uses a dedicated handle, released once the migrations ran.
func MigrateSQLite(logger *slog.Logger, path string, fsys fs.FS) error {
	db, err := OpenSQLite(path, 5*time.Second)
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("could not create sqlite driver instance for migrations: %w", err)
	}
	return runMigrations(logger, fsys, "sqlite3", driver)
}
