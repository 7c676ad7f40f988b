package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
)

const selectAccount = `
	SELECT a.account_id, a.parent_account_id, a.name, a.code, a.full_code, a.account_type, a.is_bank_account,
	       COALESCE((SELECT group_concat(ac.currency_code, ',') FROM account_currencies ac
	                 WHERE ac.account_id = a.account_id), '') AS currencies,
	       a.created_at, a.created_by, a.last_updated_at, a.last_updated_by
	FROM accounts a`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.ParentAccountID,
		&m.Name,
		&m.Code,
		&m.FullCode,
		&m.AccountType,
		&m.IsBankAccount,
		&m.Currencies,
		timeText{&m.CreatedAt},
		&m.CreatedBy,
		timeText{&m.LastUpdatedAt},
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	acc := mapping.ToDomainAccount(m)
	// group_concat has no defined order
	sort.Strings(acc.Currencies)
	return acc, nil
}

func (r reader) findAccount(ctx context.Context, what, where string, arg any) (*domain.Account, error) {
	acc, err := scanAccount(r.q.QueryRowContext(ctx, selectAccount+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(what)
		}
		return nil, mapError(err, "find "+what)
	}
	return &acc, nil
}

func (r reader) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findAccount(ctx, "account "+accountID, "a.account_id = ?", accountID)
}

func (r reader) FindAccountByFullCode(ctx context.Context, fullCode string) (*domain.Account, error) {
	return r.findAccount(ctx, "account with full code "+fullCode, "a.full_code = ?", fullCode)
}

func (r reader) listAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list accounts")
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err, "scan account")
		}
		accounts = append(accounts, acc)
	}
	return accounts, mapError(rows.Err(), "list accounts")
}

func (r reader) ListChildAccounts(ctx context.Context, parentAccountID string) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" WHERE a.parent_account_id = ? ORDER BY a.name, a.account_id", parentAccountID)
}

func (r reader) ListRootAccounts(ctx context.Context) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" WHERE a.parent_account_id IS NULL ORDER BY a.name, a.account_id")
}

func (r reader) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" ORDER BY a.full_code IS NULL, a.full_code, a.name, a.account_id LIMIT ? OFFSET ?", limit, offset)
}

func (r reader) ListAccountsAfter(ctx context.Context, afterAccountID string, limit int) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" WHERE a.account_id > ? ORDER BY a.account_id LIMIT ?", afterAccountID, limit)
}

func (t *txRepo) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (account_id, parent_account_id, name, code, full_code, account_type, is_bank_account,
		                      created_at, created_by, last_updated_at, last_updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.AccountID, m.ParentAccountID, m.Name, m.Code, m.FullCode, m.AccountType, m.IsBankAccount,
		formatTime(m.CreatedAt), m.CreatedBy, formatTime(m.LastUpdatedAt), m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("save account %s", account.AccountID))
	}
	return t.replaceCurrencies(ctx, account.AccountID, account.Currencies)
}

func (t *txRepo) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET parent_account_id = ?, name = ?, code = ?, full_code = ?, account_type = ?,
		    is_bank_account = ?, last_updated_at = ?, last_updated_by = ?
		WHERE account_id = ?`,
		m.ParentAccountID, m.Name, m.Code, m.FullCode, m.AccountType,
		m.IsBankAccount, formatTime(m.LastUpdatedAt), m.LastUpdatedBy, m.AccountID,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("update account %s", account.AccountID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("account " + account.AccountID)
	}
	return t.replaceCurrencies(ctx, account.AccountID, account.Currencies)
}

// replaceCurrencies deletes only the dropped currencies; rows referenced by legs must stay.
func (t *txRepo) replaceCurrencies(ctx context.Context, accountID string, currencies []string) error {
	query := `DELETE FROM account_currencies WHERE account_id = ?`
	args := []any{accountID}
	if len(currencies) > 0 {
		query += ` AND currency_code NOT IN (?` + strings.Repeat(", ?", len(currencies)-1) + `)`
		for _, c := range currencies {
			args = append(args, c)
		}
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "update account currencies")
	}
	for _, c := range currencies {
		if _, err := t.tx.ExecContext(ctx, `INSERT OR IGNORE INTO account_currencies (account_id, currency_code) VALUES (?, ?)`, accountID, c); err != nil {
			return mapError(err, "update account currencies")
		}
	}
	return nil
}

func (t *txRepo) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = ?`, accountID)
	if err != nil {
		mapped := mapError(err, fmt.Sprintf("delete account %s", accountID))
		if errors.Is(mapped, apperrors.ErrConflict) {
			return fmt.Errorf("%w: account %s", apperrors.ErrAccountInUse, accountID)
		}
		return mapped
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("account " + accountID)
	}
	return nil
}

const selectCurrency = `
	SELECT currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by
	FROM currencies`

func scanCurrency(row rowScanner) (domain.Currency, error) {
	var m models.Currency
	err := row.Scan(&m.CurrencyCode, &m.Symbol, &m.Name, &m.Precision,
		timeText{&m.CreatedAt}, &m.CreatedBy, timeText{&m.LastUpdatedAt}, &m.LastUpdatedBy)
	if err != nil {
		return domain.Currency{}, err
	}
	return mapping.ToDomainCurrency(m), nil
}

func (r reader) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	c, err := scanCurrency(r.q.QueryRowContext(ctx, selectCurrency+" WHERE currency_code = ?", currencyCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("currency " + currencyCode)
		}
		return nil, mapError(err, "find currency")
	}
	return &c, nil
}

func (r reader) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	rows, err := r.q.QueryContext(ctx, selectCurrency+" ORDER BY currency_code")
	if err != nil {
		return nil, mapError(err, "list currencies")
	}
	defer rows.Close()

	currencies := []domain.Currency{}
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, mapError(err, "scan currency")
		}
		currencies = append(currencies, c)
	}
	return currencies, mapError(rows.Err(), "list currencies")
}

func (t *txRepo) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	m := mapping.ToModelCurrency(currency)
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO currencies (currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.CurrencyCode, m.Symbol, m.Name, m.Precision,
		formatTime(m.CreatedAt), m.CreatedBy, formatTime(m.LastUpdatedAt), m.LastUpdatedBy,
	)
	return mapError(err, fmt.Sprintf("save currency %s", currency.CurrencyCode))
}
