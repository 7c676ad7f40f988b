package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const selectAccount = `
	SELECT a.account_id, a.parent_account_id, a.name, a.code, a.full_code, a.account_type, a.is_bank_account,
	       COALESCE((SELECT string_agg(ac.currency_code, ',' ORDER BY ac.currency_code)
	                 FROM account_currencies ac WHERE ac.account_id = a.account_id), '') AS currencies,
	       a.created_at, a.created_by, a.last_updated_at, a.last_updated_by
	FROM accounts a`

func scanAccount(row pgx.Row) (domain.Account, error) {
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
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

func (r reader) findAccount(ctx context.Context, what string, where string, arg any) (*domain.Account, error) {
	acc, err := scanAccount(r.q.QueryRow(ctx, selectAccount+" WHERE "+where, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFoundError(what)
		}
		return nil, mapError(err, "find "+what)
	}
	return &acc, nil
}

func (r reader) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findAccount(ctx, "account "+accountID, "a.account_id = $1", accountID)
}

func (r reader) FindAccountByFullCode(ctx context.Context, fullCode string) (*domain.Account, error) {
	return r.findAccount(ctx, "account with full code "+fullCode, "a.full_code = $1", fullCode)
}

func (r reader) listAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.q.Query(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list accounts")
	}
	return accounts, nil
}

func (r reader) ListChildAccounts(ctx context.Context, parentAccountID string) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" WHERE a.parent_account_id = $1 ORDER BY a.name, a.account_id", parentAccountID)
}

func (r reader) ListRootAccounts(ctx context.Context) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" WHERE a.parent_account_id IS NULL ORDER BY a.name, a.account_id")
}

func (r reader) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" ORDER BY a.full_code NULLS LAST, a.name, a.account_id LIMIT $1 OFFSET $2", limit, offset)
}

func (r reader) ListAccountsAfter(ctx context.Context, afterAccountID string, limit int) ([]domain.Account, error) {
	return r.listAccounts(ctx, selectAccount+" WHERE a.account_id > $1 ORDER BY a.account_id LIMIT $2", afterAccountID, limit)
}

func (t *txRepo) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (account_id, parent_account_id, name, code, full_code, account_type, is_bank_account,
		                      created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.AccountID, m.ParentAccountID, m.Name, m.Code, m.FullCode, m.AccountType, m.IsBankAccount,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("save account %s", account.AccountID))
	}
	return t.replaceCurrencies(ctx, account.AccountID, account.Currencies)
}

func (t *txRepo) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	tag, err := t.tx.Exec(ctx, `
		UPDATE accounts
		SET parent_account_id = $2, name = $3, code = $4, full_code = $5, account_type = $6,
		    is_bank_account = $7, last_updated_at = $8, last_updated_by = $9
		WHERE account_id = $1`,
		m.AccountID, m.ParentAccountID, m.Name, m.Code, m.FullCode, m.AccountType,
		m.IsBankAccount, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("update account %s", account.AccountID))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + account.AccountID)
	}
	return t.replaceCurrencies(ctx, account.AccountID, account.Currencies)
}

func (t *txRepo) replaceCurrencies(ctx context.Context, accountID string, currencies []string) error {
	if currencies == nil {
		currencies = []string{} // nil encodes as NULL and would match nothing
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM account_currencies WHERE account_id = $1 AND NOT (currency_code = ANY($2))`, accountID, currencies); err != nil {
		return mapError(err, "update account currencies")
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO account_currencies (account_id, currency_code)
		SELECT $1, unnest($2::varchar[])
		ON CONFLICT DO NOTHING`, accountID, currencies)
	if err != nil {
		return mapError(err, "update account currencies")
	}
	return nil
}

func (t *txRepo) DeleteAccount(ctx context.Context, accountID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1`, accountID)
	if err != nil {
		mapped := mapError(err, fmt.Sprintf("delete account %s", accountID))
		// the cascade to account_currencies may trip the legs foreign key first
		if errors.Is(mapped, apperrors.ErrConflict) && !errors.Is(mapped, apperrors.ErrAccountInUse) {
			return fmt.Errorf("%w: account %s", apperrors.ErrAccountInUse, accountID)
		}
		return mapped
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + accountID)
	}
	return nil
}

func (r reader) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	var m models.Currency
	err := r.q.QueryRow(ctx, `
		SELECT currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by
		FROM currencies WHERE currency_code = $1`, currencyCode).Scan(
		&m.CurrencyCode, &m.Symbol, &m.Name, &m.Precision,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFoundError("currency " + currencyCode)
		}
		return nil, mapError(err, "find currency")
	}
	c := mapping.ToDomainCurrency(m)
	return &c, nil
}

func (r reader) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	rows, err := r.q.Query(ctx, `
		SELECT currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by
		FROM currencies ORDER BY currency_code`)
	if err != nil {
		return nil, mapError(err, "list currencies")
	}
	defer rows.Close()

	currencies := []domain.Currency{}
	for rows.Next() {
		var m models.Currency
		if err := rows.Scan(&m.CurrencyCode, &m.Symbol, &m.Name, &m.Precision,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy); err != nil {
			return nil, mapError(err, "scan currency")
		}
		currencies = append(currencies, mapping.ToDomainCurrency(m))
	}
	return currencies, mapError(rows.Err(), "list currencies")
}

func (t *txRepo) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	m := mapping.ToModelCurrency(currency)
	_, err := t.tx.Exec(ctx, `
		INSERT INTO currencies (currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.CurrencyCode, m.Symbol, m.Name, m.Precision, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapError(err, fmt.Sprintf("save currency %s", currency.CurrencyCode))
}
