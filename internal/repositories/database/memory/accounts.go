package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

func copyAccount(a domain.Account) domain.Account {
	a.Currencies = append([]string(nil), a.Currencies...)
	return a
}

func sortAccountsByName(accounts []domain.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name != accounts[j].Name {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})
}

func (st *state) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	acc, ok := st.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account " + accountID)
	}
	out := copyAccount(acc)
	return &out, nil
}

func (st *state) FindAccountByFullCode(_ context.Context, fullCode string) (*domain.Account, error) {
	if fullCode != "" {
		for _, acc := range st.accounts {
			if acc.FullCode == fullCode {
				out := copyAccount(acc)
				return &out, nil
			}
		}
	}
	return nil, apperrors.NewNotFoundError("account with full code " + fullCode)
}

func (st *state) ListChildAccounts(_ context.Context, parentAccountID string) ([]domain.Account, error) {
	out := []domain.Account{}
	for _, acc := range st.accounts {
		if parentAccountID != "" && acc.ParentAccountID == parentAccountID {
			out = append(out, copyAccount(acc))
		}
	}
	sortAccountsByName(out)
	return out, nil
}

func (st *state) ListRootAccounts(_ context.Context) ([]domain.Account, error) {
	out := []domain.Account{}
	for _, acc := range st.accounts {
		if acc.IsRoot() {
			out = append(out, copyAccount(acc))
		}
	}
	sortAccountsByName(out)
	return out, nil
}

func (st *state) ListAccounts(_ context.Context, limit int, offset int) ([]domain.Account, error) {
	all := make([]domain.Account, 0, len(st.accounts))
	for _, acc := range st.accounts {
		all = append(all, copyAccount(acc))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FullCode != all[j].FullCode {
			return all[i].FullCode < all[j].FullCode
		}
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].AccountID < all[j].AccountID
	})
	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (st *state) ListAccountsAfter(_ context.Context, afterAccountID string, limit int) ([]domain.Account, error) {
	page := []domain.Account{}
	for _, acc := range st.accounts {
		if acc.AccountID > afterAccountID {
			page = append(page, copyAccount(acc))
		}
	}
	sort.Slice(page, func(i, j int) bool { return page[i].AccountID < page[j].AccountID })
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	return page, nil
}

func (tx *txState) SaveAccount(_ context.Context, account domain.Account) error {
	if _, exists := tx.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	if err := tx.checkParent(account); err != nil {
		return err
	}
	tx.accounts[account.AccountID] = copyAccount(account)
	return nil
}

func (tx *txState) UpdateAccount(_ context.Context, account domain.Account) error {
	if _, exists := tx.accounts[account.AccountID]; !exists {
		return apperrors.NewNotFoundError("account " + account.AccountID)
	}
	if err := tx.checkParent(account); err != nil {
		return err
	}
	for _, leg := range tx.legs {
		if leg.AccountID == account.AccountID && !account.SupportsCurrency(leg.Amount.Currency) {
			return fmt.Errorf("%w: currency %s still has legs on account %s", apperrors.ErrConflict, leg.Amount.Currency, account.AccountID)
		}
	}
	tx.accounts[account.AccountID] = copyAccount(account)
	return nil
}

func (tx *txState) checkParent(account domain.Account) error {
	if account.ParentAccountID == "" {
		return nil
	}
	if _, ok := tx.accounts[account.ParentAccountID]; !ok {
		return apperrors.NewNotFoundError("parent account " + account.ParentAccountID)
	}
	return nil
}

// DeleteAccount enforces the same restrictions as the foreign keys of a relational store.
func (tx *txState) DeleteAccount(_ context.Context, accountID string) error {
	if _, ok := tx.accounts[accountID]; !ok {
		return apperrors.NewNotFoundError("account " + accountID)
	}
	for _, acc := range tx.accounts {
		if acc.ParentAccountID == accountID {
			return fmt.Errorf("%w: account %s has children", apperrors.ErrAccountInUse, accountID)
		}
	}
	for _, leg := range tx.legs {
		if leg.AccountID == accountID {
			return fmt.Errorf("%w: account %s has legs", apperrors.ErrAccountInUse, accountID)
		}
	}
	delete(tx.accounts, accountID)
	for k := range tx.totals {
		if k.accountID == accountID {
			delete(tx.totals, k)
		}
	}
	return nil
}

func (st *state) FindCurrencyByCode(_ context.Context, currencyCode string) (*domain.Currency, error) {
	c, ok := st.currencies[currencyCode]
	if !ok {
		return nil, apperrors.NewNotFoundError("currency " + currencyCode)
	}
	return &c, nil
}

func (st *state) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	out := make([]domain.Currency, 0, len(st.currencies))
	for _, c := range st.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, nil
}

func (tx *txState) SaveCurrency(_ context.Context, currency domain.Currency) error {
	if _, exists := tx.currencies[currency.CurrencyCode]; exists {
		return fmt.Errorf("%w: currency %s", apperrors.ErrDuplicate, currency.CurrencyCode)
	}
	tx.currencies[currency.CurrencyCode] = currency
	return nil
}
