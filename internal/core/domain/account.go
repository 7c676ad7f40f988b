package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
)

// AccountType defines the fundamental accounting type of an account.
// Only root accounts choose a type; descendants inherit it.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
	Equity    AccountType = "EQUITY"
	Trading   AccountType = "TRADING"
)

// AccountTypes lists every account type.
var AccountTypes = []AccountType{Asset, Liability, Income, Expense, Equity, Trading}

// ParseAccountType parses a type name case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidAccountType, s)
	}
	return t, nil
}

func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Income, Expense, Equity, Trading:
		return true
	}
	return false
}

// Sign converts raw leg sums into user-facing balances where an increase is positive.
// It encodes 0 = Liabilities + Equity + Income - Expenses - Assets.
func (t AccountType) Sign() int {
	switch t {
	case Asset, Expense:
		return -1
	case Liability, Income, Equity, Trading:
		return 1
	}
	panic(fmt.Sprintf("account type %q has no sign", string(t)))
}

// Account is a node in the chart of accounts.
type Account struct {
	AccountID       string      `json:"accountID"`
	ParentAccountID string      `json:"parentAccountID"` // empty for roots
	Name            string      `json:"name"`
	Code            string      `json:"code"`
	FullCode        string      `json:"fullCode"` // empty when any code from the root down is empty
	AccountType     AccountType `json:"accountType"`
	IsBankAccount   bool        `json:"isBankAccount"`
	Currencies      []string    `json:"currencies"`
	AuditFields
}

func (a Account) IsRoot() bool {
	return a.ParentAccountID == ""
}

// Sign delegates to the account type.
func (a Account) Sign() int {
	return a.AccountType.Sign()
}

// SupportsCurrency reports whether legs in currency may be posted to the account.
func (a Account) SupportsCurrency(currency string) bool {
	for _, c := range a.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

// ValidateBankAccount checks the bank account constraints.
func (a Account) ValidateBankAccount() error {
	if !a.IsBankAccount {
		return nil
	}
	if a.AccountType != Asset {
		return fmt.Errorf("%w: account %q has type %s", apperrors.ErrBankAccountMustBeAsset, a.Name, a.AccountType)
	}
	if len(a.Currencies) != 1 {
		return fmt.Errorf("%w: account %q has %d currencies", apperrors.ErrBankAccountSingleCurrency, a.Name, len(a.Currencies))
	}
	return nil
}

func (a Account) String() string {
	if a.FullCode != "" {
		return a.FullCode + " " + a.Name
	}
	return a.Name
}
