package domain_test

import (
	"testing"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountType_Sign(t *testing.T) {
	want := map[domain.AccountType]int{
		domain.Asset:     -1,
		domain.Expense:   -1,
		domain.Liability: 1,
		domain.Income:    1,
		domain.Equity:    1,
		domain.Trading:   1,
	}
	for _, at := range domain.AccountTypes {
		assert.Equal(t, want[at], at.Sign(), string(at))
	}
	assert.Panics(t, func() { domain.AccountType("OTHER").Sign() })
}

func TestParseAccountType(t *testing.T) {
	at, err := domain.ParseAccountType(" trading ")
	require.NoError(t, err)
	assert.Equal(t, domain.Trading, at)

	_, err = domain.ParseAccountType("revenue")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAccountType)
}

func TestAccount_ValidateBankAccount(t *testing.T) {
	tests := []struct {
		name    string
		account domain.Account
		wantErr error
	}{
		{"not a bank account", domain.Account{AccountType: domain.Income, Currencies: []string{"EUR", "GBP"}}, nil},
		{"valid bank account", domain.Account{IsBankAccount: true, AccountType: domain.Asset, Currencies: []string{"EUR"}}, nil},
		{"bank account must be asset", domain.Account{IsBankAccount: true, AccountType: domain.Liability, Currencies: []string{"EUR"}}, apperrors.ErrBankAccountMustBeAsset},
		{"bank account with two currencies", domain.Account{IsBankAccount: true, AccountType: domain.Asset, Currencies: []string{"EUR", "GBP"}}, apperrors.ErrBankAccountSingleCurrency},
		{"bank account with no currency", domain.Account{IsBankAccount: true, AccountType: domain.Asset}, apperrors.ErrBankAccountSingleCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.ValidateBankAccount()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccount_SupportsCurrency(t *testing.T) {
	a := domain.Account{Currencies: []string{"EUR", "GBP"}}
	assert.True(t, a.SupportsCurrency("GBP"))
	assert.False(t, a.SupportsCurrency("USD"))
}
