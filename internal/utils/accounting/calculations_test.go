package accounting_test

import (
	"testing"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferDirection(t *testing.T) {
	tests := []struct {
		from, to domain.AccountType
		want     int
	}{
		{domain.Income, domain.Asset, 1},
		{domain.Asset, domain.Asset, 1},
		{domain.Asset, domain.Liability, -1},
		{domain.Asset, domain.Income, -1},
		{domain.Asset, domain.Equity, -1},
		{domain.Asset, domain.Trading, 1},
		{domain.Trading, domain.Trading, 1},
		{domain.Liability, domain.Expense, -1},
		{domain.Asset, domain.Expense, 1},
		{domain.Equity, domain.Expense, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, accounting.TransferDirection(tt.from, tt.to))
		})
	}
}

func leg(account, amount, currency string) domain.Leg {
	return domain.Leg{AccountID: account, Amount: domain.MustMoney(amount, currency)}
}

func TestValidateLegs(t *testing.T) {
	tests := []struct {
		name    string
		legs    []domain.Leg
		wantErr error
	}{
		{"balanced", []domain.Leg{leg("a", "100", "EUR"), leg("b", "-100", "EUR")}, nil},
		{"balanced per currency", []domain.Leg{
			leg("a", "100", "EUR"), leg("t", "-100", "EUR"),
			leg("t", "90", "GBP"), leg("b", "-90", "GBP"),
		}, nil},
		{"single leg", []domain.Leg{leg("a", "100", "EUR")}, apperrors.ErrTooFewLegs},
		{"zero leg", []domain.Leg{leg("a", "0", "EUR"), leg("b", "0", "EUR")}, apperrors.ErrZeroAmount},
		{"unbalanced", []domain.Leg{leg("a", "100", "EUR"), leg("b", "-90", "EUR")}, apperrors.ErrUnbalancedTransaction},
		{"balanced total but not per currency", []domain.Leg{leg("a", "100", "EUR"), leg("b", "-100", "GBP")}, apperrors.ErrUnbalancedTransaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounting.ValidateLegs("tx", tt.legs)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateZeroSum_ReportsResidue(t *testing.T) {
	err := accounting.ValidateZeroSum("tx-1", []domain.Leg{leg("a", "100", "EUR"), leg("b", "-90", "EUR")})

	var unbalanced *apperrors.UnbalancedTransactionError
	require.ErrorAs(t, err, &unbalanced)
	assert.Equal(t, "tx-1", unbalanced.TransactionID)
	assert.Equal(t, "10", unbalanced.Residue["EUR"].String())
}

func TestSignedBalance(t *testing.T) {
	raw := domain.NewBalance(domain.MustMoney("-100", "EUR"))

	assert.Equal(t, "100 EUR", accounting.SignedBalance(raw, domain.Asset).String())
	assert.Equal(t, "-100 EUR", accounting.SignedBalance(raw, domain.Income).String())
}

func TestDeltas(t *testing.T) {
	deltas := accounting.Deltas([]domain.Leg{leg("a", "5", "EUR")}, -1)
	require.Len(t, deltas, 1)
	assert.Equal(t, "a", deltas[0].AccountID)
	assert.Equal(t, "-5", deltas[0].Amount.String())
}
