package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestAccountMappingNullableColumns(t *testing.T) {
	root := domain.Account{AccountID: "a", Name: "Assets", AccountType: domain.Asset, Currencies: []string{"EUR", "USD"}}
	m := ToModelAccount(root)
	assert.Nil(t, m.ParentAccountID)
	assert.Nil(t, m.FullCode)
	assert.Equal(t, "EUR,USD", m.Currencies)

	child := domain.Account{AccountID: "b", ParentAccountID: "a", Code: "1", FullCode: "11"}
	m = ToModelAccount(child)
	if assert.NotNil(t, m.ParentAccountID) {
		assert.Equal(t, "a", *m.ParentAccountID)
	}
	back := ToDomainAccount(m)
	assert.Equal(t, "11", back.FullCode)
	assert.Equal(t, []string{}, back.Currencies)
}

func TestLegMappingNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	leg := domain.Leg{
		LegID:  "l",
		Amount: domain.MustMoney("-12.50", "EUR"),
		Date:   time.Date(2024, 1, 1, 1, 0, 0, 0, loc),
	}
	back := ToDomainLeg(ToModelLeg(leg))
	assert.Equal(t, time.UTC, back.Date.Location())
	assert.True(t, leg.Date.Equal(back.Date))
	assert.Equal(t, "EUR", back.Amount.Currency)
	assert.True(t, leg.Amount.Amount.Equal(back.Amount.Amount))
}
