package sqlfilter

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/stretchr/testify/assert"
)

func TestLegsEmptyFilter(t *testing.T) {
	b := New(Postgres).Legs(portsrepo.LegFilter{})
	assert.Equal(t, "", b.SQL())
	assert.Empty(t, b.Args())
}

func TestLegsPostgresPlaceholders(t *testing.T) {
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.FixedZone("X", 3600))
	pos := domain.LegPosition{Date: asOf, Sequence: 7, LegID: "leg"}
	b := New(Postgres).Legs(portsrepo.LegFilter{
		AccountIDs:    []string{"a", "b"},
		Currency:      "EUR",
		AsOf:          &asOf,
		UpTo:          &pos,
		UpToInclusive: true,
	})

	assert.Equal(t,
		" WHERE l.account_id IN ($1, $2) AND l.currency_code = $3 AND t.date <= $4 AND (t.date, t.sequence, l.leg_id) <= ($5, $6, $7)",
		b.SQL())
	args := b.Args()
	assert.Len(t, args, 7)
	assert.Equal(t, asOf.UTC(), args[3])
	assert.Equal(t, int64(7), args[5])
}

func TestLegsCustomDialect(t *testing.T) {
	d := Dialect{
		Placeholder: func(int) string { return "?" },
		Time:        func(t time.Time) any { return t.UTC().Format(time.RFC3339) },
	}
	after := domain.LegPosition{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Sequence: 3, LegID: "x"}
	b := New(d).Legs(portsrepo.LegFilter{TransactionID: "tx", After: &after})

	assert.Equal(t, " WHERE l.transaction_id = ? AND (t.date, t.sequence, l.leg_id) > (?, ?, ?)", b.SQL())
	assert.Equal(t, []any{"tx", "2024-01-02T00:00:00Z", int64(3), "x"}, b.Args())
}

func TestLegsUpToTransactionIgnoresLegID(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	pos := domain.LegPosition{Date: day, Sequence: 9, LegID: "leg"}.Transaction()

	b := New(Postgres).Legs(portsrepo.LegFilter{AccountIDs: []string{"a"}, UpToTransaction: &pos})
	assert.Equal(t, " WHERE l.account_id IN ($1) AND (t.date, t.sequence) < ($2, $3)", b.SQL())
	assert.Equal(t, []any{"a", day, int64(9)}, b.Args())

	b = New(Postgres).Legs(portsrepo.LegFilter{UpToTransaction: &pos, UpToTransactionInclusive: true})
	assert.Equal(t, " WHERE (t.date, t.sequence) <= ($1, $2)", b.SQL())
}
