// Package sqlfilter renders repository leg filters as SQL predicates over the
// legs l JOIN transactions t relation shared by the SQL stores.
package sqlfilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
)

// Dialect adapts placeholders and time values to a driver.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Time converts a timestamp into the stored representation.
	Time func(t time.Time) any
}

// Postgres uses $n placeholders and native timestamps.
var Postgres = Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Time:        func(t time.Time) any { return t.UTC() },
}

// Builder accumulates predicates and their arguments.
type Builder struct {
	dialect Dialect
	conds   []string
	args    []any
}

func New(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Arg appends a bind value and returns its placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Where adds a raw predicate.
func (b *Builder) Where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *Builder) position(p domain.LegPosition) string {
	return fmt.Sprintf("(%s, %s, %s)", b.Arg(b.dialect.Time(p.Date)), b.Arg(p.Sequence), b.Arg(p.LegID))
}

// Legs adds the predicates of f. Limit is not rendered.
func (b *Builder) Legs(f portsrepo.LegFilter) *Builder {
	if len(f.AccountIDs) > 0 {
		ph := make([]string, len(f.AccountIDs))
		for i, id := range f.AccountIDs {
			ph[i] = b.Arg(id)
		}
		b.Where("l.account_id IN (" + strings.Join(ph, ", ") + ")")
	}
	if f.TransactionID != "" {
		b.Where("l.transaction_id = " + b.Arg(f.TransactionID))
	}
	if f.Currency != "" {
		b.Where("l.currency_code = " + b.Arg(f.Currency))
	}
	if f.FromDate != nil {
		b.Where("t.date >= " + b.Arg(b.dialect.Time(*f.FromDate)))
	}
	if f.AsOf != nil {
		b.Where("t.date <= " + b.Arg(b.dialect.Time(*f.AsOf)))
	}
	if f.UpTo != nil {
		op := "<"
		if f.UpToInclusive {
			op = "<="
		}
		b.Where("(t.date, t.sequence, l.leg_id) " + op + " " + b.position(*f.UpTo))
	}
	if f.UpToTransaction != nil {
		op := "<"
		if f.UpToTransactionInclusive {
			op = "<="
		}
		p := *f.UpToTransaction
		b.Where(fmt.Sprintf("(t.date, t.sequence) %s (%s, %s)", op, b.Arg(b.dialect.Time(p.Date)), b.Arg(p.Sequence)))
	}
	if f.After != nil {
		b.Where("(t.date, t.sequence, l.leg_id) > " + b.position(*f.After))
	}
	return b
}

// SQL returns the WHERE clause, empty when nothing filters.
func (b *Builder) SQL() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func (b *Builder) Args() []any {
	return b.args
}
