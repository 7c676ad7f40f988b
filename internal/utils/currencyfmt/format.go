// Package currencyfmt renders amounts using the precision registered for each currency.
package currencyfmt

import (
	"context"
	"sync"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

const fallbackPrecision int32 = 2

// CurrencyLookup resolves currency metadata.
type CurrencyLookup interface {
	GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)
}

// Formatter caches currency precisions looked up on first use.
type Formatter struct {
	lookup CurrencyLookup

	mu         sync.RWMutex
	precisions map[string]int32
}

// NewFormatter creates a Formatter. A nil lookup formats everything with two decimals.
func NewFormatter(lookup CurrencyLookup) *Formatter {
	return &Formatter{lookup: lookup, precisions: make(map[string]int32)}
}

// FormatWithCurrencyPrecision formats an amount with the correct precision for a given currency
// Example: amount 12.3456 with USD (precision 2) returns "12.35"
// Example: amount 12.3456 with JPY (precision 0) returns "12"
func FormatWithCurrencyPrecision(amount decimal.Decimal, currency domain.Currency) string {
	return amount.StringFixed(currency.Precision)
}

func (f *Formatter) precision(ctx context.Context, code string) int32 {
	f.mu.RLock()
	p, ok := f.precisions[code]
	f.mu.RUnlock()
	if ok {
		return p
	}
	p = fallbackPrecision
	if f.lookup != nil {
		currency, err := f.lookup.GetCurrencyByCode(ctx, code)
		if err != nil {
			// unknown currencies are not cached so a later registration is picked up
			return p
		}
		p = currency.Precision
	}
	f.mu.Lock()
	f.precisions[code] = p
	f.mu.Unlock()
	return p
}

// FormatMoney renders m rounded to its currency precision.
func (f *Formatter) FormatMoney(ctx context.Context, m domain.Money) string {
	return m.Amount.StringFixed(f.precision(ctx, m.Currency))
}

// FormatBalance renders every entry of b keyed by currency.
func (f *Formatter) FormatBalance(ctx context.Context, b domain.Balance) map[string]string {
	out := make(map[string]string)
	for _, m := range b.Monies() {
		out[m.Currency] = f.FormatMoney(ctx, m)
	}
	return out
}
