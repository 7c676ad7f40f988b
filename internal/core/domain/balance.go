package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// CurrencyAmount is a single currency entry of a Balance.
type CurrencyAmount struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// Balance is a multi-currency amount. Entries are kept sorted by currency code and each
// currency appears at most once. Once a currency is present it stays present, even at zero.
// Balance is a value type: every operation returns a new Balance.
type Balance struct {
	entries []CurrencyAmount
}

// NewBalance builds a balance from the given amounts, merging repeated currencies.
func NewBalance(amounts ...Money) Balance {
	var b Balance
	for _, m := range amounts {
		b = b.AddMoney(m)
	}
	return b
}

// NewBalanceFromMap converts a currency keyed map to a sorted Balance.
func NewBalanceFromMap(m map[string]decimal.Decimal) Balance {
	entries := make([]CurrencyAmount, 0, len(m))
	for currency, amount := range m {
		entries = append(entries, CurrencyAmount{Currency: currency, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Currency < entries[j].Currency
	})
	return Balance{entries: entries}
}

// ZeroBalance returns a balance holding every listed currency at zero.
func ZeroBalance(currencies ...string) Balance {
	m := make(map[string]decimal.Decimal, len(currencies))
	for _, c := range currencies {
		m[NormalizeCurrency(c)] = decimal.Zero
	}
	return NewBalanceFromMap(m)
}

func (b Balance) index(currency string) (int, bool) {
	i := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].Currency >= currency
	})
	return i, i < len(b.entries) && b.entries[i].Currency == currency
}

// Get returns the amount for a currency, zero if absent.
func (b Balance) Get(currency string) decimal.Decimal {
	if i, ok := b.index(currency); ok {
		return b.entries[i].Amount
	}
	return decimal.Zero
}

// Has reports whether currency has an entry, zero or not.
func (b Balance) Has(currency string) bool {
	_, ok := b.index(currency)
	return ok
}

// AddMoney adds a single amount.
func (b Balance) AddMoney(m Money) Balance {
	out := b.clone()
	i, ok := out.index(m.Currency)
	if ok {
		out.entries[i].Amount = out.entries[i].Amount.Add(m.Amount)
		return out
	}
	out.entries = append(out.entries, CurrencyAmount{})
	copy(out.entries[i+1:], out.entries[i:])
	out.entries[i] = CurrencyAmount{Currency: m.Currency, Amount: m.Amount}
	return out
}

// Add merges other into b per currency.
func (b Balance) Add(other Balance) Balance {
	out := b.clone()
	for _, e := range other.entries {
		out = out.AddMoney(Money{Amount: e.Amount, Currency: e.Currency})
	}
	return out
}

func (b Balance) Sub(other Balance) Balance {
	return b.Add(other.Neg())
}

func (b Balance) Neg() Balance {
	out := b.clone()
	for i := range out.entries {
		out.entries[i].Amount = out.entries[i].Amount.Neg()
	}
	return out
}

// Scale multiplies every entry by an exact factor. Floats are rejected.
func (b Balance) Scale(factor any) (Balance, error) {
	d, err := ToDecimal(factor)
	if err != nil {
		return Balance{}, err
	}
	return b.MulDecimal(d), nil
}

// MulDecimal multiplies every entry by d.
func (b Balance) MulDecimal(d decimal.Decimal) Balance {
	out := b.clone()
	for i := range out.entries {
		out.entries[i].Amount = out.entries[i].Amount.Mul(d)
	}
	return out
}

// IsZero is true when the balance is empty or every entry is zero.
func (b Balance) IsZero() bool {
	for _, e := range b.entries {
		if !e.Amount.IsZero() {
			return false
		}
	}
	return true
}

// Equal compares two balances treating absent currencies as zero.
func (b Balance) Equal(other Balance) bool {
	return b.Sub(other).IsZero()
}

// Compare orders two balances that hold the same currency set. It returns
// -1, 0 or 1 when every currency agrees on the direction.
func (b Balance) Compare(other Balance) (int, error) {
	if !sameCurrencies(b.Currencies(), other.Currencies()) {
		return 0, &apperrors.BalanceComparisonError{
			Reason: fmt.Sprintf("currency sets differ: [%s] vs [%s]",
				strings.Join(b.Currencies(), ","), strings.Join(other.Currencies(), ",")),
		}
	}
	result := 0
	for i, e := range b.entries {
		c := e.Amount.Cmp(other.entries[i].Amount)
		if c == 0 {
			continue
		}
		if result != 0 && c != result {
			return 0, &apperrors.BalanceComparisonError{Reason: "currencies disagree on ordering"}
		}
		result = c
	}
	return result, nil
}

// CompareMoney compares the entry for m.Currency against m. The currency must be present.
func (b Balance) CompareMoney(m Money) (int, error) {
	i, ok := b.index(m.Currency)
	if !ok {
		return 0, &apperrors.BalanceComparisonError{Reason: "currency " + m.Currency + " not present in balance"}
	}
	return b.entries[i].Amount.Cmp(m.Amount), nil
}

// Currencies returns the sorted currency codes present.
func (b Balance) Currencies() []string {
	out := make([]string, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Currency
	}
	return out
}

// Entries returns a copy of the sorted entries.
func (b Balance) Entries() []CurrencyAmount {
	return b.clone().entries
}

// Monies returns the entries as Money values.
func (b Balance) Monies() []Money {
	out := make([]Money, len(b.entries))
	for i, e := range b.entries {
		out[i] = Money{Amount: e.Amount, Currency: e.Currency}
	}
	return out
}

// ToMap converts the balance to a currency keyed map.
func (b Balance) ToMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(b.entries))
	for _, e := range b.entries {
		m[e.Currency] = e.Amount
	}
	return m
}

func (b Balance) String() string {
	if len(b.entries) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(b.entries))
	for i, e := range b.entries {
		parts[i] = e.Amount.String() + " " + e.Currency
	}
	return strings.Join(parts, ", ")
}

func (b Balance) MarshalJSON() ([]byte, error) {
	entries := b.entries
	if entries == nil {
		entries = []CurrencyAmount{}
	}
	return json.Marshal(entries)
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var entries []CurrencyAmount
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	var out Balance
	for _, e := range entries {
		out = out.AddMoney(Money{Amount: e.Amount, Currency: NormalizeCurrency(e.Currency)})
	}
	*b = out
	return nil
}

func (b Balance) clone() Balance {
	if b.entries == nil {
		return Balance{}
	}
	entries := make([]CurrencyAmount, len(b.entries))
	copy(entries, b.entries)
	return Balance{entries: entries}
}

func sameCurrencies(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
