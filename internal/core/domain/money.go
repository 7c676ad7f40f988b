package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount tagged with a currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney builds a Money from an exact numeric value.
// Binary floating point values are rejected with ErrNonMoneyAmount.
func NewMoney(amount any, currency string) (Money, error) {
	d, err := ToDecimal(amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: d, Currency: NormalizeCurrency(currency)}, nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(amount any, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ToDecimal converts an exact numeric value into a decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, fmt.Errorf("%w: nil decimal", apperrors.ErrNonMoneyAmount)
		}
		return *x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", apperrors.ErrNonMoneyAmount, x)
		}
		return d, nil
	case float32, float64:
		return decimal.Zero, fmt.Errorf("%w: floating point value %v", apperrors.ErrNonMoneyAmount, x)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", apperrors.ErrNonMoneyAmount, v)
	}
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Mul scales the amount by an exact factor.
func (m Money) Mul(factor any) (Money, error) {
	d, err := ToDecimal(factor)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Mul(d), Currency: m.Currency}, nil
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}
