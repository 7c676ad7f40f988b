package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

const defaultCurrencyPrecision int32 = 2

// knownCurrencies supplies display metadata for seeded currencies.
var knownCurrencies = map[string]domain.Currency{
	"EUR": {CurrencyCode: "EUR", Symbol: "€", Name: "Euro", Precision: 2},
	"USD": {CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2},
	"GBP": {CurrencyCode: "GBP", Symbol: "£", Name: "Pound Sterling", Precision: 2},
	"CHF": {CurrencyCode: "CHF", Symbol: "CHF", Name: "Swiss Franc", Precision: 2},
	"JPY": {CurrencyCode: "JPY", Symbol: "¥", Name: "Yen", Precision: 0},
	"INR": {CurrencyCode: "INR", Symbol: "₹", Name: "Indian Rupee", Precision: 2},
	"CAD": {CurrencyCode: "CAD", Symbol: "$", Name: "Canadian Dollar", Precision: 2},
	"AUD": {CurrencyCode: "AUD", Symbol: "$", Name: "Australian Dollar", Precision: 2},
}

type currencyService struct {
	BaseService
	store portsrepo.Store
}

// NewCurrencyService creates the currency registry backed by the store.
func NewCurrencyService(store portsrepo.Store) portssvc.CurrencySvcFacade {
	return &currencyService{store: store}
}

var _ portssvc.CurrencySvcFacade = (*currencyService)(nil)

func (s *currencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest) (*domain.Currency, error) {
	now := s.Now()
	actor := s.Actor(ctx)
	currency := domain.Currency{
		CurrencyCode: domain.NormalizeCurrency(req.CurrencyCode),
		Symbol:       req.Symbol,
		Name:         req.Name,
		Precision:    defaultCurrencyPrecision,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	if req.Precision != nil {
		currency.Precision = *req.Precision
	}
	if len(currency.CurrencyCode) != 3 {
		return nil, fmt.Errorf("%w: currency code %q must have three letters", apperrors.ErrValidation, req.CurrencyCode)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		return repo.SaveCurrency(ctx, currency)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to create currency", slog.String("currency", currency.CurrencyCode))
		return nil, fmt.Errorf("failed to create currency %s: %w", currency.CurrencyCode, err)
	}
	s.LogInfo(ctx, "Currency created", slog.String("currency", currency.CurrencyCode))
	return &currency, nil
}

func (s *currencyService) GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	return s.store.FindCurrencyByCode(ctx, domain.NormalizeCurrency(currencyCode))
}

func (s *currencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	currencies, err := s.store.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	if currencies == nil {
		return []domain.Currency{}, nil
	}
	return currencies, nil
}

func (s *currencyService) EnsureCurrencies(ctx context.Context, codes []string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		now := s.Now()
		for _, code := range codes {
			code = domain.NormalizeCurrency(code)
			if code == "" {
				continue
			}
			_, err := repo.FindCurrencyByCode(ctx, code)
			if err == nil {
				continue
			}
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			currency, ok := knownCurrencies[code]
			if !ok {
				currency = domain.Currency{CurrencyCode: code, Symbol: code, Name: code, Precision: defaultCurrencyPrecision}
			}
			currency.AuditFields = domain.AuditFields{CreatedAt: now, LastUpdatedAt: now}
			if err := repo.SaveCurrency(ctx, currency); err != nil {
				return fmt.Errorf("failed to seed currency %s: %w", code, err)
			}
			s.LogInfo(ctx, "Seeded currency", slog.String("currency", code))
		}
		return nil
	})
}

// validateCurrencies normalizes codes, drops duplicates, checks each one is registered and
// returns them sorted.
func validateCurrencies(ctx context.Context, r portsrepo.CurrencyReader, codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = domain.NormalizeCurrency(code)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		if _, err := r.FindCurrencyByCode(ctx, code); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: %q is not a registered currency", apperrors.ErrUnsupportedCurrency, code)
			}
			return nil, err
		}
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}
