package mapping

import (
	"strings"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:       d.AccountID,
		ParentAccountID: nullable(d.ParentAccountID),
		Name:            d.Name,
		Code:            d.Code,
		FullCode:        nullable(d.FullCode),
		AccountType:     string(d.AccountType),
		IsBankAccount:   d.IsBankAccount,
		Currencies:      strings.Join(d.Currencies, ","),
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	currencies := []string{}
	if m.Currencies != "" {
		currencies = strings.Split(m.Currencies, ",")
	}
	return domain.Account{
		AccountID:       m.AccountID,
		ParentAccountID: deref(m.ParentAccountID),
		Name:            m.Name,
		Code:            m.Code,
		FullCode:        deref(m.FullCode),
		AccountType:     domain.AccountType(m.AccountType),
		IsBankAccount:   m.IsBankAccount,
		Currencies:      currencies,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
