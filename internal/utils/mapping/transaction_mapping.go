package mapping

import (
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction. Legs are
// mapped separately.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: d.TransactionID,
		Sequence:      d.Sequence,
		Date:          d.Date.UTC(),
		Description:   d.Description,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		Sequence:      m.Sequence,
		Date:          m.Date.UTC(),
		Description:   m.Description,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLeg converts a domain Leg to a model Leg
func ToModelLeg(d domain.Leg) models.Leg {
	return models.Leg{
		LegID:         d.LegID,
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		Amount:        d.Amount.Amount,
		CurrencyCode:  d.Amount.Currency,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt.UTC(),
		Date:          d.Date.UTC(),
		Sequence:      d.Sequence,
	}
}

// ToDomainLeg converts a model Leg to a domain Leg
func ToDomainLeg(m models.Leg) domain.Leg {
	return domain.Leg{
		LegID:         m.LegID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Amount:        domain.Money{Amount: m.Amount, Currency: m.CurrencyCode},
		Description:   m.Description,
		CreatedAt:     m.CreatedAt.UTC(),
		Date:          m.Date.UTC(),
		Sequence:      m.Sequence,
	}
}

// ToDomainLegSlice converts a slice of model Legs to a slice of domain Legs
func ToDomainLegSlice(ms []models.Leg) []domain.Leg {
	ds := make([]domain.Leg, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLeg(m)
	}
	return ds
}

// ToDomainRunningTotal converts a model RunningTotal to a domain RunningTotal
func ToDomainRunningTotal(m models.RunningTotal) domain.RunningTotal {
	return domain.RunningTotal{
		AccountID: m.AccountID,
		Currency:  m.CurrencyCode,
		Balance:   m.Balance,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
