package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

func (st *state) FindTransactionByID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	txn, ok := st.transactions[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction " + transactionID)
	}
	return &txn, nil
}

func (st *state) ListUnbalancedTransactions(_ context.Context) ([]domain.TransactionImbalance, error) {
	byTxn := make(map[string][]domain.Leg)
	for _, leg := range st.legs {
		byTxn[leg.TransactionID] = append(byTxn[leg.TransactionID], leg)
	}
	out := []domain.TransactionImbalance{}
	for id, legs := range byTxn {
		if residue := accounting.Residue(accounting.SumByCurrency(legs)); residue != nil {
			out = append(out, domain.TransactionImbalance{TransactionID: id, Residue: domain.NewBalanceFromMap(residue)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionID < out[j].TransactionID })
	return out, nil
}

func (tx *txState) checkTransactionBalanced(transactionID string) error {
	var legs []domain.Leg
	for _, leg := range tx.legs {
		if leg.TransactionID == transactionID {
			legs = append(legs, leg)
		}
	}
	return accounting.ValidateZeroSum(transactionID, legs)
}

func (tx *txState) SaveTransaction(_ context.Context, txn *domain.Transaction) error {
	if _, exists := tx.transactions[txn.TransactionID]; exists {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, txn.TransactionID)
	}
	txn.Sequence = tx.store.nextSequence()
	stored := *txn
	stored.Legs = nil
	tx.transactions[txn.TransactionID] = stored
	tx.touch(txn.TransactionID)
	return nil
}

func (tx *txState) UpdateTransactionDetails(_ context.Context, transactionID string, date time.Time, description string, updatedBy string, now time.Time) error {
	txn, ok := tx.transactions[transactionID]
	if !ok {
		return apperrors.NewNotFoundError("transaction " + transactionID)
	}
	txn.Date = date
	txn.Description = description
	txn.LastUpdatedAt = now
	txn.LastUpdatedBy = updatedBy
	tx.transactions[transactionID] = txn
	return nil
}

func (tx *txState) DeleteTransaction(_ context.Context, transactionID string) error {
	if _, ok := tx.transactions[transactionID]; !ok {
		return apperrors.NewNotFoundError("transaction " + transactionID)
	}
	for _, leg := range tx.legs {
		if leg.TransactionID == transactionID {
			return fmt.Errorf("%w: transaction %s still has legs", apperrors.ErrConflict, transactionID)
		}
	}
	delete(tx.transactions, transactionID)
	return nil
}

// withPosition copies date and sequence from the owning transaction.
func (st *state) withPosition(leg domain.Leg) domain.Leg {
	if txn, ok := st.transactions[leg.TransactionID]; ok {
		leg.Date = txn.Date
		leg.Sequence = txn.Sequence
	}
	return leg
}

func (st *state) FindLegByID(_ context.Context, legID string) (*domain.Leg, error) {
	leg, ok := st.legs[legID]
	if !ok {
		return nil, apperrors.NewNotFoundError("leg " + legID)
	}
	out := st.withPosition(leg)
	return &out, nil
}

func matches(leg domain.Leg, f portsrepo.LegFilter, accounts map[string]struct{}) bool {
	if accounts != nil {
		if _, ok := accounts[leg.AccountID]; !ok {
			return false
		}
	}
	if f.TransactionID != "" && leg.TransactionID != f.TransactionID {
		return false
	}
	if f.Currency != "" && leg.Amount.Currency != f.Currency {
		return false
	}
	if f.FromDate != nil && leg.Date.Before(*f.FromDate) {
		return false
	}
	if f.AsOf != nil && leg.Date.After(*f.AsOf) {
		return false
	}
	if f.UpTo != nil {
		c := leg.Position().Compare(*f.UpTo)
		if c > 0 || (c == 0 && !f.UpToInclusive) {
			return false
		}
	}
	if f.UpToTransaction != nil {
		c := leg.Position().Transaction().Compare(*f.UpToTransaction)
		if c > 0 || (c == 0 && !f.UpToTransactionInclusive) {
			return false
		}
	}
	if f.After != nil && leg.Position().Compare(*f.After) <= 0 {
		return false
	}
	return true
}

func (st *state) selectLegs(f portsrepo.LegFilter) []domain.Leg {
	var accounts map[string]struct{}
	if len(f.AccountIDs) > 0 {
		accounts = make(map[string]struct{}, len(f.AccountIDs))
		for _, id := range f.AccountIDs {
			accounts[id] = struct{}{}
		}
	}
	out := []domain.Leg{}
	for _, leg := range st.legs {
		leg = st.withPosition(leg)
		if matches(leg, f, accounts) {
			out = append(out, leg)
		}
	}
	return out
}

func (st *state) ListLegs(_ context.Context, filter portsrepo.LegFilter) ([]domain.Leg, error) {
	legs := st.selectLegs(filter)
	sort.Slice(legs, func(i, j int) bool { return legs[i].Position().Less(legs[j].Position()) })
	if filter.Limit > 0 && len(legs) > filter.Limit {
		legs = legs[:filter.Limit]
	}
	return legs, nil
}

func (st *state) SumLegs(_ context.Context, filter portsrepo.LegFilter) (map[string]decimal.Decimal, error) {
	return accounting.SumByCurrency(st.selectLegs(filter)), nil
}

func (st *state) CountLegs(_ context.Context, filter portsrepo.LegFilter) (int, error) {
	return len(st.selectLegs(filter)), nil
}

func (tx *txState) SaveLegs(_ context.Context, legs []domain.Leg) error {
	for _, leg := range legs {
		if _, exists := tx.legs[leg.LegID]; exists {
			return fmt.Errorf("%w: leg %s", apperrors.ErrDuplicate, leg.LegID)
		}
		if _, ok := tx.transactions[leg.TransactionID]; !ok {
			return apperrors.NewNotFoundError("transaction " + leg.TransactionID)
		}
		acc, ok := tx.accounts[leg.AccountID]
		if !ok {
			return apperrors.NewNotFoundError("account " + leg.AccountID)
		}
		if !acc.SupportsCurrency(leg.Amount.Currency) {
			return fmt.Errorf("%w: %s on account %s", apperrors.ErrUnsupportedCurrency, leg.Amount.Currency, leg.AccountID)
		}
		if leg.Amount.IsZero() {
			return fmt.Errorf("%w: leg %s", apperrors.ErrZeroAmount, leg.LegID)
		}
		leg.Date = time.Time{}
		leg.Sequence = 0
		tx.legs[leg.LegID] = leg
		tx.touch(leg.TransactionID)
	}
	return nil
}

func (tx *txState) UpdateLegAmount(_ context.Context, legID string, amount decimal.Decimal) error {
	leg, ok := tx.legs[legID]
	if !ok {
		return apperrors.NewNotFoundError("leg " + legID)
	}
	if amount.IsZero() {
		return fmt.Errorf("%w: leg %s", apperrors.ErrZeroAmount, legID)
	}
	leg.Amount = domain.Money{Amount: amount, Currency: leg.Amount.Currency}
	tx.legs[legID] = leg
	tx.touch(leg.TransactionID)
	return nil
}

func (tx *txState) DeleteLeg(_ context.Context, legID string) error {
	leg, ok := tx.legs[legID]
	if !ok {
		return apperrors.NewNotFoundError("leg " + legID)
	}
	delete(tx.legs, legID)
	tx.touch(leg.TransactionID)
	return nil
}
