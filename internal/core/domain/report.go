package domain

import "time"

// BalanceOptions narrows a balance query.
type BalanceOptions struct {
	// AsOf includes only legs whose transaction date is on or before AsOf.
	AsOf *time.Time
	// FromDate includes only legs whose transaction date is on or after FromDate.
	FromDate *time.Time
	// Currency restricts the legs summed to one currency.
	Currency string
	// Raw skips the account type sign adjustment.
	Raw bool
}

// AccountNode is an account with its rolled up balance and its children.
type AccountNode struct {
	Account       Account        `json:"account"`
	SimpleBalance Balance        `json:"simpleBalance"`
	Balance       Balance        `json:"balance"`
	Children      []*AccountNode `json:"children"`
}

// AuditReport is the outcome of an integrity audit.
type AuditReport struct {
	CheckedAt time.Time `json:"checkedAt"`
	// EquationResidue is the raw sum over all root accounts; zero on a healthy ledger.
	EquationResidue        Balance                `json:"equationResidue"`
	UnbalancedTransactions []TransactionImbalance `json:"unbalancedTransactions"`
	RunningTotalMismatches []Mismatch             `json:"runningTotalMismatches"`
}

// Healthy reports whether the audit found nothing.
func (r AuditReport) Healthy() bool {
	return r.EquationResidue.IsZero() && len(r.UnbalancedTransactions) == 0 && len(r.RunningTotalMismatches) == 0
}
