package models

// Account is a row of the accounts table. Currencies is the comma separated list
// aggregated from account_currencies.
type Account struct {
	AccountID       string  `db:"account_id"`
	ParentAccountID *string `db:"parent_account_id"` // NULL for roots
	Name            string  `db:"name"`
	Code            string  `db:"code"`
	FullCode        *string `db:"full_code"` // NULL when any code up the chain is empty
	AccountType     string  `db:"account_type"`
	IsBankAccount   bool    `db:"is_bank_account"`
	Currencies      string  `db:"currencies"`
	AuditFields
}
