package domain

// Currency is a currency the ledger accepts on accounts.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // ISO 4217, e.g. "EUR"
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Precision    int32  `json:"precision"` // display precision only; stored amounts are exact
	AuditFields
}
