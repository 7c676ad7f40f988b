package services

// ServiceContainer holds instances of all the application services.
// It is the main entry point for handlers and background jobs.
type ServiceContainer struct {
	Currency     CurrencySvcFacade
	AccountTree  AccountTreeSvcFacade
	Balance      BalanceSvcFacade
	Ledger       LedgerSvcFacade
	RunningTotal RunningTotalSvcFacade
	Audit        AuditSvcFacade
}
