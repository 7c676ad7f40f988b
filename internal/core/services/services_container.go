package services

import (
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, store portsrepo.Store) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(store)
	container.RunningTotal = NewRunningTotalService(store)
	container.AccountTree = NewAccountTreeService(store, WithDefaultCurrency(cfg.DefaultCurrency))
	container.Balance = NewBalanceService(store)
	container.Ledger = NewLedgerService(store, container.RunningTotal)
	container.Audit = NewAuditService(store, container.RunningTotal)

	return container
}
