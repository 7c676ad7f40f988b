package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// LedgerReaderSvc defines read operations for transactions.
type LedgerReaderSvc interface {
	// GetTransaction returns the transaction with its legs.
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

// LedgerWriterSvc records and edits transactions. Every operation is one atomic unit:
// legs, transaction and running totals commit together or not at all.
type LedgerWriterSvc interface {
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// Transfer records a two-leg transaction whose direction depends on the account types.
	Transfer(ctx context.Context, req dto.TransferRequest) (*domain.Transaction, error)

	// UpdateTransactionDetails edits date and description only.
	UpdateTransactionDetails(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error)

	// UpdateLegAmounts rewrites leg amounts; the transaction must still balance.
	UpdateLegAmounts(ctx context.Context, transactionID string, req dto.UpdateLegAmountsRequest) (*domain.Transaction, error)

	DeleteTransaction(ctx context.Context, transactionID string) error

	// ReverseTransaction records a new transaction with every leg negated.
	ReverseTransaction(ctx context.Context, transactionID string, req dto.ReverseTransactionRequest) (*domain.Transaction, error)
}

// LedgerSvcFacade combines all transaction operations.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
