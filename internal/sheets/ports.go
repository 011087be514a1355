package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter mirrors ledger records to an external sheet.
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionExporter writes many records in one call.
	TransactionExporter interface {
		AppendTransactions(ctx context.Context, txs []core.Transaction) (int, error)
	}
)
