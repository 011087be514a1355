package backend

import (
	"context"
	"time"

	"fintrack/internal/services"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// Close lets a CleanupFunc be handed over as an io.Closer.
func (f CleanupFunc) Close() error {
	if f == nil {
		return nil
	}
	return f()
}

// Stores is the pair of stores a backend provides.
type Stores struct {
	Ledger  services.LedgerStore
	Budgets services.BudgetStore
	Cleanup CleanupFunc
}

// Factory creates stores and services based on configuration
type Factory interface {
	CreateStores(ctx context.Context, config Config) (*Stores, error)
	CreateService(ctx context.Context, config Config) (*services.LedgerService, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	TransactionsFile string
	BudgetsFile      string

	// SQLite specific
	SQLiteDBPath string

	// Event publishing, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Location       *time.Location
	AlertThreshold float64
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
