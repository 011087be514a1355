package backend

import (
	"context"
	"fmt"
	"io"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{logger: logger}
}

// CreateStores opens the ledger and budget stores of config.Type.
func (f *DefaultFactory) CreateStores(ctx context.Context, config Config) (*Stores, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStores(config)
	default:
		return f.createFileStores(config), nil
	}
}

func (f *DefaultFactory) createFileStores(config Config) *Stores {
	f.logger.Info("Initialized file backend",
		applog.FieldFile, config.TransactionsFile,
		"budgets_file", config.BudgetsFile)

	return &Stores{
		Ledger:  ledger.NewFileStore(config.TransactionsFile, f.logger),
		Budgets: budget.NewFileStore(config.BudgetsFile, f.logger),
	}
}

func (f *DefaultFactory) createSQLiteStores(config Config) (*Stores, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Stores{
		Ledger:  repo.Ledger(),
		Budgets: repo.Budgets(),
		Cleanup: repo.Close,
	}, nil
}

// CreateService wires the stores, the optional AMQP publisher and the
// clock into a LedgerService. A broker that cannot be reached only
// disables event publishing.
func (f *DefaultFactory) CreateService(ctx context.Context, config Config) (*services.LedgerService, error) {
	stores, err := f.CreateStores(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := services.Options{
		Clock:          core.SystemClock{Loc: config.Location},
		Logger:         f.logger,
		AlertThreshold: config.AlertThreshold,
	}
	if stores.Cleanup != nil {
		opts.Closers = []io.Closer{stores.Cleanup}
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err.Error())
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts.Publisher = client
		}
	}

	return services.NewLedgerService(stores.Ledger, stores.Budgets, opts), nil
}
