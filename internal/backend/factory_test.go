package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/analytics"
	"fintrack/internal/config"
	"fintrack/internal/core"
)

func TestBackendType(t *testing.T) {
	assert.True(t, FileBackend.IsValid())
	assert.True(t, SQLiteBackend.IsValid())
	assert.False(t, BackendType("memory").IsValid())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:      "file",
		TransactionsFile: "t.txt",
		BudgetsFile:      "b.txt",
		Timezone:         "UTC",
		AlertThreshold:   75,
	})
	require.NoError(t, err)
	assert.Equal(t, FileBackend, cfg.Type)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 75.0, cfg.AlertThreshold)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	_, err = FromAppConfig(&config.Config{DataBackend: "file", Timezone: "Nowhere/Land"})
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: FileBackend, TransactionsFile: "t.txt"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "memory"}.Validate())
	assert.NoError(t, Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}.Validate())
}

func TestCreateService(t *testing.T) {
	dir := t.TempDir()
	configs := map[string]Config{
		"file": {
			Type:             FileBackend,
			TransactionsFile: filepath.Join(dir, "transactions.txt"),
			BudgetsFile:      filepath.Join(dir, "budgets.txt"),
			Location:         time.UTC,
		},
		"sqlite": {
			Type:         SQLiteBackend,
			SQLiteDBPath: filepath.Join(dir, "db", "fintrack.db"),
			Location:     time.UTC,
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, err := NewFactory(nil).CreateService(ctx, cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, svc.Close()) }()

			_, err = svc.AddTransaction(ctx, core.Entry{Kind: core.Expense, Amount: "12.50", Category: "Food"})
			require.NoError(t, err)
			_, err = svc.SetBudget(ctx, "Food", "100")
			require.NoError(t, err)

			txs, err := svc.List(ctx, analytics.FilterAll)
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.Equal(t, int64(1250), txs[0].Amount.Minor)

			report, err := svc.BudgetReport(ctx, svc.CurrentPeriod())
			require.NoError(t, err)
			assert.True(t, report.HasBudgets())
		})
	}
}

func TestCreateStoresRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateStores(context.Background(), Config{Type: "memory"})
	assert.Error(t, err)
}
