package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLedgerTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger := newRepo(t).Ledger()

	empty, err := ledger.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := core.Transaction{Timestamp: 1700000000.5, Kind: core.Expense, Category: "Food", Description: "lunch", Amount: core.Money{Minor: 5000}}
	require.NoError(t, ledger.Append(ctx, first))

	records := []core.Transaction{
		{Timestamp: 1704067200, Kind: core.Income, Category: "Salary", Description: "jan", Amount: core.Money{Minor: 9000000}},
		{Timestamp: 1704067100, Kind: core.Expense, Category: "Bills", Description: "", Amount: core.Money{Minor: 1}},
	}
	require.NoError(t, ledger.AppendAll(ctx, records))

	got, err := ledger.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, append([]core.Transaction{first}, records...), got)

	require.NoError(t, ledger.RewriteAll(ctx, records))
	got, err = ledger.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestLedgerTableRejectsInvalidBatch(t *testing.T) {
	ctx := context.Background()
	ledger := newRepo(t).Ledger()

	err := ledger.AppendAll(ctx, []core.Transaction{
		{Timestamp: 1, Kind: core.Expense, Category: "Food", Amount: core.Money{Minor: 10}},
		{Timestamp: 2, Kind: core.Expense, Category: "Food", Amount: core.Money{Minor: 0}},
	})
	assert.ErrorIs(t, err, core.ErrMalformedRecord)

	got, err := ledger.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBudgetTableUpsert(t *testing.T) {
	ctx := context.Background()
	budgets := newRepo(t).Budgets()
	jan := core.NewPeriod(2024, time.January)
	feb := core.NewPeriod(2024, time.February)

	require.NoError(t, budgets.SetCeiling(ctx, jan, "Food", core.Money{Minor: 10000}))
	require.NoError(t, budgets.SetCeiling(ctx, jan, "Food", core.Money{Minor: 20000}))
	require.NoError(t, budgets.SetCeiling(ctx, feb, "Food", core.Money{Minor: 500}))

	got, err := budgets.LoadForPeriod(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.Money{"Food": {Minor: 20000}}, got)

	all, err := budgets.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, budgets.SetCeiling(ctx, jan, "Food", core.Money{}), core.ErrValidation)
}

func TestBudgetTableTrimsCategory(t *testing.T) {
	ctx := context.Background()
	budgets := newRepo(t).Budgets()
	jan := core.NewPeriod(2024, time.January)

	require.NoError(t, budgets.SetCeiling(ctx, jan, " Food ", core.Money{Minor: 100}))
	require.NoError(t, budgets.SetCeiling(ctx, jan, "Food", core.Money{Minor: 200}))

	got, err := budgets.LoadForPeriod(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.Money{"Food": {Minor: 200}}, got)
}

func TestBudgetTableRewriteAll(t *testing.T) {
	ctx := context.Background()
	budgets := newRepo(t).Budgets()
	jan := core.NewPeriod(2024, time.January)

	require.NoError(t, budgets.SetCeiling(ctx, jan, "Old", core.Money{Minor: 1}))
	require.NoError(t, budgets.RewriteAll(ctx, []core.Budget{
		{Period: jan, Category: "Food", Ceiling: core.Money{Minor: 100}},
		{Period: jan, Category: "Food", Ceiling: core.Money{Minor: 300}},
	}))

	got, err := budgets.LoadForPeriod(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.Money{"Food": {Minor: 300}}, got)
}
