package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/transfer"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var march = core.NewPeriod(2024, time.March)

func expense(category string, minor int64, day int) core.Transaction {
	ts := core.Timestamp(time.Date(2024, time.March, day, 9, 0, 0, 0, time.UTC))
	return core.Transaction{Timestamp: ts, Kind: core.Expense, Category: category, Amount: core.Money{Minor: minor}}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		util float64
		want string
	}{
		{0, "[░░░░░░░░░░]"},
		{35, "[███░░░░░░░]"},
		{70, "[███████░░░]"},
		{100, "[██████████]"},
		{150, "[██████████]"},
		{-5, "[░░░░░░░░░░]"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.util), func(t *testing.T) {
			assert.Equal(t, tt.want, ProgressBar(tt.util))
		})
	}
}

func TestTransactions(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, time.UTC)

	tx := expense("Food", 1250, 3)
	tx.Description = "lunch"
	s.Transactions("History", []core.Transaction{tx})

	out := buf.String()
	for _, want := range []string{"History", "Date", "Amount", "2024-03-03 09:00", "Expense", "Food", "lunch", "12.50"} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	s.Transactions("History", nil)
	assert.Equal(t, "No transactions to show.\n", buf.String())
}

func TestBudgetReport(t *testing.T) {
	categories := core.DefaultTaxonomy.For(core.Expense)

	t.Run("without budgets", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, time.UTC).BudgetReport(analytics.BuildBudgetReport(march, nil, nil, categories))
		assert.Contains(t, buf.String(), "No budgets set for 2024-03")
	})

	t.Run("over budget", func(t *testing.T) {
		var buf bytes.Buffer
		r := analytics.BuildBudgetReport(march,
			[]core.Transaction{expense("Food", 15000, 2), expense("Bills", 1000, 4)},
			map[string]core.Money{"Food": {Minor: 10000}, "Bills": {Minor: 10000}},
			categories)
		New(&buf, time.UTC).BudgetReport(r)

		out := buf.String()
		assert.Contains(t, out, "Budget vs. Spending (March 2024)")
		assert.Contains(t, out, "[██████████] 150.0%")
		assert.Contains(t, out, "[█░░░░░░░░░] 10.0%")
		assert.Contains(t, out, "Total Budget: 200.00")
		assert.Contains(t, out, "Overall Utilization: 80.0%")
		assert.Contains(t, out, "- Food\n")
		assert.NotContains(t, out, "- Bills\n")
		assert.Contains(t, out, "Consider adjusting your spending")
	})
}

func TestSpending(t *testing.T) {
	b := analytics.CategoryBreakdown(
		[]core.Transaction{expense("Food", 5000, 1), expense("Transport", 3000, 2), expense("Bills", 2000, 3)},
		core.DefaultTaxonomy.For(core.Expense))

	var buf bytes.Buffer
	New(&buf, time.UTC).Spending(services.SpendingAnalysis{
		Period:    march,
		Breakdown: b,
		Top:       b.Top(3),
		BurnRate:  core.Money{Minor: 667},
	})

	out := buf.String()
	assert.Contains(t, out, "1. Food: 50.00")
	assert.Contains(t, out, "2. Transport: 30.00")
	assert.Contains(t, out, "3. Bills: 20.00")
	assert.Contains(t, out, "Average Daily Expense: 6.67")
	assert.Contains(t, out, fmt.Sprintf("%-15s %s 50.0%%", "Food", strings.Repeat("█", 25)))
	assert.NotContains(t, out, "Health")

	buf.Reset()
	empty := analytics.CategoryBreakdown(nil, core.DefaultTaxonomy.For(core.Expense))
	New(&buf, time.UTC).Spending(services.SpendingAnalysis{Period: march, Breakdown: empty})
	assert.Contains(t, buf.String(), "No expenses recorded for March 2024.")
}

func TestSavings(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, time.UTC).Savings(march, analytics.Savings{
		Totals: analytics.Totals{
			Income:  core.Money{Minor: 100000},
			Expense: core.Money{Minor: 75000},
			Balance: core.Money{Minor: 25000},
		},
		Rate: 25,
	})
	assert.Contains(t, buf.String(), "Monthly Savings: 250.00")
	assert.Contains(t, buf.String(), "Savings Rate: 25.00%")
}

func TestDailyCheck(t *testing.T) {
	date := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	t.Run("without budgets", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, time.UTC).DailyCheck(analytics.DailyCheck{Date: date, Tip: analytics.TipNoSpending})
		out := buf.String()
		assert.Contains(t, out, "No budget set for this month.")
		assert.Contains(t, out, "Set budgets to get spending alerts.")
		assert.Contains(t, out, analytics.TipNoSpending.String())
	})

	t.Run("with alerts", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, time.UTC).DailyCheck(analytics.DailyCheck{
			Date:        date,
			TodaySpent:  core.Money{Minor: 4000},
			HasBudgets:  true,
			DailyBudget: core.Money{Minor: 3226},
			Remaining:   core.Money{Minor: -774},
			Alerts:      []analytics.Alert{{Category: "Food", Utilization: 85}},
			Tip:         analytics.TipHighSpending,
		})
		out := buf.String()
		assert.Contains(t, out, "Daily Budget: 32.26")
		assert.Contains(t, out, "Remaining: -7.74")
		assert.Contains(t, out, "'Food' category is at 85.0% of its budget.")
	})
}

func TestImportAndRestoreSummaries(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, time.UTC)

	s.ImportResult("in.csv", transfer.ImportResult{Imported: 2, Skipped: 3, Malformed: 1})
	s.RestoreResult("backup.json", transfer.RestoreResult{Transactions: 4, Budgets: 2})

	assert.Equal(t,
		"Imported 2 transactions from in.csv.\n"+
			"Skipped 3 records (2 duplicates, 1 invalid).\n"+
			"Restored 4 transactions and 2 budgets from backup.json.\n",
		buf.String())
}

func TestError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{core.ErrInvalidAmount, "Invalid input: "},
		{core.NotFound("import", os.ErrNotExist), "Not found: "},
		{core.IOFailure("append", os.ErrPermission), "Storage error: "},
		{fmt.Errorf("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		New(&buf, time.UTC).Error(tt.err)
		assert.True(t, strings.HasPrefix(buf.String(), tt.want), buf.String())
	}
}
