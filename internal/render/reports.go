package render

import (
	"github.com/fatih/color"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/transfer"
)

func (s *Sink) Balance(period core.Period, t analytics.Totals) {
	s.Heading("Balance " + period.Label())
	s.Line("Income:  %s", successColor.Sprint(t.Income.String()))
	s.Line("Expense: %s", errorColor.Sprint(t.Expense.String()))
	s.Line("Balance: %s", signColor(t.Balance).Sprint(t.Balance.String()))
}

// Spending prints the breakdown table, the top three categories, the
// burn rate and the text distribution chart.
func (s *Sink) Spending(a services.SpendingAnalysis) {
	s.Heading("Spending Analysis")
	if a.Breakdown.Total.Minor == 0 {
		s.Warn("No expenses recorded for %s.", a.Period.Label())
		return
	}
	s.Breakdown("Spending Breakdown for "+a.Period.Label(), "Category", a.Breakdown)

	s.Heading("Top 3 Spending Categories")
	for i, row := range a.Top {
		s.Line("%d. %s: %s", i+1, row.Category, errorColor.Sprint(row.Amount.String()))
	}

	s.Heading("Burn Rate")
	s.Line("Average Daily Expense: %s", errorColor.Sprint(a.BurnRate.String()))

	s.Distribution(a.Breakdown)
}

// Distribution draws one bar per non-zero category.
func (s *Sink) Distribution(b analytics.Breakdown) {
	s.Heading("Spending Distribution")
	for _, row := range b.NonZero() {
		s.Line("%-15s %s %.1f%%", row.Category, analytics.DistributionBar(row.Percent, "█"), row.Percent)
	}
}

func (s *Sink) Income(a services.IncomeAnalysis) {
	s.Heading("Income Analysis")
	if a.Breakdown.Total.Minor == 0 {
		s.Warn("No income recorded for %s.", a.Period.Label())
		return
	}
	s.Breakdown("Income Breakdown for "+a.Period.Label(), "Source", a.Breakdown)

	s.Heading("Total Income")
	s.Line("Total Income this month: %s", successColor.Sprint(a.Breakdown.Total.String()))
}

func (s *Sink) Savings(period core.Period, sv analytics.Savings) {
	s.Heading("Savings Analysis " + period.Label())
	c := signColor(sv.Balance)
	s.Line("Total Income: %s", successColor.Sprint(sv.Income.String()))
	s.Line("Total Expenses: %s", errorColor.Sprint(sv.Expense.String()))
	s.Line("Monthly Savings: %s", c.Sprint(sv.Balance.String()))
	s.Line("Savings Rate: %s", c.Sprintf("%.2f%%", sv.Rate))
}

func (s *Sink) DailyCheck(d analytics.DailyCheck) {
	s.Heading("Daily Check " + d.Date.Format("2006-01-02"))
	s.Line("Today's Spending: %s", errorColor.Sprint(d.TodaySpent.String()))
	if d.HasBudgets {
		s.Line("Daily Budget: %s", successColor.Sprint(d.DailyBudget.String()))
		s.Line("Remaining: %s", signColor(d.Remaining).Sprint(d.Remaining.String()))
	} else {
		s.Line("Daily Budget: %s", warnColor.Sprint("No budget set for this month."))
	}

	s.Heading("Alerts")
	switch {
	case !d.HasBudgets:
		s.Hint("  • Set budgets to get spending alerts.")
	case len(d.Alerts) == 0:
		s.Success("  • No budget alerts. Keep it up!")
	default:
		for _, a := range d.Alerts {
			s.Warn("  • '%s' category is at %.1f%% of its budget.", a.Category, a.Utilization)
		}
	}

	s.Heading("Quick Tip")
	if d.Tip == analytics.TipHighSpending {
		s.Warn("  • %s", d.Tip)
	} else {
		s.Success("  • %s", d.Tip)
	}
}

func (s *Sink) ImportResult(path string, r transfer.ImportResult) {
	s.Success("Imported %d transactions from %s.", r.Imported, path)
	if r.Skipped > 0 {
		s.Warn("Skipped %d records (%d duplicates, %d invalid).", r.Skipped, r.Skipped-r.Malformed, r.Malformed)
	}
}

func (s *Sink) RestoreResult(path string, r transfer.RestoreResult) {
	s.Success("Restored %d transactions and %d budgets from %s.", r.Transactions, r.Budgets, path)
	if r.Skipped > 0 {
		s.Warn("Skipped %d invalid entries.", r.Skipped)
	}
}

func signColor(m core.Money) *color.Color {
	if m.Minor < 0 {
		return errorColor
	}
	return successColor
}

// Dashboard prints the overview of one period: balance, budget progress
// and the most recent transactions.
func (s *Sink) Dashboard(d services.Dashboard) {
	s.Balance(d.Period, d.Totals)

	s.Heading("Budget Status")
	if !d.Budgets.HasBudgets() {
		s.Hint("No budgets set for %s.", d.Period)
	}
	for _, l := range d.Budgets.Lines {
		if l.Ceiling.Minor == 0 {
			continue
		}
		s.Line("%-15s %s / %s %s", l.Category, l.Spent, l.Ceiling,
			statusColor(l.Status).Sprint(ProgressBar(l.Utilization)))
	}

	s.Transactions("Recent Transactions", d.Recent)
}
