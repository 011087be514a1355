package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// newTable builds a bordered table; columns listed in numeric are right
// aligned.
func newTable(headers []string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			}
			return cellStyle
		})
}

// Transactions lists txs in the given order.
func (s *Sink) Transactions(title string, txs []core.Transaction) {
	if len(txs) == 0 {
		s.Warn("No transactions to show.")
		return
	}
	t := newTable([]string{"Date", "Type", "Category", "Description", "Amount"}, 4)
	for _, tx := range txs {
		t.Row(
			tx.Time(s.loc).Format("2006-01-02 15:04"),
			tx.Kind.Label(),
			tx.Category,
			tx.Description,
			tx.Amount.String(),
		)
	}
	s.title(title)
	fmt.Fprintln(s.w, t.Render())
}

// BudgetReport prints the per-category table and the overall summary.
func (s *Sink) BudgetReport(r analytics.BudgetReport) {
	s.Heading("Monthly Budget Overview")
	if !r.HasBudgets() {
		s.Warn("No budgets set for %s. Use budget-set to get started!", r.Period)
		return
	}

	t := newTable([]string{"Category", "Budget", "Spent", "Remaining", "Utilization", "Status"}, 1, 2, 3)
	for _, l := range r.Lines {
		t.Row(
			l.Category,
			l.Ceiling.String(),
			l.Spent.String(),
			l.Remaining.String(),
			fmt.Sprintf("%s %.1f%%", ProgressBar(l.Utilization), l.Utilization),
			statusColor(l.Status).Sprint(l.Status.String()),
		)
	}
	s.title("Budget vs. Spending (" + r.Period.Label() + ")")
	fmt.Fprintln(s.w, t.Render())

	s.Heading("Overall Monthly Summary")
	overall := statusColor(r.Status)
	s.Line("Total Budget: %s", r.TotalCeiling)
	s.Line("Total Spent: %s", r.TotalSpent)
	s.Line("Total Remaining: %s", overall.Sprint(r.Remaining.String()))
	s.Line("Overall Utilization: %s", overall.Sprintf("%.1f%%", r.Utilization))

	if over := r.OverBudget(); len(over) > 0 {
		s.Warn("\nCategories Over Budget:")
		for _, l := range over {
			s.Line("- %s", errorColor.Sprint(l.Category))
		}
		s.Warn("Consider adjusting your spending in these areas.")
	}
}

// Breakdown prints the non-zero rows of b with their share.
func (s *Sink) Breakdown(title, label string, b analytics.Breakdown) {
	t := newTable([]string{label, "Amount", "Percentage"}, 1, 2)
	for _, row := range b.NonZero() {
		t.Row(row.Category, row.Amount.String(), fmt.Sprintf("%.1f%%", row.Percent))
	}
	s.title(title)
	fmt.Fprintln(s.w, t.Render())
}
