package http

import (
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// amountView carries both the exact minor units and the display form.
type amountView struct {
	Minor   int64  `json:"minor"`
	Display string `json:"display"`
}

func amountOf(m core.Money) amountView {
	return amountView{Minor: m.Minor, Display: m.String()}
}

type transactionView struct {
	Timestamp   float64    `json:"timestamp"`
	Date        string     `json:"date"`
	Kind        core.Kind  `json:"kind"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Amount      amountView `json:"amount"`
}

func transactionsOf(txs []core.Transaction, loc *time.Location) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionView{
			Timestamp:   t.Timestamp,
			Date:        t.Time(loc).Format("2006-01-02 15:04"),
			Kind:        t.Kind,
			Category:    t.Category,
			Description: t.Description,
			Amount:      amountOf(t.Amount),
		})
	}
	return out
}

type budgetLineView struct {
	Category    string     `json:"category"`
	Ceiling     amountView `json:"ceiling"`
	Spent       amountView `json:"spent"`
	Remaining   amountView `json:"remaining"`
	Utilization float64    `json:"utilization"`
	Status      string     `json:"status"`
}

type budgetReportView struct {
	Period       core.Period      `json:"period"`
	HasBudgets   bool             `json:"has_budgets"`
	Lines        []budgetLineView `json:"lines"`
	TotalCeiling amountView       `json:"total_ceiling"`
	TotalSpent   amountView       `json:"total_spent"`
	Remaining    amountView       `json:"remaining"`
	Utilization  float64          `json:"utilization"`
	Status       string           `json:"status"`
	OverBudget   []string         `json:"over_budget"`
}

func budgetReportOf(r analytics.BudgetReport) budgetReportView {
	v := budgetReportView{
		Period:       r.Period,
		HasBudgets:   r.HasBudgets(),
		Lines:        make([]budgetLineView, 0, len(r.Lines)),
		TotalCeiling: amountOf(r.TotalCeiling),
		TotalSpent:   amountOf(r.TotalSpent),
		Remaining:    amountOf(r.Remaining),
		Utilization:  r.Utilization,
		Status:       r.Status.String(),
		OverBudget:   []string{},
	}
	for _, l := range r.Lines {
		v.Lines = append(v.Lines, budgetLineView{
			Category:    l.Category,
			Ceiling:     amountOf(l.Ceiling),
			Spent:       amountOf(l.Spent),
			Remaining:   amountOf(l.Remaining),
			Utilization: l.Utilization,
			Status:      l.Status.String(),
		})
	}
	for _, l := range r.OverBudget() {
		v.OverBudget = append(v.OverBudget, l.Category)
	}
	return v
}

type categoryView struct {
	Category string     `json:"category"`
	Amount   amountView `json:"amount"`
	Percent  float64    `json:"percent"`
}

func categoriesOf(rows []analytics.CategoryTotal) []categoryView {
	out := make([]categoryView, 0, len(rows))
	for _, r := range rows {
		out = append(out, categoryView{Category: r.Category, Amount: amountOf(r.Amount), Percent: r.Percent})
	}
	return out
}

type spendingView struct {
	Total      amountView     `json:"total"`
	Categories []categoryView `json:"categories"`
	Top        []categoryView `json:"top"`
	BurnRate   amountView     `json:"burn_rate"`
}

type overviewView struct {
	Period      core.Period       `json:"period"`
	Income      amountView        `json:"income"`
	Expense     amountView        `json:"expense"`
	Balance     amountView        `json:"balance"`
	SavingsRate float64           `json:"savings_rate"`
	Budgets     budgetReportView  `json:"budgets"`
	Spending    spendingView      `json:"spending"`
	Recent      []transactionView `json:"recent"`
}

func overviewOf(d services.Dashboard, loc *time.Location) overviewView {
	return overviewView{
		Period:      d.Period,
		Income:      amountOf(d.Totals.Income),
		Expense:     amountOf(d.Totals.Expense),
		Balance:     amountOf(d.Totals.Balance),
		SavingsRate: d.Savings.Rate,
		Budgets:     budgetReportOf(d.Budgets),
		Spending: spendingView{
			Total:      amountOf(d.Spending.Breakdown.Total),
			Categories: categoriesOf(d.Spending.Breakdown.Categories),
			Top:        categoriesOf(d.Spending.Top),
			BurnRate:   amountOf(d.Spending.BurnRate),
		},
		Recent: transactionsOf(d.Recent, loc),
	}
}
