package analytics

import (
	"slices"
	"sort"

	"fintrack/internal/core"
)

// Status is the utilisation tier of a budget.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusOver
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "Warning"
	case StatusOver:
		return "Over"
	}
	return "OK"
}

const (
	warningThreshold = 70.0
	overThreshold    = 100.0
)

// Utilization returns spent as a percentage of ceiling, or 0 when there is
// no positive ceiling.
func Utilization(spent, ceiling core.Money) float64 {
	if ceiling.Minor <= 0 {
		return 0
	}
	return float64(spent.Minor) * 100 / float64(ceiling.Minor)
}

// StatusFor tiers a utilisation: below 70 is OK, 70 to 100 inclusive is a
// warning, above 100 is over.
func StatusFor(utilization float64) Status {
	switch {
	case utilization > overThreshold:
		return StatusOver
	case utilization >= warningThreshold:
		return StatusWarning
	}
	return StatusOK
}

// BudgetLine is the state of one category against its ceiling.
type BudgetLine struct {
	Category    string
	Ceiling     core.Money
	Spent       core.Money
	Remaining   core.Money
	Utilization float64
	Status      Status
}

// OverBudget is true only for a category with a ceiling that is exceeded.
func (l BudgetLine) OverBudget() bool {
	return l.Ceiling.Minor > 0 && l.Utilization > overThreshold
}

// BudgetReport compares a period's expenses with its ceilings.
type BudgetReport struct {
	Period       core.Period
	Lines        []BudgetLine
	TotalCeiling core.Money
	TotalSpent   core.Money
	Remaining    core.Money
	Utilization  float64
	Status       Status
}

// HasBudgets reports whether any ceiling is set for the period.
func (r BudgetReport) HasBudgets() bool {
	return r.TotalCeiling.Minor > 0
}

// OverBudget lists the lines whose ceiling is exceeded.
func (r BudgetReport) OverBudget() []BudgetLine {
	var out []BudgetLine
	for _, l := range r.Lines {
		if l.OverBudget() {
			out = append(out, l)
		}
	}
	return out
}

// BuildBudgetReport builds one line per listed category plus one per
// budgeted category missing from the list. expenses must already be the
// period's expense transactions. Overall totals cover the listed lines.
func BuildBudgetReport(period core.Period, expenses []core.Transaction, ceilings map[string]core.Money, categories []string) BudgetReport {
	all := slices.Clone(categories)
	var extra []string
	for c := range ceilings {
		if !slices.Contains(all, c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	all = append(all, extra...)

	spent := CategoryBreakdown(expenses, all)
	r := BudgetReport{Period: period}
	for _, row := range spent.Categories {
		ceiling := ceilings[row.Category]
		u := Utilization(row.Amount, ceiling)
		r.Lines = append(r.Lines, BudgetLine{
			Category:    row.Category,
			Ceiling:     ceiling,
			Spent:       row.Amount,
			Remaining:   ceiling.Sub(row.Amount),
			Utilization: u,
			Status:      StatusFor(u),
		})
		r.TotalCeiling = r.TotalCeiling.Add(ceiling)
		r.TotalSpent = r.TotalSpent.Add(row.Amount)
	}
	r.Remaining = r.TotalCeiling.Sub(r.TotalSpent)
	r.Utilization = Utilization(r.TotalSpent, r.TotalCeiling)
	r.Status = StatusFor(r.Utilization)
	return r
}
