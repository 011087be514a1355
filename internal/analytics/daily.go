package analytics

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// DefaultAlertThreshold is the utilisation above which a category is
// flagged by the daily check.
const DefaultAlertThreshold = 80.0

// Spending above this amount on a day without budgets is considered high.
var defaultDailyAllowance = core.Money{Minor: 500000}

// Tip is the rule-based advice of the daily check.
type Tip int

const (
	TipNoSpending Tip = iota
	TipHighSpending
	TipOnTrack
)

func (t Tip) String() string {
	switch t {
	case TipNoSpending:
		return "No spending today! A great day to save."
	case TipHighSpending:
		return "Spending is a bit high today. Review your purchases."
	}
	return "You're on track with your spending. Well done!"
}

// Alert flags a budgeted category close to its ceiling.
type Alert struct {
	Category    string
	Spent       core.Money
	Ceiling     core.Money
	Utilization float64
}

// DailyCheck summarises today's spending against the month's budgets.
type DailyCheck struct {
	Date        time.Time
	TodaySpent  core.Money
	HasBudgets  bool
	DailyBudget core.Money
	Remaining   core.Money
	Alerts      []Alert
	Tip         Tip
}

// BuildDailyCheck evaluates txs (the whole ledger) at now. ceilings are the
// ceilings of now's period. Alerts fire for budgeted categories whose
// utilisation exceeds threshold.
func BuildDailyCheck(txs []core.Transaction, ceilings map[string]core.Money, now time.Time, threshold float64) DailyCheck {
	loc := now.Location()
	expenses := OfKind(txs, core.Expense)
	today := ComputeTotals(OnDay(expenses, now)).Expense

	var totalCeiling core.Money
	for _, c := range ceilings {
		totalCeiling = totalCeiling.Add(c)
	}

	check := DailyCheck{Date: now, TodaySpent: today, HasBudgets: totalCeiling.Minor > 0}
	period := core.PeriodOf(now)
	if check.HasBudgets {
		check.DailyBudget = core.Money{Minor: totalCeiling.Minor / int64(period.Days())}
		check.Remaining = check.DailyBudget.Sub(today)
	}

	monthly := InPeriod(expenses, period, loc)
	for category, ceiling := range ceilings {
		if ceiling.Minor <= 0 {
			continue
		}
		var spent core.Money
		for _, t := range monthly {
			if t.Category == category {
				spent = spent.Add(t.Amount)
			}
		}
		if u := Utilization(spent, ceiling); u > threshold {
			check.Alerts = append(check.Alerts, Alert{Category: category, Spent: spent, Ceiling: ceiling, Utilization: u})
		}
	}
	sort.Slice(check.Alerts, func(i, j int) bool { return check.Alerts[i].Category < check.Alerts[j].Category })

	allowance := defaultDailyAllowance
	if check.HasBudgets {
		allowance = core.Money{Minor: totalCeiling.Minor / 30}
	}
	switch {
	case today.Minor == 0:
		check.Tip = TipNoSpending
	case today.Minor > allowance.Minor:
		check.Tip = TipHighSpending
	default:
		check.Tip = TipOnTrack
	}
	return check
}
