package analytics

import (
	"math"
	"time"

	"fintrack/internal/core"
)

// Totals is the income/expense balance of a set of transactions.
type Totals struct {
	Income  core.Money
	Expense core.Money
	Balance core.Money
}

func ComputeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// Savings is the savings view of a period.
type Savings struct {
	Totals
	// Rate is savings over income in percent, 0 without income.
	Rate float64
}

func ComputeSavings(txs []core.Transaction) Savings {
	s := Savings{Totals: ComputeTotals(txs)}
	if s.Income.Minor > 0 {
		s.Rate = float64(s.Balance.Minor) * 100 / float64(s.Income.Minor)
	}
	return s
}

// DailyBurnRate divides expense by the day of month of now, i.e. by the
// days elapsed in the current month including today.
func DailyBurnRate(expense core.Money, now time.Time) core.Money {
	day := now.Day()
	if day <= 0 {
		return core.Money{}
	}
	return core.Money{Minor: int64(math.Round(float64(expense.Minor) / float64(day)))}
}
