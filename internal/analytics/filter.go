package analytics

import (
	"slices"
	"time"

	"fintrack/internal/core"
)

// InPeriod keeps the transactions whose timestamp falls in period when
// converted to a calendar date in loc.
func InPeriod(txs []core.Transaction, period core.Period, loc *time.Location) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if period.Contains(t.Time(loc)) {
			out = append(out, t)
		}
	}
	return out
}

// InYear keeps the transactions of one calendar year in loc.
func InYear(txs []core.Transaction, year int, loc *time.Location) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if t.Time(loc).Year() == year {
			out = append(out, t)
		}
	}
	return out
}

// OnDay keeps the transactions dated on the same calendar day as day.
func OnDay(txs []core.Transaction, day time.Time) []core.Transaction {
	y, m, d := day.Date()
	var out []core.Transaction
	for _, t := range txs {
		ty, tm, td := t.Time(day.Location()).Date()
		if ty == y && tm == m && td == d {
			out = append(out, t)
		}
	}
	return out
}

// OfKind keeps the transactions of kind k.
func OfKind(txs []core.Transaction, k core.Kind) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// ListFilter selects which transactions the history view shows.
type ListFilter int

const (
	FilterAll ListFilter = iota
	FilterLast7Days
	FilterExpenses
	FilterIncome
)

var listFilterNames = map[ListFilter]string{
	FilterAll:       "all",
	FilterLast7Days: "last-7-days",
	FilterExpenses:  "expenses",
	FilterIncome:    "income",
}

func (f ListFilter) String() string {
	if s, ok := listFilterNames[f]; ok {
		return s
	}
	return "unknown"
}

// ParseListFilter maps a filter name back to its value.
func ParseListFilter(s string) (ListFilter, bool) {
	for f, name := range listFilterNames {
		if name == s {
			return f, true
		}
	}
	return FilterAll, false
}

// FilterTransactions applies f and returns the result newest first.
// Transactions with equal timestamps keep their file order.
func FilterTransactions(txs []core.Transaction, f ListFilter, now time.Time) []core.Transaction {
	var out []core.Transaction
	switch f {
	case FilterLast7Days:
		cutoff := core.Timestamp(now.AddDate(0, 0, -7))
		for _, t := range txs {
			if t.Timestamp >= cutoff {
				out = append(out, t)
			}
		}
	case FilterExpenses:
		out = OfKind(txs, core.Expense)
	case FilterIncome:
		out = OfKind(txs, core.Income)
	default:
		out = slices.Clone(txs)
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
	return out
}

// Recent returns at most n transactions, newest first.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	out := FilterTransactions(txs, FilterAll, time.Time{})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
