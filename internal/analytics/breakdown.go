package analytics

import (
	"slices"
	"strings"

	"fintrack/internal/core"
)

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Amount   core.Money
	Percent  float64
}

// Breakdown sums transactions per category of a closed list.
type Breakdown struct {
	// Categories has one entry per listed category, in list order,
	// including categories that sum to zero.
	Categories []CategoryTotal
	// Total includes transactions whose category is not listed.
	Total core.Money
}

// CategoryBreakdown groups txs by category. Percentages are relative to
// the grand total and are all 0 when the total is 0.
func CategoryBreakdown(txs []core.Transaction, categories []string) Breakdown {
	sums := make(map[string]int64, len(categories))
	var total int64
	for _, t := range txs {
		total += t.Amount.Minor
		if slices.Contains(categories, t.Category) {
			sums[t.Category] += t.Amount.Minor
		}
	}

	b := Breakdown{Total: core.Money{Minor: total}}
	for _, c := range categories {
		amount := sums[c]
		var pct float64
		if total > 0 {
			pct = float64(amount) * 100 / float64(total)
		}
		b.Categories = append(b.Categories, CategoryTotal{Category: c, Amount: core.Money{Minor: amount}, Percent: pct})
	}
	return b
}

// Amount returns the sum for category, zero when it is not listed.
func (b Breakdown) Amount(category string) core.Money {
	for _, c := range b.Categories {
		if c.Category == category {
			return c.Amount
		}
	}
	return core.Money{}
}

// NonZero returns the rows with a positive amount, in list order.
func (b Breakdown) NonZero() []CategoryTotal {
	var out []CategoryTotal
	for _, c := range b.Categories {
		if c.Amount.Minor > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Top returns up to n non-zero rows by descending amount. Ties keep the
// category list order.
func (b Breakdown) Top(n int) []CategoryTotal {
	out := b.NonZero()
	slices.SortStableFunc(out, func(x, y CategoryTotal) int {
		switch {
		case x.Amount.Minor > y.Amount.Minor:
			return -1
		case x.Amount.Minor < y.Amount.Minor:
			return 1
		}
		return 0
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// DistributionBar renders a row's share as a bar of one block per two
// percent, so a full distribution spans fifty characters.
func DistributionBar(pct float64, block string) string {
	n := int(pct / 2)
	if n <= 0 {
		return ""
	}
	return strings.Repeat(block, n)
}
