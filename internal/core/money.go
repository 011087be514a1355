// Package core provides the domain model of the ledger: transactions,
// budgets, money in minor units, calendar periods and the time context.
//
// This file contains the conversion between user-entered decimal amounts
// and integer minor units. Arithmetic never leaves minor units; major units
// only appear when formatting for display.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents, paisa).
type Money struct {
	Minor int64
}

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ParseMoney converts a decimal string in major units to Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Amounts are
// rounded half-up to two decimal places. Signs, exponents and values that
// round to zero are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("12,34")  -> 1234
//	ParseMoney("1.005")  -> 101
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return Money{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	minor := d.Shift(2).Round(0)
	if !minor.IsPositive() || minor.GreaterThan(maxMinor) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Minor: minor.IntPart()}, nil
}

// Validate reports ErrInvalidAmount unless m is strictly positive.
func (m Money) Validate() error {
	if m.Minor <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor}
}

// Sub returns m - o. The result may be negative.
func (m Money) Sub(o Money) Money {
	return Money{Minor: m.Minor - o.Minor}
}

// String formats m in major units with two decimals, e.g. "-12.50".
func (m Money) String() string {
	return decimal.New(m.Minor, -2).StringFixed(2)
}

// Major returns the major-unit value for display-only computations
// such as chart scales.
func (m Money) Major() float64 {
	return decimal.New(m.Minor, -2).InexactFloat64()
}
