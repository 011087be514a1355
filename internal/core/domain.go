package core

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Kind tags a transaction as income or expense. The sign of a transaction
// is carried only by its kind; amounts are always positive.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// ParseKind accepts "income" or "expense" in any letter case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Label is the capitalised display form.
func (k Kind) Label() string {
	switch k {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	}
	return string(k)
}

type (
	// Transaction is one immutable ledger record.
	Transaction struct {
		Timestamp   float64 // epoch seconds
		Kind        Kind
		Category    string
		Description string
		Amount      Money
	}

	// Budget is the spending ceiling of one category for one month.
	Budget struct {
		Period   Period
		Category string
		Ceiling  Money
	}
)

// Time returns the transaction instant in loc.
func (t Transaction) Time(loc *time.Location) time.Time {
	return TimeOf(t.Timestamp, loc)
}

// Validate checks the record invariants shared by every store and importer.
func (t Transaction) Validate() error {
	if math.IsNaN(t.Timestamp) || math.IsInf(t.Timestamp, 0) {
		return fmt.Errorf("%w: timestamp is not a finite number", ErrValidation)
	}
	if t.Kind != Income && t.Kind != Expense {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !Encodable(t.Category) || !Encodable(t.Description) {
		return ErrUnencodableText
	}
	return nil
}

// Validate checks the budget invariants.
func (b Budget) Validate() error {
	if b.Period.IsZero() {
		return ErrInvalidPeriod
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !Encodable(b.Category) {
		return ErrUnencodableText
	}
	return b.Ceiling.Validate()
}

// Encodable reports whether s can be stored in a comma-delimited line
// without escaping.
func Encodable(s string) bool {
	return !strings.ContainsAny(s, ",\r\n")
}

// Entry is the raw user input of the transaction-entry flow.
type Entry struct {
	Kind        Kind
	Amount      string // major units, e.g. "12.50"
	Category    string
	Description string
	Date        string // YYYY-MM-DD, empty for now
}

// NewTransaction validates e and builds the record to append. An empty date
// means clock's now; a date means local midnight in the clock's location.
func NewTransaction(e Entry, clock Clock) (Transaction, error) {
	amount, err := ParseMoney(e.Amount)
	if err != nil {
		return Transaction{}, err
	}

	when := clock.Now()
	if d := strings.TrimSpace(e.Date); d != "" {
		when, err = time.ParseInLocation("2006-01-02", d, clock.Location())
		if err != nil {
			return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}

	t := Transaction{
		Timestamp:   Timestamp(when),
		Kind:        e.Kind,
		Category:    strings.TrimSpace(e.Category),
		Description: strings.TrimSpace(e.Description),
		Amount:      amount,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Taxonomy is the closed set of categories per kind. The zero value is
// empty; use DefaultTaxonomy or NewTaxonomy.
type Taxonomy struct {
	expense []string
	income  []string
}

// DefaultTaxonomy is the fixed category list of the tracker.
var DefaultTaxonomy = NewTaxonomy(
	[]string{"Food", "Transport", "Shopping", "Bills", "Entertainment", "Health", "Other"},
	[]string{"Salary", "Freelance", "Business", "Investment", "Gift", "Other"},
)

// NewTaxonomy copies the given lists.
func NewTaxonomy(expense, income []string) Taxonomy {
	return Taxonomy{expense: slices.Clone(expense), income: slices.Clone(income)}
}

// For returns a copy of the categories of kind k, in display order.
func (t Taxonomy) For(k Kind) []string {
	switch k {
	case Expense:
		return slices.Clone(t.expense)
	case Income:
		return slices.Clone(t.income)
	}
	return nil
}

// Has reports whether category belongs to the list of kind k.
func (t Taxonomy) Has(k Kind, category string) bool {
	switch k {
	case Expense:
		return slices.Contains(t.expense, category)
	case Income:
		return slices.Contains(t.income, category)
	}
	return false
}
