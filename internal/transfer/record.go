package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Record is the external shape of a transaction.
type Record struct {
	Timestamp   float64 `json:"timestamp"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      int64   `json:"amount"`
}

func recordOf(t core.Transaction) Record {
	return Record{
		Timestamp:   t.Timestamp,
		Kind:        string(t.Kind),
		Category:    t.Category,
		Description: t.Description,
		Amount:      t.Amount.Minor,
	}
}

func recordsOf(txs []core.Transaction) []Record {
	out := make([]Record, len(txs))
	for i, t := range txs {
		out[i] = recordOf(t)
	}
	return out
}

var errMissingField = errors.New("missing field")

// fromFields validates one external row given as column -> text.
func fromFields(get func(string) (string, bool)) (core.Transaction, error) {
	field := func(name string) (string, error) {
		v, ok := get(name)
		if !ok {
			return "", fmt.Errorf("%w %q", errMissingField, name)
		}
		return strings.TrimSpace(v), nil
	}

	tsText, err := field("timestamp")
	if err != nil {
		return core.Transaction{}, err
	}
	ts, err := strconv.ParseFloat(tsText, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("timestamp: %w", err)
	}

	kindText, err := field("kind")
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(kindText)
	if err != nil {
		return core.Transaction{}, err
	}

	category, err := field("category")
	if err != nil {
		return core.Transaction{}, err
	}
	description, _ := get("description")

	amountText, err := field("amount")
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := strconv.ParseInt(amountText, 10, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}

	t := core.Transaction{
		Timestamp:   ts,
		Kind:        kind,
		Category:    category,
		Description: description,
		Amount:      core.Money{Minor: amount},
	}
	return t, t.Validate()
}

// fromObject validates one decoded JSON object. Numbers are expected as
// json.Number; numeric fields may also be given as strings.
func fromObject(obj map[string]any) (core.Transaction, error) {
	values := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := scalarText(v)
		if !ok {
			continue
		}
		values[canonicalColumn(k)] = s
	}
	return fromFields(func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
}

func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		if math.Trunc(x) == x && math.Abs(x) < 1<<53 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case nil:
		return "", false
	}
	return "", false
}

func parseMinor(text string) (core.Money, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return core.Money{}, err
	}
	m := core.Money{Minor: n}
	return m, m.Validate()
}
