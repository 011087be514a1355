package budget

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// FormatLine renders b as "period,category,ceiling".
func FormatLine(b core.Budget) (string, error) {
	if err := b.Validate(); err != nil {
		return "", core.Malformed("format budget line", err)
	}
	return b.Period.String() + "," + b.Category + "," + strconv.FormatInt(b.Ceiling.Minor, 10), nil
}

// ParseLine parses one persisted budget line.
func ParseLine(line string) (core.Budget, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 3 {
		return core.Budget{}, core.Malformed("parse budget line",
			fmt.Errorf("expected 3 fields, got %d", len(parts)))
	}
	period, err := core.ParsePeriod(parts[0])
	if err != nil {
		return core.Budget{}, core.Malformed("parse budget line", err)
	}
	ceiling, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return core.Budget{}, core.Malformed("parse budget line", fmt.Errorf("ceiling: %w", err))
	}
	b := core.Budget{Period: period, Category: parts[1], Ceiling: core.Money{Minor: ceiling}}
	if err := b.Validate(); err != nil {
		return core.Budget{}, core.Malformed("parse budget line", err)
	}
	return b, nil
}

// line is one physical line of the budget file. Lines that fail to parse
// keep their raw text so a rewrite can carry them over untouched.
type line struct {
	raw    string
	budget core.Budget
	ok     bool
	err    error
}

func readLines(r io.Reader) ([]line, error) {
	var out []line
	err := ledger.EachLine(r, func(_ int, raw string) {
		if strings.TrimSpace(raw) == "" {
			return
		}
		b, err := ParseLine(raw)
		out = append(out, line{raw: raw, budget: b, ok: err == nil, err: err})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
