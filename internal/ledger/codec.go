package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const fieldCount = 5

// FormatLine renders t as "timestamp,kind,category,description,amount".
// Records whose text fields would break the delimited layout are refused.
func FormatLine(t core.Transaction) (string, error) {
	if !core.Encodable(t.Category) || !core.Encodable(t.Description) || !core.Encodable(string(t.Kind)) {
		return "", core.Malformed("format ledger line", core.ErrUnencodableText)
	}
	return strings.Join([]string{
		strconv.FormatFloat(t.Timestamp, 'f', -1, 64),
		string(t.Kind),
		t.Category,
		t.Description,
		strconv.FormatInt(t.Amount.Minor, 10),
	}, ","), nil
}

// ParseLine parses one persisted line. Any structural problem is reported
// as core.ErrMalformedRecord.
func ParseLine(line string) (core.Transaction, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != fieldCount {
		return core.Transaction{}, core.Malformed("parse ledger line",
			fmt.Errorf("expected %d fields, got %d", fieldCount, len(parts)))
	}

	ts, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return core.Transaction{}, core.Malformed("parse ledger line", fmt.Errorf("timestamp: %w", err))
	}
	kind, err := core.ParseKind(parts[1])
	if err != nil {
		return core.Transaction{}, core.Malformed("parse ledger line", err)
	}
	amount, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return core.Transaction{}, core.Malformed("parse ledger line", fmt.Errorf("amount: %w", err))
	}

	t := core.Transaction{
		Timestamp:   ts,
		Kind:        kind,
		Category:    parts[2],
		Description: parts[3],
		Amount:      core.Money{Minor: amount},
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.Malformed("parse ledger line", err)
	}
	return t, nil
}

// MalformedLine describes a line skipped while decoding.
type MalformedLine struct {
	Number int
	Raw    string
	Err    error
}

// Decode reads every line of r in order. Malformed lines are handed to
// onMalformed (which may be nil) and skipped; blank lines are ignored.
// Lines have no length limit. Only a read failure of r itself is
// returned as an error.
func Decode(r io.Reader, onMalformed func(MalformedLine)) ([]core.Transaction, error) {
	var out []core.Transaction
	err := EachLine(r, func(n int, raw string) {
		if strings.TrimSpace(raw) == "" {
			return
		}
		t, err := ParseLine(raw)
		if err != nil {
			if onMalformed != nil {
				onMalformed(MalformedLine{Number: n, Raw: raw, Err: err})
			}
			return
		}
		out = append(out, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EachLine calls fn with every line of r, numbered from 1, without the
// trailing newline. A final line without newline is still delivered.
func EachLine(r io.Reader, fn func(n int, raw string)) error {
	br := bufio.NewReader(r)
	n := 0
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			n++
			fn(n, strings.TrimRight(raw, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Encode writes every transaction as one line. It validates the whole
// sequence before writing anything.
func Encode(w io.Writer, txs []core.Transaction) error {
	lines := make([]string, len(txs))
	for i, t := range txs {
		line, err := FormatLine(t)
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		lines[i] = line
	}
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
