package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// RangeKind selects the transactions of an export.
type RangeKind int

const (
	RangeAll RangeKind = iota
	RangePeriod
	RangeYear
)

// Range is an export window.
type Range struct {
	Kind   RangeKind
	Period core.Period
	Year   int
}

func AllTime() Range { return Range{Kind: RangeAll} }
func ForPeriod(p core.Period) Range { return Range{Kind: RangePeriod, Period: p} }
func ForYear(year int) Range { return Range{Kind: RangeYear, Year: year} }

// Apply keeps the transactions inside r, judged in loc.
func (r Range) Apply(txs []core.Transaction, loc *time.Location) []core.Transaction {
	switch r.Kind {
	case RangePeriod:
		return analytics.InPeriod(txs, r.Period, loc)
	case RangeYear:
		return analytics.InYear(txs, r.Year, loc)
	}
	return txs
}

func (r Range) String() string {
	switch r.Kind {
	case RangePeriod:
		return r.Period.String()
	case RangeYear:
		return strconv.Itoa(r.Year)
	}
	return "all time"
}

// Export writes txs to w in format f.
func Export(w io.Writer, f Format, txs []core.Transaction) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, txs)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(recordsOf(txs))
	}
	return fmt.Errorf("%w: unknown format %q", core.ErrValidation, f)
}

// ExportFile writes txs to path, replacing any existing file atomically.
func ExportFile(path string, f Format, txs []core.Transaction) error {
	var buf bytes.Buffer
	if err := Export(&buf, f, txs); err != nil {
		return err
	}
	return ledger.ReplaceFile(path, buf.Bytes())
}

func writeCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range txs {
		err := cw.Write([]string{
			strconv.FormatFloat(t.Timestamp, 'f', -1, 64),
			string(t.Kind),
			t.Category,
			t.Description,
			strconv.FormatInt(t.Amount.Minor, 10),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
