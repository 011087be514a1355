package transfer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// LedgerStore is the part of a ledger store the importer needs.
type LedgerStore interface {
	LoadAll(ctx context.Context) ([]core.Transaction, error)
	AppendAll(ctx context.Context, txs []core.Transaction) error
}

var errNotObject = errors.New("record is not an object")

// Candidate is one row of an import file, parsed or not.
type Candidate struct {
	Row         int
	Transaction core.Transaction
	Err         error
}

// ImportResult counts the outcome of an import. Skipped covers both
// duplicates and rows that failed validation.
type ImportResult struct {
	Imported  int
	Skipped   int
	Malformed int
}

// Total is the number of rows read from the file.
func (r ImportResult) Total() int {
	return r.Imported + r.Skipped
}

// Importer appends external records to a ledger, skipping duplicates.
type Importer struct {
	ledger LedgerStore
	logger *applog.Logger
}

func NewImporter(l LedgerStore, logger *applog.Logger) *Importer {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Importer{ledger: l, logger: logger.WithComponent(applog.ComponentImport)}
}

// ImportFile imports path in format f. A missing file is ErrNotFound.
func (im *Importer) ImportFile(ctx context.Context, path string, f Format) (ImportResult, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ImportResult{}, core.NotFound("open import file", err)
	}
	if err != nil {
		return ImportResult{}, core.IOFailure("open import file", err)
	}
	defer file.Close()
	return im.Import(ctx, f, file)
}

// Import reads every row of r, drops invalid rows and rows whose
// signature already exists in the ledger or earlier in the same file, and
// appends the rest in one write.
func (im *Importer) Import(ctx context.Context, f Format, r io.Reader) (ImportResult, error) {
	candidates, err := ReadCandidates(f, r)
	if err != nil {
		return ImportResult{}, err
	}

	existing, err := im.ledger.LoadAll(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	dedup := analytics.NewDeduper(existing)

	var (
		res    ImportResult
		accept []core.Transaction
	)
	for _, c := range candidates {
		if c.Err != nil {
			res.Skipped++
			res.Malformed++
			fields := applog.NewFields().WithOperation(applog.OpImport).WithError(c.Err)
			fields[applog.FieldLine] = c.Row
			im.logger.WarnContext(ctx, "Skipping malformed import record", fields.ToSlice()...)
			continue
		}
		if !dedup.Accept(c.Transaction) {
			res.Skipped++
			continue
		}
		accept = append(accept, c.Transaction)
	}

	if err := im.ledger.AppendAll(ctx, accept); err != nil {
		return ImportResult{}, err
	}
	res.Imported = len(accept)

	im.logger.InfoContext(ctx, "Import completed",
		applog.FieldOperation, applog.OpImport,
		applog.FieldImported, res.Imported,
		applog.FieldSkipped, res.Skipped)
	return res, nil
}

// ReadCandidates parses r in format f. Only an unreadable or structurally
// invalid document is an error; bad rows are returned as candidates with
// Err set.
func ReadCandidates(f Format, r io.Reader) ([]Candidate, error) {
	switch f {
	case FormatCSV:
		return readCSV(r)
	case FormatJSON:
		return readJSON(r)
	}
	return nil, fmt.Errorf("%w: unknown format %q", core.ErrValidation, f)
}

func readCSV(r io.Reader) ([]Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not read CSV header: %v", core.ErrValidation, err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[canonicalColumn(h)] = i
	}
	for _, required := range []string{"timestamp", "kind", "category", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header lacks column %q", core.ErrValidation, required)
		}
	}

	var out []Candidate
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			out = append(out, Candidate{Row: row, Err: core.Malformed("parse CSV row", err)})
			continue
		}
		if err != nil {
			return nil, core.IOFailure("read CSV", err)
		}

		t, err := fromFields(func(name string) (string, bool) {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return "", false
			}
			return record[i], true
		})
		if err != nil {
			err = core.Malformed("parse CSV row", err)
		}
		out = append(out, Candidate{Row: row, Transaction: t, Err: err})
	}
	return out, nil
}

func readJSON(r io.Reader) ([]Candidate, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: invalid JSON document: %v", core.ErrValidation, err)
	}
	return objectsToCandidates(items), nil
}

func objectsToCandidates(items []json.RawMessage) []Candidate {
	out := make([]Candidate, 0, len(items))
	for i, raw := range items {
		c := Candidate{Row: i + 1}
		var obj map[string]any
		if err := decodeNumbers(raw, &obj); err != nil || obj == nil {
			c.Err = core.Malformed("parse JSON record", errNotObject)
		} else if t, err := fromObject(obj); err != nil {
			c.Err = core.Malformed("parse JSON record", err)
		} else {
			c.Transaction = t
		}
		out = append(out, c)
	}
	return out
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
