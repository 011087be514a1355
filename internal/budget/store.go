// Package budget persists monthly spending ceilings per category in a flat
// file of "period,category,ceiling" lines.
package budget

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

// FileStore owns the budget file. Writers hold the mutex for the whole
// read-modify-replace cycle.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *applog.Logger
}

func NewFileStore(path string, logger *applog.Logger) *FileStore {
	if logger == nil {
		logger = applog.Discard()
	}
	return &FileStore{path: path, logger: logger.WithComponent(applog.ComponentBudget)}
}

func (s *FileStore) Path() string {
	return s.path
}

// SetCeiling upserts the ceiling of (period, category). Existing lines for
// the pair are updated where they stand; otherwise a line is appended.
// Lines that cannot be parsed are preserved as they are.
func (s *FileStore) SetCeiling(ctx context.Context, period core.Period, category string, ceiling core.Money) error {
	b := core.Budget{Period: period, Category: strings.TrimSpace(category), Ceiling: ceiling}
	if err := b.Validate(); err != nil {
		return err
	}
	formatted, err := FormatLine(b)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.read()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	replaced := false
	for _, l := range lines {
		if l.ok && l.budget.Period == b.Period && l.budget.Category == b.Category {
			buf.WriteString(formatted + "\n")
			replaced = true
			continue
		}
		buf.WriteString(l.raw + "\n")
	}
	if !replaced {
		buf.WriteString(formatted + "\n")
	}

	if err := ledger.ReplaceFile(s.path, buf.Bytes()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget ceiling saved",
		applog.FieldOperation, applog.OpUpsert,
		applog.FieldPeriod, b.Period.String(),
		applog.FieldCategory, b.Category,
		applog.FieldAmountMinor, b.Ceiling.Minor)
	return nil
}

// LoadForPeriod returns category -> ceiling for period only. When the file
// holds several lines for one category the last one wins.
func (s *FileStore) LoadForPeriod(ctx context.Context, period core.Period) (map[string]core.Money, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.Money)
	for _, b := range all {
		if b.Period == period {
			out[b.Category] = b.Ceiling
		}
	}
	return out, nil
}

// LoadAll returns every valid budget line in file order.
func (s *FileStore) LoadAll(ctx context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	lines, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []core.Budget
	for i, l := range lines {
		if !l.ok {
			fields := applog.NewFields().
				WithOperation(applog.OpParse).
				WithLine(s.path, i+1, l.raw).
				WithError(l.err)
			s.logger.WarnContext(ctx, "Skipping malformed budget line", fields.ToSlice()...)
			continue
		}
		out = append(out, l.budget)
	}
	return out, nil
}

// RewriteAll replaces the whole file with budgets.
func (s *FileStore) RewriteAll(ctx context.Context, budgets []core.Budget) error {
	var buf bytes.Buffer
	for _, b := range budgets {
		l, err := FormatLine(b)
		if err != nil {
			return err
		}
		buf.WriteString(l + "\n")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ledger.ReplaceFile(s.path, buf.Bytes()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budgets rewritten",
		applog.FieldOperation, applog.OpRewrite,
		"count", len(budgets))
	return nil
}

func (s *FileStore) read() ([]line, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, core.IOFailure("open budgets", err)
	}
	defer f.Close()
	lines, err := readLines(f)
	if err != nil {
		return nil, core.IOFailure("read budgets", err)
	}
	return lines, nil
}
