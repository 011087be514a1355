package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

// Document is a full backup: every transaction and the latest ceiling of
// every category across all periods.
type Document struct {
	Transactions []Record         `json:"transactions"`
	Budgets      map[string]int64 `json:"budgets"`
}

// BackupLedger is the ledger side of backup and restore.
type BackupLedger interface {
	LoadAll(ctx context.Context) ([]core.Transaction, error)
	RewriteAll(ctx context.Context, txs []core.Transaction) error
}

// BackupBudgets is the budget side of backup and restore.
type BackupBudgets interface {
	LoadAll(ctx context.Context) ([]core.Budget, error)
	RewriteAll(ctx context.Context, budgets []core.Budget) error
}

// RestoreResult counts what a restore wrote.
type RestoreResult struct {
	Transactions int
	Budgets      int
	Skipped      int
}

// Backups creates and restores backup documents.
type Backups struct {
	ledger  BackupLedger
	budgets BackupBudgets
	logger  *applog.Logger
}

func NewBackups(l BackupLedger, b BackupBudgets, logger *applog.Logger) *Backups {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Backups{ledger: l, budgets: b, logger: logger.WithComponent(applog.ComponentBackup)}
}

// Create snapshots both stores.
func (b *Backups) Create(ctx context.Context) (Document, error) {
	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = b.ledger.LoadAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = b.budgets.LoadAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Document{}, err
	}

	return Document{Transactions: recordsOf(txs), Budgets: latestCeilings(budgets)}, nil
}

// latestCeilings maps each category to the ceiling of its most recent
// period. Within one period the later line wins.
func latestCeilings(budgets []core.Budget) map[string]int64 {
	latest := make(map[string]core.Budget)
	for _, bud := range budgets {
		if cur, ok := latest[bud.Category]; ok && bud.Period.Before(cur.Period) {
			continue
		}
		latest[bud.Category] = bud
	}
	out := make(map[string]int64, len(latest))
	for c, bud := range latest {
		out[c] = bud.Ceiling.Minor
	}
	return out
}

// CreateFile writes a backup to path.
func (b *Backups) CreateFile(ctx context.Context, path string) (Document, error) {
	doc, err := b.Create(ctx)
	if err != nil {
		return Document{}, err
	}
	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		return Document{}, err
	}
	if err := ledger.ReplaceFile(path, buf.Bytes()); err != nil {
		return Document{}, err
	}
	b.logger.InfoContext(ctx, "Backup created",
		applog.FieldOperation, applog.OpBackup,
		applog.FieldFile, path,
		"transactions", len(doc.Transactions),
		"budgets", len(doc.Budgets))
	return doc, nil
}

// WriteDocument encodes doc as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(doc)
}

type rawDocument struct {
	Transactions []json.RawMessage `json:"transactions"`
	Budgets      map[string]any    `json:"budgets"`
}

type parsedBackup struct {
	transactions []core.Transaction
	budgets      map[string]core.Money
	skipped      int
}

func readDocument(r io.Reader) (parsedBackup, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw rawDocument
	if err := dec.Decode(&raw); err != nil {
		return parsedBackup{}, fmt.Errorf("%w: invalid backup file: %v", core.ErrValidation, err)
	}

	var p parsedBackup
	for _, c := range objectsToCandidates(raw.Transactions) {
		if c.Err != nil {
			p.skipped++
			continue
		}
		p.transactions = append(p.transactions, c.Transaction)
	}

	p.budgets = make(map[string]core.Money, len(raw.Budgets))
	for category, v := range raw.Budgets {
		text, ok := scalarText(v)
		if !ok {
			p.skipped++
			continue
		}
		m, err := parseMinor(text)
		if err != nil || !core.Encodable(category) || category == "" {
			p.skipped++
			continue
		}
		p.budgets[category] = m
	}
	return p, nil
}

// Restore replaces both stores with the content of r. Every restored
// budget is stamped with period, whatever period it was saved under.
// Invalid records are skipped and counted. If the budgets cannot be
// written the previous ledger is put back.
func (b *Backups) Restore(ctx context.Context, r io.Reader, period core.Period) (RestoreResult, error) {
	p, err := readDocument(r)
	if err != nil {
		return RestoreResult{}, err
	}

	categories := make([]string, 0, len(p.budgets))
	for c := range p.budgets {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	budgets := make([]core.Budget, 0, len(categories))
	for _, c := range categories {
		budgets = append(budgets, core.Budget{Period: period, Category: c, Ceiling: p.budgets[c]})
	}

	previous, err := b.ledger.LoadAll(ctx)
	if err != nil {
		return RestoreResult{}, err
	}
	if err := b.ledger.RewriteAll(ctx, p.transactions); err != nil {
		return RestoreResult{}, err
	}
	if err := b.budgets.RewriteAll(ctx, budgets); err != nil {
		if rbErr := b.ledger.RewriteAll(ctx, previous); rbErr != nil {
			b.logger.ErrorContext(ctx, "Failed to roll back ledger after restore error",
				applog.FieldOperation, applog.OpRestore,
				applog.FieldError, rbErr.Error())
			return RestoreResult{}, errors.Join(err, rbErr)
		}
		return RestoreResult{}, err
	}

	res := RestoreResult{Transactions: len(p.transactions), Budgets: len(budgets), Skipped: p.skipped}
	b.logger.InfoContext(ctx, "Backup restored",
		applog.FieldOperation, applog.OpRestore,
		applog.FieldPeriod, period.String(),
		"transactions", res.Transactions,
		"budgets", res.Budgets,
		applog.FieldSkipped, res.Skipped)
	return res, nil
}

// RestoreFile restores from path. A missing file is ErrNotFound.
func (b *Backups) RestoreFile(ctx context.Context, path string, period core.Period) (RestoreResult, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return RestoreResult{}, core.NotFound("open backup file", err)
	}
	if err != nil {
		return RestoreResult{}, core.IOFailure("open backup file", err)
	}
	defer f.Close()
	return b.Restore(ctx, f, period)
}
