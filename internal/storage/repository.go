// Package storage is the SQLite variant of the ledger and budget stores.
// It keeps the same contracts as the flat files: records come back in
// insertion order and a (period, category) pair has at most one ceiling.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, core.IOFailure("create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, core.IOFailure("open sqlite database", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, core.IOFailure("ping database", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, core.IOFailure("migrate database", err)
	}

	return &SQLiteRepository{db: db, logger: logger.WithComponent(applog.ComponentStorage)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ledger returns the transaction store view of the repository.
func (r *SQLiteRepository) Ledger() *LedgerTable {
	return &LedgerTable{repo: r}
}

// Budgets returns the budget store view of the repository.
func (r *SQLiteRepository) Budgets() *BudgetTable {
	return &BudgetTable{repo: r}
}

// LedgerTable stores transactions in the transactions table.
type LedgerTable struct {
	repo *SQLiteRepository
}

const insertTransaction = `INSERT INTO transactions (timestamp, kind, category, description, amount) VALUES (?, ?, ?, ?, ?)`

func (l *LedgerTable) Append(ctx context.Context, t core.Transaction) error {
	return l.AppendAll(ctx, []core.Transaction{t})
}

// AppendAll inserts txs in one database transaction.
func (l *LedgerTable) AppendAll(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return core.Malformed(fmt.Sprintf("append record %d", i+1), err)
		}
	}
	err := l.repo.inTx(ctx, func(tx *sql.Tx) error {
		return insertAll(ctx, tx, txs)
	})
	if err != nil {
		return core.IOFailure("append transactions", err)
	}
	l.repo.logger.DebugContext(ctx, "Transactions inserted",
		applog.FieldOperation, applog.OpAppend,
		"count", len(txs))
	return nil
}

// LoadAll returns every transaction in insertion order.
func (l *LedgerTable) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := l.repo.db.QueryContext(ctx,
		`SELECT timestamp, kind, category, description, amount FROM transactions ORDER BY id`)
	if err != nil {
		return nil, core.IOFailure("query transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			kind string
		)
		if err := rows.Scan(&t.Timestamp, &kind, &t.Category, &t.Description, &t.Amount.Minor); err != nil {
			return nil, core.IOFailure("scan transaction", err)
		}
		t.Kind = core.Kind(kind)
		if err := t.Validate(); err != nil {
			l.repo.logger.WarnContext(ctx, "Skipping invalid transaction row",
				applog.FieldOperation, applog.OpLoad,
				applog.FieldError, err.Error())
			continue
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.IOFailure("iterate transactions", err)
	}
	return out, nil
}

// RewriteAll replaces the table content in a single database transaction.
func (l *LedgerTable) RewriteAll(ctx context.Context, txs []core.Transaction) error {
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return core.Malformed(fmt.Sprintf("rewrite record %d", i+1), err)
		}
	}
	err := l.repo.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return err
		}
		return insertAll(ctx, tx, txs)
	})
	if err != nil {
		return core.IOFailure("rewrite transactions", err)
	}
	l.repo.logger.InfoContext(ctx, "Ledger rewritten",
		applog.FieldOperation, applog.OpRewrite,
		"count", len(txs))
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, txs []core.Transaction) error {
	stmt, err := tx.PrepareContext(ctx, insertTransaction)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx, t.Timestamp, string(t.Kind), t.Category, t.Description, t.Amount.Minor); err != nil {
			return err
		}
	}
	return nil
}

// BudgetTable stores ceilings in the budgets table.
type BudgetTable struct {
	repo *SQLiteRepository
}

// SetCeiling upserts the ceiling of (period, category).
func (b *BudgetTable) SetCeiling(ctx context.Context, period core.Period, category string, ceiling core.Money) error {
	category = strings.TrimSpace(category)
	budget := core.Budget{Period: period, Category: category, Ceiling: ceiling}
	if err := budget.Validate(); err != nil {
		return err
	}
	_, err := b.repo.db.ExecContext(ctx, `
		INSERT INTO budgets (period, category, ceiling) VALUES (?, ?, ?)
		ON CONFLICT (period, category) DO UPDATE SET ceiling = excluded.ceiling`,
		period.String(), category, ceiling.Minor)
	if err != nil {
		return core.IOFailure("upsert budget", err)
	}
	b.repo.logger.InfoContext(ctx, "Budget ceiling saved",
		applog.FieldOperation, applog.OpUpsert,
		applog.FieldPeriod, period.String(),
		applog.FieldCategory, category,
		applog.FieldAmountMinor, ceiling.Minor)
	return nil
}

func (b *BudgetTable) LoadForPeriod(ctx context.Context, period core.Period) (map[string]core.Money, error) {
	rows, err := b.repo.db.QueryContext(ctx,
		`SELECT category, ceiling FROM budgets WHERE period = ? ORDER BY id`, period.String())
	if err != nil {
		return nil, core.IOFailure("query budgets", err)
	}
	defer rows.Close()

	out := make(map[string]core.Money)
	for rows.Next() {
		var (
			category string
			ceiling  int64
		)
		if err := rows.Scan(&category, &ceiling); err != nil {
			return nil, core.IOFailure("scan budget", err)
		}
		out[category] = core.Money{Minor: ceiling}
	}
	if err := rows.Err(); err != nil {
		return nil, core.IOFailure("iterate budgets", err)
	}
	return out, nil
}

func (b *BudgetTable) LoadAll(ctx context.Context) ([]core.Budget, error) {
	rows, err := b.repo.db.QueryContext(ctx, `SELECT period, category, ceiling FROM budgets ORDER BY id`)
	if err != nil {
		return nil, core.IOFailure("query budgets", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			period string
			bud    core.Budget
		)
		if err := rows.Scan(&period, &bud.Category, &bud.Ceiling.Minor); err != nil {
			return nil, core.IOFailure("scan budget", err)
		}
		p, err := core.ParsePeriod(period)
		if err != nil {
			b.repo.logger.WarnContext(ctx, "Skipping budget with invalid period",
				applog.FieldOperation, applog.OpLoad,
				applog.FieldPeriod, period)
			continue
		}
		bud.Period = p
		out = append(out, bud)
	}
	if err := rows.Err(); err != nil {
		return nil, core.IOFailure("iterate budgets", err)
	}
	return out, nil
}

// RewriteAll replaces every budget. Later entries for the same pair win.
func (b *BudgetTable) RewriteAll(ctx context.Context, budgets []core.Budget) error {
	for _, bud := range budgets {
		if err := bud.Validate(); err != nil {
			return core.Malformed("rewrite budgets", err)
		}
	}
	err := b.repo.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets`); err != nil {
			return err
		}
		for _, bud := range budgets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO budgets (period, category, ceiling) VALUES (?, ?, ?)
				ON CONFLICT (period, category) DO UPDATE SET ceiling = excluded.ceiling`,
				bud.Period.String(), bud.Category, bud.Ceiling.Minor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.IOFailure("rewrite budgets", err)
	}
	b.repo.logger.InfoContext(ctx, "Budgets rewritten",
		applog.FieldOperation, applog.OpRewrite,
		"count", len(budgets))
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
