package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/transfer"
)

// LedgerStore is the transaction store used by the service.
type LedgerStore interface {
	Append(ctx context.Context, t core.Transaction) error
	AppendAll(ctx context.Context, txs []core.Transaction) error
	LoadAll(ctx context.Context) ([]core.Transaction, error)
	RewriteAll(ctx context.Context, txs []core.Transaction) error
}

// BudgetStore is the ceiling store used by the service.
type BudgetStore interface {
	SetCeiling(ctx context.Context, period core.Period, category string, ceiling core.Money) error
	LoadForPeriod(ctx context.Context, period core.Period) (map[string]core.Money, error)
	LoadAll(ctx context.Context) ([]core.Budget, error)
	RewriteAll(ctx context.Context, budgets []core.Budget) error
}

// EventPublisher announces ledger changes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Options configures a LedgerService. Zero values pick the system clock
// in local time, the default taxonomy and no publisher.
type Options struct {
	Clock          core.Clock
	Taxonomy       *core.Taxonomy
	Publisher      EventPublisher
	Logger         *applog.Logger
	AlertThreshold float64
	// Closers are closed by Close after the publisher, e.g. a database.
	Closers []io.Closer
}

// LedgerService runs every user-facing operation over the stores.
type LedgerService struct {
	ledger    LedgerStore
	budgets   BudgetStore
	clock     core.Clock
	taxonomy  core.Taxonomy
	publisher EventPublisher
	logger    *applog.Logger
	threshold float64
	closers   []io.Closer
	importer  *transfer.Importer
	backups   *transfer.Backups
}

func NewLedgerService(ledger LedgerStore, budgets BudgetStore, opts Options) *LedgerService {
	if opts.Clock == nil {
		opts.Clock = core.SystemClock{}
	}
	tax := core.DefaultTaxonomy
	if opts.Taxonomy != nil {
		tax = *opts.Taxonomy
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.AlertThreshold <= 0 {
		opts.AlertThreshold = analytics.DefaultAlertThreshold
	}
	return &LedgerService{
		ledger:    ledger,
		budgets:   budgets,
		clock:     opts.Clock,
		taxonomy:  tax,
		publisher: opts.Publisher,
		logger:    opts.Logger.WithComponent(applog.ComponentApp),
		threshold: opts.AlertThreshold,
		closers:   opts.Closers,
		importer:  transfer.NewImporter(ledger, opts.Logger),
		backups:   transfer.NewBackups(ledger, budgets, opts.Logger),
	}
}

// Clock returns the time context shared by every operation.
func (s *LedgerService) Clock() core.Clock {
	return s.clock
}

// Taxonomy returns the category lists.
func (s *LedgerService) Taxonomy() core.Taxonomy {
	return s.taxonomy
}

// CurrentPeriod is the month containing now.
func (s *LedgerService) CurrentPeriod() core.Period {
	return core.CurrentPeriod(s.clock)
}

// AddTransaction validates e and appends it to the ledger.
func (s *LedgerService) AddTransaction(ctx context.Context, e core.Entry) (core.Transaction, error) {
	t, err := core.NewTransaction(e, s.clock)
	if err != nil {
		return core.Transaction{}, err
	}
	if !s.taxonomy.Has(t.Kind, t.Category) {
		s.logger.WarnContext(ctx, "Category outside the taxonomy",
			applog.FieldKind, string(t.Kind),
			applog.FieldCategory, t.Category)
	}
	if err := s.ledger.Append(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpAppend).
		WithTransaction(string(t.Kind), t.Category, t.Amount.Minor)
	s.logger.InfoContext(ctx, "Transaction added", fields.ToSlice()...)

	s.publish(ctx, amqp.NewTransactionEvent(t, s.clock.Location()))
	return t, nil
}

// List returns the filtered history, newest first.
func (s *LedgerService) List(ctx context.Context, f analytics.ListFilter) ([]core.Transaction, error) {
	txs, err := s.ledger.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.FilterTransactions(txs, f, s.clock.Now()), nil
}

// Balance returns income, expense and balance of period.
func (s *LedgerService) Balance(ctx context.Context, period core.Period) (analytics.Totals, error) {
	txs, err := s.periodTransactions(ctx, period)
	if err != nil {
		return analytics.Totals{}, err
	}
	return analytics.ComputeTotals(txs), nil
}

// SetBudget sets the ceiling of category for the current period. amount
// is in major units.
func (s *LedgerService) SetBudget(ctx context.Context, category, amount string) (core.Budget, error) {
	ceiling, err := core.ParseMoney(amount)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{Period: s.CurrentPeriod(), Category: strings.TrimSpace(category), Ceiling: ceiling}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.budgets.SetCeiling(ctx, b.Period, b.Category, b.Ceiling); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventBudgetSet, b.Period)
	ev.Category = b.Category
	ev.Amount = b.Ceiling.Minor
	s.publish(ctx, ev)
	return b, nil
}

// BudgetReport compares the period's expenses with its ceilings.
func (s *LedgerService) BudgetReport(ctx context.Context, period core.Period) (analytics.BudgetReport, error) {
	txs, ceilings, err := s.snapshot(ctx, period)
	if err != nil {
		return analytics.BudgetReport{}, err
	}
	return s.budgetReport(period, txs, ceilings), nil
}

func (s *LedgerService) budgetReport(period core.Period, txs []core.Transaction, ceilings map[string]core.Money) analytics.BudgetReport {
	expenses := analytics.OfKind(analytics.InPeriod(txs, period, s.clock.Location()), core.Expense)
	return analytics.BuildBudgetReport(period, expenses, ceilings, s.taxonomy.For(core.Expense))
}

// SpendingAnalysis is the expense breakdown of a period.
type SpendingAnalysis struct {
	Period    core.Period
	Breakdown analytics.Breakdown
	Top       []analytics.CategoryTotal
	// BurnRate is the average daily expense over the elapsed days.
	BurnRate core.Money
}

func (s *LedgerService) SpendingAnalysis(ctx context.Context, period core.Period) (SpendingAnalysis, error) {
	txs, err := s.periodTransactions(ctx, period)
	if err != nil {
		return SpendingAnalysis{}, err
	}
	return s.spending(period, txs), nil
}

func (s *LedgerService) spending(period core.Period, periodTxs []core.Transaction) SpendingAnalysis {
	b := analytics.CategoryBreakdown(analytics.OfKind(periodTxs, core.Expense), s.taxonomy.For(core.Expense))
	return SpendingAnalysis{
		Period:    period,
		Breakdown: b,
		Top:       b.Top(3),
		BurnRate:  analytics.DailyBurnRate(b.Total, s.elapsedDay(period)),
	}
}

// elapsedDay is now for the current period and the last day of any other.
func (s *LedgerService) elapsedDay(period core.Period) time.Time {
	now := s.clock.Now()
	if period == core.PeriodOf(now) {
		return now
	}
	return time.Date(period.Year, period.Month, period.Days(), 12, 0, 0, 0, s.clock.Location())
}

// IncomeAnalysis is the income breakdown of a period.
type IncomeAnalysis struct {
	Period    core.Period
	Breakdown analytics.Breakdown
}

func (s *LedgerService) IncomeAnalysis(ctx context.Context, period core.Period) (IncomeAnalysis, error) {
	txs, err := s.periodTransactions(ctx, period)
	if err != nil {
		return IncomeAnalysis{}, err
	}
	return IncomeAnalysis{
		Period:    period,
		Breakdown: analytics.CategoryBreakdown(analytics.OfKind(txs, core.Income), s.taxonomy.For(core.Income)),
	}, nil
}

func (s *LedgerService) Savings(ctx context.Context, period core.Period) (analytics.Savings, error) {
	txs, err := s.periodTransactions(ctx, period)
	if err != nil {
		return analytics.Savings{}, err
	}
	return analytics.ComputeSavings(txs), nil
}

// DailyCheck evaluates today's spending against this month's budgets.
func (s *LedgerService) DailyCheck(ctx context.Context) (analytics.DailyCheck, error) {
	now := s.clock.Now()
	txs, ceilings, err := s.snapshot(ctx, core.PeriodOf(now))
	if err != nil {
		return analytics.DailyCheck{}, err
	}
	return analytics.BuildDailyCheck(txs, ceilings, now, s.threshold), nil
}

// Export writes the transactions inside rng to path and returns how many
// were written.
func (s *LedgerService) Export(ctx context.Context, path string, f transfer.Format, rng transfer.Range) (int, error) {
	txs, err := s.ledger.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	selected := rng.Apply(txs, s.clock.Location())
	if err := transfer.ExportFile(path, f, selected); err != nil {
		return 0, fmt.Errorf("export transactions: %w", err)
	}
	s.logger.InfoContext(ctx, "Transactions exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldFile, path,
		"range", rng.String(),
		"count", len(selected))
	return len(selected), nil
}

// ExportTo writes the transactions inside rng to w.
func (s *LedgerService) ExportTo(ctx context.Context, w io.Writer, f transfer.Format, rng transfer.Range) (int, error) {
	txs, err := s.ledger.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	selected := rng.Apply(txs, s.clock.Location())
	return len(selected), transfer.Export(w, f, selected)
}

// Import merges the file at path into the ledger.
func (s *LedgerService) Import(ctx context.Context, path string, f transfer.Format) (transfer.ImportResult, error) {
	res, err := s.importer.ImportFile(ctx, path, f)
	if err != nil {
		return transfer.ImportResult{}, err
	}
	if res.Imported > 0 {
		ev := amqp.NewLedgerEvent(amqp.EventTransactionsImported, s.CurrentPeriod())
		ev.Count = res.Imported
		s.publish(ctx, ev)
	}
	return res, nil
}

// Backup writes a full backup to path.
func (s *LedgerService) Backup(ctx context.Context, path string) (transfer.Document, error) {
	return s.backups.CreateFile(ctx, path)
}

// Restore replaces both stores from the backup at path. Budgets are
// stamped with the current period.
func (s *LedgerService) Restore(ctx context.Context, path string) (transfer.RestoreResult, error) {
	period := s.CurrentPeriod()
	res, err := s.backups.RestoreFile(ctx, path, period)
	if err != nil {
		return transfer.RestoreResult{}, err
	}
	ev := amqp.NewLedgerEvent(amqp.EventLedgerRestored, period)
	ev.Count = res.Transactions
	s.publish(ctx, ev)
	return res, nil
}

// Dashboard is the overview of one period.
type Dashboard struct {
	Period   core.Period
	Totals   analytics.Totals
	Savings  analytics.Savings
	Budgets  analytics.BudgetReport
	Spending SpendingAnalysis
	Recent   []core.Transaction
}

// Dashboard assembles every view of period plus the recent transactions
// across all periods.
func (s *LedgerService) Dashboard(ctx context.Context, period core.Period, recent int) (Dashboard, error) {
	txs, ceilings, err := s.snapshot(ctx, period)
	if err != nil {
		return Dashboard{}, err
	}
	periodTxs := analytics.InPeriod(txs, period, s.clock.Location())
	savings := analytics.ComputeSavings(periodTxs)
	return Dashboard{
		Period:   period,
		Totals:   savings.Totals,
		Savings:  savings,
		Budgets:  s.budgetReport(period, txs, ceilings),
		Spending: s.spending(period, periodTxs),
		Recent:   analytics.Recent(txs, recent),
	}, nil
}

// Close releases the publisher and the extra closers.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MirrorPeriod appends every transaction of period, in ledger order, to
// an external sheet and returns how many rows were written.
func (s *LedgerService) MirrorPeriod(ctx context.Context, period core.Period, sheet sheets.TransactionExporter) (int, error) {
	txs, err := s.periodTransactions(ctx, period)
	if err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}
	n, err := sheet.AppendTransactions(ctx, txs)
	if err != nil {
		return n, fmt.Errorf("mirror %s: %w", period, err)
	}
	s.logger.Info("Mirrored transactions to sheet", applog.FieldPeriod, period.String(), "rows", n)
	return n, nil
}

func (s *LedgerService) periodTransactions(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	txs, err := s.ledger.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.InPeriod(txs, period, s.clock.Location()), nil
}

// snapshot loads the whole ledger and the ceilings of period concurrently.
func (s *LedgerService) snapshot(ctx context.Context, period core.Period) ([]core.Transaction, map[string]core.Money, error) {
	var (
		txs      []core.Transaction
		ceilings map[string]core.Money
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.ledger.LoadAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ceilings, err = s.budgets.LoadForPeriod(gctx, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, ceilings, nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping event", applog.FieldEventType, string(ev.Type))
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldEventID, ev.ID,
			applog.FieldEventType, string(ev.Type),
			applog.FieldError, err.Error())
	}
}
