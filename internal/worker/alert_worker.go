package worker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Read sides of the stores the worker inspects.
type (
	TransactionLoader interface {
		LoadAll(ctx context.Context) ([]core.Transaction, error)
	}
	CeilingLoader interface {
		LoadForPeriod(ctx context.Context, period core.Period) (map[string]core.Money, error)
	}
)

// AlertWorker reacts to ledger events: it flags categories whose
// utilisation crosses the threshold and optionally mirrors appended
// transactions to a sheet.
type AlertWorker struct {
	ledger    TransactionLoader
	budgets   CeilingLoader
	mirror    sheets.TransactionWriter
	loc       *time.Location
	threshold float64
	logger    *applog.Logger
}

func NewAlertWorker(ledger TransactionLoader, budgets CeilingLoader, mirror sheets.TransactionWriter, loc *time.Location, threshold float64, logger *applog.Logger) *AlertWorker {
	if loc == nil {
		loc = time.Local
	}
	if threshold <= 0 {
		threshold = analytics.DefaultAlertThreshold
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &AlertWorker{
		ledger:    ledger,
		budgets:   budgets,
		mirror:    mirror,
		loc:       loc,
		threshold: threshold,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent processes one event. Returning an error asks the broker to
// redeliver it.
func (w *AlertWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		applog.FieldEventID, ev.ID,
		applog.FieldEventType, string(ev.Type),
		applog.FieldPeriod, ev.Period)

	period, err := core.ParsePeriod(ev.Period)
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping event with invalid period",
			applog.FieldEventID, ev.ID,
			applog.FieldError, err.Error())
		return nil
	}

	var only string
	switch ev.Type {
	case amqp.EventTransactionAppended:
		tx, err := ev.Transaction()
		if err != nil {
			w.logger.WarnContext(ctx, "Dropping event with invalid transaction",
				applog.FieldEventID, ev.ID,
				applog.FieldError, err.Error())
			return nil
		}
		if w.mirror != nil {
			if _, err := w.mirror.AppendTransaction(ctx, tx); err != nil {
				return fmt.Errorf("mirror transaction: %w", err)
			}
		}
		if tx.Kind != core.Expense {
			return nil
		}
		only = tx.Category
	case amqp.EventBudgetSet:
		only = ev.Category
	case amqp.EventTransactionsImported, amqp.EventLedgerRestored:
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event type", applog.FieldEventType, string(ev.Type))
		return nil
	}

	alerts, err := w.Evaluate(ctx, period)
	if err != nil {
		return err
	}
	for _, a := range alerts {
		if only != "" && a.Category != only {
			continue
		}
		w.logger.WarnContext(ctx, "Budget alert",
			applog.FieldPeriod, period.String(),
			applog.FieldCategory, a.Category,
			"spent", a.Spent.String(),
			"ceiling", a.Ceiling.String(),
			"utilization", fmt.Sprintf("%.1f%%", a.Utilization))
	}
	return nil
}

// Evaluate returns the budgeted categories of period whose utilisation
// exceeds the threshold, sorted by category.
func (w *AlertWorker) Evaluate(ctx context.Context, period core.Period) ([]analytics.Alert, error) {
	var (
		txs      []core.Transaction
		ceilings map[string]core.Money
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = w.ledger.LoadAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ceilings, err = w.budgets.LoadForPeriod(gctx, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	expenses := analytics.OfKind(analytics.InPeriod(txs, period, w.loc), core.Expense)
	var alerts []analytics.Alert
	for category, ceiling := range ceilings {
		if ceiling.Minor <= 0 {
			continue
		}
		spent := analytics.ComputeTotals(byCategory(expenses, category)).Expense
		if u := analytics.Utilization(spent, ceiling); u > w.threshold {
			alerts = append(alerts, analytics.Alert{Category: category, Spent: spent, Ceiling: ceiling, Utilization: u})
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Category < alerts[j].Category })
	return alerts, nil
}

func byCategory(txs []core.Transaction, category string) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}
