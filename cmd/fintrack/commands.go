package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/charts"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/transfer"
)

var commands = map[string]command{
	"add-expense": {"record an expense", func(a *app, ctx context.Context, args []string) error {
		return a.addTransaction(ctx, core.Expense, args)
	}},
	"add-income": {"record an income", func(a *app, ctx context.Context, args []string) error {
		return a.addTransaction(ctx, core.Income, args)
	}},
	"list":       {"list transactions, newest first", (*app).list},
	"balance":    {"income, expenses and balance of a month", (*app).balance},
	"budget-set": {"set this month's ceiling of a category", (*app).budgetSet},
	"budgets":    {"budget vs. spending of a month", (*app).budgets},
	"spending":   {"spending analysis of a month", (*app).spending},
	"income":     {"income analysis of a month", (*app).income},
	"savings":    {"savings and savings rate of a month", (*app).savings},
	"check":      {"today's spending against this month's budgets", (*app).check},
	"dashboard":  {"overview of a month with recent transactions", (*app).dashboard},
	"export":     {"export transactions to CSV or JSON", (*app).export},
	"import":     {"import transactions from CSV or JSON, skipping duplicates", (*app).importFile},
	"backup":     {"write a full JSON backup", (*app).backup},
	"restore":    {"replace all data from a JSON backup", (*app).restore},
	"chart":      {"render a month's spending or budgets as PNG", (*app).chart},
	"serve":      {"serve the dashboard JSON API", (*app).serve},

	"sheets-export": {"append a month's transactions to the Google Sheet", (*app).sheetsExport},
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// periodFlag registers -period, defaulting to the current month.
func (a *app) periodFlag(fs *flag.FlagSet) func() (core.Period, error) {
	v := fs.String("period", "", "month as YYYY-MM (default: current month)")
	return func() (core.Period, error) {
		if *v == "" {
			return a.svc.CurrentPeriod(), nil
		}
		return core.ParsePeriod(*v)
	}
}

func (a *app) addTransaction(ctx context.Context, kind core.Kind, args []string) error {
	fs := a.flags("add-" + string(kind))
	amount := fs.String("amount", "", "amount in major units, e.g. 12.50")
	category := fs.String("category", "", "category (prompted when empty)")
	description := fs.String("description", "", "free text without commas")
	date := fs.String("date", "", "YYYY-MM-DD (default: now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *category == "" {
		picked, ok := a.prompt.Select("Select a category:", a.svc.Taxonomy().For(kind))
		if !ok {
			a.sink.Warn("Cancelled.")
			return nil
		}
		*category = picked
	}

	t, err := a.svc.AddTransaction(ctx, core.Entry{
		Kind:        kind,
		Amount:      *amount,
		Category:    *category,
		Description: *description,
		Date:        *date,
	})
	if err != nil {
		return err
	}
	a.sink.Success("%s of %s added under %s.", kind.Label(), t.Amount, t.Category)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flags("list")
	filter := fs.String("filter", "all", "all, last-7-days, expenses or income")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, ok := analytics.ParseListFilter(*filter)
	if !ok {
		return fmt.Errorf("%w: unknown filter %q", core.ErrValidation, *filter)
	}
	txs, err := a.svc.List(ctx, f)
	if err != nil {
		return err
	}
	a.sink.Transactions("Transactions ("+f.String()+")", txs)
	return nil
}

func (a *app) balance(ctx context.Context, args []string) error {
	fs := a.flags("balance")
	period := a.periodFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}
	totals, err := a.svc.Balance(ctx, p)
	if err != nil {
		return err
	}
	a.sink.Balance(p, totals)
	return nil
}

func (a *app) budgetSet(ctx context.Context, args []string) error {
	fs := a.flags("budget-set")
	category := fs.String("category", "", "expense category (prompted when empty)")
	amount := fs.String("amount", "", "monthly ceiling in major units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *category == "" {
		picked, ok := a.prompt.Select("Select a category:", a.svc.Taxonomy().For(core.Expense))
		if !ok {
			a.sink.Warn("Budget setting cancelled.")
			return nil
		}
		*category = picked
	}
	b, err := a.svc.SetBudget(ctx, *category, *amount)
	if err != nil {
		return err
	}
	a.sink.Success("Budget of %s set for %s for %s.", b.Ceiling, b.Category, b.Period)
	return nil
}

func (a *app) budgets(ctx context.Context, args []string) error {
	fs := a.flags("budgets")
	period := a.periodFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}
	r, err := a.svc.BudgetReport(ctx, p)
	if err != nil {
		return err
	}
	a.sink.BudgetReport(r)
	return nil
}

func (a *app) spending(ctx context.Context, args []string) error {
	fs := a.flags("spending")
	period := a.periodFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}
	s, err := a.svc.SpendingAnalysis(ctx, p)
	if err != nil {
		return err
	}
	a.sink.Spending(s)
	return nil
}

func (a *app) income(ctx context.Context, args []string) error {
	fs := a.flags("income")
	period := a.periodFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}
	in, err := a.svc.IncomeAnalysis(ctx, p)
	if err != nil {
		return err
	}
	a.sink.Income(in)
	return nil
}

func (a *app) savings(ctx context.Context, args []string) error {
	fs := a.flags("savings")
	period := a.periodFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}
	s, err := a.svc.Savings(ctx, p)
	if err != nil {
		return err
	}
	a.sink.Savings(p, s)
	return nil
}

func (a *app) check(ctx context.Context, args []string) error {
	if err := a.flags("check").Parse(args); err != nil {
		return err
	}
	d, err := a.svc.DailyCheck(ctx)
	if err != nil {
		return err
	}
	a.sink.DailyCheck(d)
	return nil
}

func (a *app) dashboard(ctx context.Context, args []string) error {
	fs := a.flags("dashboard")
	period := a.periodFlag(fs)
	recent := fs.Int("recent", 10, "number of recent transactions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}
	d, err := a.svc.Dashboard(ctx, p, *recent)
	if err != nil {
		return err
	}
	a.sink.Dashboard(d)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.flags("export")
	format := fs.String("format", "csv", "csv or json")
	out := fs.String("out", "", "output file, - for stdout (default: transactions_export_<date>.<format>)")
	period := fs.String("period", "", "only this month, YYYY-MM")
	year := fs.Int("year", 0, "only this calendar year")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := transfer.ParseFormat(*format)
	if err != nil {
		return err
	}
	rng := transfer.AllTime()
	switch {
	case *period != "" && *year != 0:
		return fmt.Errorf("%w: -period and -year are exclusive", core.ErrValidation)
	case *period != "":
		p, err := core.ParsePeriod(*period)
		if err != nil {
			return err
		}
		rng = transfer.ForPeriod(p)
	case *year != 0:
		rng = transfer.ForYear(*year)
	}

	if *out == "-" {
		_, err := a.svc.ExportTo(ctx, a.stdout, f, rng)
		return err
	}
	path := *out
	if path == "" {
		path = transfer.ExportFileName(f, a.svc.Clock().Now())
	}
	n, err := a.svc.Export(ctx, path, f, rng)
	if err != nil {
		return err
	}
	a.sink.Success("Exported %d transactions (%s) to %s.", n, rng, path)
	return nil
}

func (a *app) importFile(ctx context.Context, args []string) error {
	fs := a.flags("import")
	format := fs.String("format", "", "csv or json (default: from the file extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := onePath(fs)
	if err != nil {
		return err
	}
	f, err := formatFor(*format, path)
	if err != nil {
		return err
	}
	res, err := a.svc.Import(ctx, path, f)
	if err != nil {
		return err
	}
	a.sink.ImportResult(path, res)
	return nil
}

func (a *app) backup(ctx context.Context, args []string) error {
	fs := a.flags("backup")
	out := fs.String("out", "", "output file (default: finance_tracker_backup_<date>.json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = transfer.BackupFileName(a.svc.Clock().Now())
	}
	doc, err := a.svc.Backup(ctx, path)
	if err != nil {
		return err
	}
	a.sink.Success("Backup of %d transactions and %d budgets written to %s.", len(doc.Transactions), len(doc.Budgets), path)
	return nil
}

func (a *app) restore(ctx context.Context, args []string) error {
	fs := a.flags("restore")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := onePath(fs)
	if err != nil {
		return err
	}

	confirm := a.confirm
	if *yes {
		confirm = cli.AlwaysConfirm{}
	}
	if !confirm.Confirm("Restoring replaces every transaction and budget. Continue?") {
		a.sink.Warn("Restore cancelled.")
		return nil
	}

	res, err := a.svc.Restore(ctx, path)
	if err != nil {
		return err
	}
	a.sink.RestoreResult(path, res)
	return nil
}

func (a *app) chart(ctx context.Context, args []string) error {
	fs := a.flags("chart")
	period := a.periodFlag(fs)
	kind := fs.String("kind", "spending", "spending or budgets")
	out := fs.String("out", "", "output PNG (default: <kind>_<period>.png)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}

	var img []byte
	switch *kind {
	case "spending":
		s, err := a.svc.SpendingAnalysis(ctx, p)
		if err != nil {
			return err
		}
		img, err = charts.DistributionPie("Spending "+p.Label(), s.Breakdown)
		if err != nil {
			return chartError(err, p)
		}
	case "budgets":
		r, err := a.svc.BudgetReport(ctx, p)
		if err != nil {
			return err
		}
		img, err = charts.BudgetBars(r)
		if err != nil {
			return chartError(err, p)
		}
	default:
		return fmt.Errorf("%w: unknown chart kind %q", core.ErrValidation, *kind)
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("%s_%s.png", *kind, p)
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return core.IOFailure("write chart", err)
	}
	a.sink.Success("Chart written to %s.", path)
	return nil
}

func chartError(err error, p core.Period) error {
	if errors.Is(err, charts.ErrNoData) {
		return fmt.Errorf("%w: nothing to chart for %s", core.ErrValidation, p)
	}
	return err
}

func (a *app) serve(ctx context.Context, args []string) error {
	fs := a.flags("serve")
	port := fs.String("port", a.cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+*port, a.svc, a.logger)
	_, done := cli.GracefulShutdown(ctx, a.logger, 30*time.Second, func(sctx context.Context) {
		if err := srv.Shutdown(sctx); err != nil {
			a.logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
	})

	a.logger.Info("Starting dashboard API", "port", *port, "backend", a.cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	<-done
	a.logger.Info("Server stopped gracefully")
	return nil
}

func (a *app) sheetsExport(ctx context.Context, args []string) error {
	fs := a.flags("sheets-export")
	period := a.periodFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := period()
	if err != nil {
		return err
	}
	if !a.cfg.SheetsEnabled() {
		return fmt.Errorf("%w: Google Sheets is not configured, set GOOGLE_SPREADSHEET_ID", core.ErrValidation)
	}

	client, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:      a.cfg.GoogleSpreadsheetID,
		SheetName:          a.cfg.GoogleSheetName,
		ServiceAccountJSON: a.cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: a.cfg.GoogleServiceAccountFile,
		Location:           a.loc,
	}, a.logger)
	if err != nil {
		return err
	}
	n, err := a.svc.MirrorPeriod(ctx, p, client)
	if err != nil {
		return err
	}
	if n == 0 {
		a.sink.Warn("No transactions recorded for %s.", p.Label())
		return nil
	}
	a.sink.Success("Appended %d transactions of %s to the sheet.", n, p.Label())
	return nil
}

func onePath(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		fmt.Fprintf(fs.Output(), "usage: fintrack %s [flags] <file>\n", fs.Name())
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func formatFor(flagValue, path string) (transfer.Format, error) {
	if flagValue != "" {
		return transfer.ParseFormat(flagValue)
	}
	if f, ok := transfer.FormatFromPath(path); ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: cannot tell the format of %s, pass -format", core.ErrValidation, path)
}
