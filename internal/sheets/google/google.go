// Package google mirrors ledger transactions to a Google spreadsheet using
// a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

var (
	_ ports.TransactionWriter   = (*Client)(nil)
	_ ports.TransactionExporter = (*Client)(nil)
)

// Config selects the spreadsheet and the credentials. Either the inline
// JSON or the file path of a service account key must be set.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	Location           *time.Location
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	loc           *time.Location
	logger        *applog.Logger
}

// NewClient creates a Sheets client. The sheet name is prefixed with the
// current year, e.g. "2024 Transactions".
func NewClient(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transactions"
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         yearPrefixedName(base, time.Now().In(loc).Year()),
		loc:           loc,
		logger:        logger,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *applog.Logger) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		credentialsJSON = []byte(strings.TrimSpace(cfg.ServiceAccountJSON))
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		path := strings.TrimSpace(cfg.ServiceAccountFile)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read credentials file", applog.FieldFile, path, "size", len(data))
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendTransaction adds one row at the end of the sheet and returns the
// updated range.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	resp, err := c.appendRows(ctx, [][]any{transactionRow(t, c.loc)})
	if err != nil {
		return "", err
	}
	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Transaction mirrored to sheet",
		applog.FieldCategory, t.Category,
		applog.FieldAmountMinor, t.Amount.Minor,
		"range", ref)
	return ref, nil
}

// AppendTransactions adds one row per transaction in a single request.
func (c *Client) AppendTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(txs))
	for _, t := range txs {
		if t.Validate() != nil {
			continue
		}
		rows = append(rows, transactionRow(t, c.loc))
	}
	if _, err := c.appendRows(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (c *Client) appendRows(ctx context.Context, rows [][]any) (*gsheet.AppendValuesResponse, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:F", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	return resp, nil
}

// transactionRow lays a transaction out as Date, Kind, Category,
// Description, Amount, Timestamp.
func transactionRow(t core.Transaction, loc *time.Location) []any {
	return []any{
		t.Time(loc).Format("2006-01-02"),
		t.Kind.Label(),
		t.Category,
		t.Description,
		t.Amount.String(),
		t.Timestamp,
	}
}

func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	prefix := fmt.Sprintf("%d ", year)
	if strings.HasPrefix(base, prefix) {
		return base
	}
	return prefix + base
}
