// Package transfer converts the ledger to and from external files: CSV
// and JSON exports, deduplicating imports, and full backups.
package transfer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Format is an interchange file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", core.ErrValidation, s)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// ExportFileName is the default name of an export written on day now.
func ExportFileName(f Format, now time.Time) string {
	return fmt.Sprintf("transactions_export_%s.%s", now.Format("2006-01-02"), f)
}

// BackupFileName is the default name of a backup written on day now.
func BackupFileName(now time.Time) string {
	return fmt.Sprintf("finance_tracker_backup_%s.json", now.Format("2006-01-02"))
}

// Header lists the exported columns in order.
var Header = []string{"timestamp", "kind", "category", "description", "amount"}

// Column aliases accepted on import for files written by older versions.
var aliases = map[string]string{
	"type":         "kind",
	"amount_paisa": "amount",
}

func canonicalColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[name]; ok {
		return a
	}
	return name
}
