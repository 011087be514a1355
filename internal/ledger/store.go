// Package ledger persists the append-only transaction list as a flat,
// newline-delimited file with five comma-separated fields per line.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// FileStore owns the ledger file. A single mutex serialises writers and
// readers inside the process; whole-file replacement goes through a
// temporary file and a rename, so readers never see a partial file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *applog.Logger
}

func NewFileStore(path string, logger *applog.Logger) *FileStore {
	if logger == nil {
		logger = applog.Discard()
	}
	return &FileStore{path: path, logger: logger.WithComponent(applog.ComponentLedger)}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes one record at the end of the file.
func (s *FileStore) Append(ctx context.Context, t core.Transaction) error {
	return s.AppendAll(ctx, []core.Transaction{t})
}

// AppendAll writes records at the end of the file in one write.
func (s *FileStore) AppendAll(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := Encode(&buf, txs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return core.IOFailure("create ledger directory", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return core.IOFailure("open ledger", err)
	}
	data := buf.Bytes()
	missing, err := missingFinalNewline(f)
	if err != nil {
		f.Close()
		return core.IOFailure("append ledger", err)
	}
	if missing {
		data = append([]byte{'\n'}, data...)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return core.IOFailure("append ledger", err)
	}
	if err := f.Close(); err != nil {
		return core.IOFailure("close ledger", err)
	}

	s.logger.DebugContext(ctx, "Transactions appended",
		applog.FieldOperation, applog.OpAppend,
		"count", len(txs))
	return nil
}

// missingFinalNewline reports whether f is non-empty and its last byte is
// not a newline, so that an append would glue onto the last line.
func missingFinalNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// LoadAll returns every valid record in file order. A missing file is an
// empty ledger. Malformed lines are logged as warnings and skipped.
func (s *FileStore) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, core.IOFailure("open ledger", err)
	}
	defer f.Close()

	txs, err := Decode(f, func(m MalformedLine) {
		fields := applog.NewFields().
			WithOperation(applog.OpParse).
			WithLine(s.path, m.Number, m.Raw).
			WithError(m.Err)
		s.logger.WarnContext(ctx, "Skipping malformed transaction line", fields.ToSlice()...)
	})
	if err != nil {
		return nil, core.IOFailure("read ledger", err)
	}
	return txs, nil
}

// RewriteAll replaces the whole ledger with txs.
func (s *FileStore) RewriteAll(ctx context.Context, txs []core.Transaction) error {
	var buf bytes.Buffer
	if err := Encode(&buf, txs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ReplaceFile(s.path, buf.Bytes()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Ledger rewritten",
		applog.FieldOperation, applog.OpRewrite,
		"count", len(txs))
	return nil
}

// ReplaceFile atomically swaps the content of path: it writes a sibling
// temporary file, syncs it and renames it over path.
func ReplaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.IOFailure("create directory", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return core.IOFailure("create temporary file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return core.IOFailure("write temporary file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return core.IOFailure("sync temporary file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return core.IOFailure("close temporary file", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return core.IOFailure("chmod temporary file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return core.IOFailure(fmt.Sprintf("replace %s", filepath.Base(path)), err)
	}
	return nil
}
