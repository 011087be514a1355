package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	applog "fintrack/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "warn", applog.ComponentApp)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected log output %q", out)
	}

	buf.Reset()
	SetupLogger(&buf, "loud", applog.ComponentApp)
	if !strings.Contains(buf.String(), "Unknown log level") {
		t.Errorf("expected a warning for an unknown level, got %q", buf.String())
	}
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(file, []byte("FINTRACK_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINTRACK_TEST_VALUE", "")
	os.Unsetenv("FINTRACK_TEST_VALUE")

	LoadEnvFile(file)
	if got := os.Getenv("FINTRACK_TEST_VALUE"); got != "from-file" {
		t.Errorf("FINTRACK_TEST_VALUE = %q", got)
	}

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestGracefulShutdownOnParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cleaned := make(chan struct{})

	ctx, done := GracefulShutdown(parent, applog.Discard(), time.Second, func(context.Context) {
		close(cleaned)
	})
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	if ctx.Err() == nil {
		t.Error("context not cancelled")
	}
	select {
	case <-cleaned:
	default:
		t.Error("cleanup not run")
	}
}
