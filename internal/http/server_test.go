package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

var testNow = time.Date(2024, time.March, 15, 18, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, seed bool) *Server {
	t.Helper()
	dir := t.TempDir()
	logger := applog.Discard()
	svc := services.NewLedgerService(
		ledger.NewFileStore(filepath.Join(dir, "transactions.txt"), logger),
		budget.NewFileStore(filepath.Join(dir, "budgets.txt"), logger),
		services.Options{Clock: core.FixedClock{At: testNow}, Logger: logger},
	)

	if seed {
		ctx := context.Background()
		_, err := svc.AddTransaction(ctx, core.Entry{Kind: core.Income, Amount: "1000", Category: "Salary", Date: "2024-03-01"})
		require.NoError(t, err)
		_, err = svc.AddTransaction(ctx, core.Entry{Kind: core.Expense, Amount: "70", Category: "Food", Description: "groceries", Date: "2024-03-10"})
		require.NoError(t, err)
		_, err = svc.SetBudget(ctx, "Food", "100")
		require.NoError(t, err)
	}

	srv := NewServer(":0", svc, logger)
	t.Cleanup(func() {
		srv.rateLimiter.stop()
		srv.caches.Stop()
	})
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, false)

	rr := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestRequestIDIsKeptWhenValid(t *testing.T) {
	srv := newTestServer(t, false)
	const id = "6f1c2d1e-8a1b-4f7e-9c3d-2b5a4e6f7a8b"

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", id)
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, id, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "<script>")
	srv.Handler.ServeHTTP(rr, req)
	assert.NotEqual(t, "<script>", rr.Header().Get("X-Request-ID"))
}

func TestOverview(t *testing.T) {
	srv := newTestServer(t, true)

	rr := get(t, srv, "/api/overview?period=2024-03")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body overviewView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, core.NewPeriod(2024, time.March), body.Period)
	assert.Equal(t, int64(100000), body.Income.Minor)
	assert.Equal(t, "70.00", body.Expense.Display)
	assert.Equal(t, int64(93000), body.Balance.Minor)
	assert.InDelta(t, 93.0, body.SavingsRate, 1e-9)
	assert.True(t, body.Budgets.HasBudgets)
	require.Len(t, body.Spending.Top, 1)
	assert.Equal(t, "Food", body.Spending.Top[0].Category)
	assert.Len(t, body.Recent, 2)
}

func TestOverviewDefaultsToCurrentPeriod(t *testing.T) {
	srv := newTestServer(t, true)

	rr := get(t, srv, "/api/overview")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2024-03", decode(t, rr)["period"])
}

func TestInvalidPeriod(t *testing.T) {
	srv := newTestServer(t, false)

	for _, target := range []string{
		"/api/overview?period=2024-13",
		"/api/budgets?period=march",
		"/api/charts/spending.png?period=24-03",
	} {
		rr := get(t, srv, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, decode(t, rr)["error"], "YYYY-MM", target)
	}
}

func TestBudgets(t *testing.T) {
	srv := newTestServer(t, true)

	rr := get(t, srv, "/api/budgets?period=2024-03")
	require.Equal(t, http.StatusOK, rr.Code)

	var body budgetReportView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(10000), body.TotalCeiling.Minor)
	assert.Equal(t, "Warning", body.Status)
	assert.Empty(t, body.OverBudget)

	var food budgetLineView
	for _, l := range body.Lines {
		if l.Category == "Food" {
			food = l
		}
	}
	assert.Equal(t, "30.00", food.Remaining.Display)
	assert.InDelta(t, 70.0, food.Utilization, 1e-9)

	rr = get(t, srv, "/api/budgets?period=2024-02")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decode(t, rr)["has_budgets"])
}

func TestRecentTransactions(t *testing.T) {
	srv := newTestServer(t, true)

	rr := get(t, srv, "/api/transactions/recent?limit=1")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Transactions []transactionView `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Transactions, 1)
	assert.Equal(t, "Food", body.Transactions[0].Category)
	assert.Equal(t, "2024-03-10 00:00", body.Transactions[0].Date)

	for _, limit := range []string{"0", "-1", "abc", "101"} {
		rr := get(t, srv, "/api/transactions/recent?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, rr.Code, limit)
	}
}

func TestCharts(t *testing.T) {
	srv := newTestServer(t, true)

	for _, target := range []string{"/api/charts/spending.png?period=2024-03", "/api/charts/budgets.png?period=2024-03"} {
		rr := get(t, srv, target)
		require.Equal(t, http.StatusOK, rr.Code, target)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", rr.Body.String()[:4])
	}

	assert.Equal(t, 2, srv.charts.Len())

	rr := get(t, srv, "/api/charts/spending.png?period=2023-01")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 2, srv.charts.Len())
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, false)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/overview", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	now := testNow
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))

	now = now.Add(time.Minute)
	assert.True(t, rl.allow("10.0.0.1"))

	now = now.Add(5 * time.Minute)
	rl.cleanupStaleEntries()
	assert.Empty(t, rl.clients)
}

func TestRateLimitedRequest(t *testing.T) {
	srv := newTestServer(t, false)
	srv.rateLimiter.limit = 1

	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
	rr := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.7:5000", "", "203.0.113.7"},
		{"untrusted peer ignores forwarding", "203.0.113.7:5000", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy", "127.0.0.1:5000", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"trusted proxy with garbage", "10.1.2.3:5000", "not-an-ip", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}
