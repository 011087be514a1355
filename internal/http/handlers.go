package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/charts"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	period, ok := s.period(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Dashboard(r.Context(), period, defaultRecentLimit)
	if err != nil {
		s.fail(w, r, "load overview", err)
		return
	}
	writeJSON(w, http.StatusOK, overviewOf(d, s.svc.Clock().Location()))
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	period, ok := s.period(w, r)
	if !ok {
		return
	}
	report, err := s.svc.BudgetReport(r.Context(), period)
	if err != nil {
		s.fail(w, r, "load budgets", err)
		return
	}
	writeJSON(w, http.StatusOK, budgetReportOf(report))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRecentLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	txs, err := s.svc.List(r.Context(), analytics.FilterAll)
	if err != nil {
		s.fail(w, r, "load transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactionsOf(analytics.Recent(txs, limit), s.svc.Clock().Location()),
	})
}

func (s *Server) handleSpendingChart(w http.ResponseWriter, r *http.Request) {
	period, ok := s.period(w, r)
	if !ok {
		return
	}
	img, err := s.charts.GetOrLoad("spending:"+period.String(), func() ([]byte, error) {
		a, err := s.svc.SpendingAnalysis(r.Context(), period)
		if err != nil {
			return nil, err
		}
		return charts.DistributionPie("Spending "+period.Label(), a.Breakdown)
	})
	s.writePNG(w, r, img, err)
}

func (s *Server) handleBudgetChart(w http.ResponseWriter, r *http.Request) {
	period, ok := s.period(w, r)
	if !ok {
		return
	}
	img, err := s.charts.GetOrLoad("budgets:"+period.String(), func() ([]byte, error) {
		report, err := s.svc.BudgetReport(r.Context(), period)
		if err != nil {
			return nil, err
		}
		return charts.BudgetBars(report)
	})
	s.writePNG(w, r, img, err)
}

func (s *Server) writePNG(w http.ResponseWriter, r *http.Request, img []byte, err error) {
	if errors.Is(err, charts.ErrNoData) {
		writeError(w, http.StatusNotFound, "no data for this period")
		return
	}
	if err != nil {
		s.fail(w, r, "chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// period reads ?period=YYYY-MM, defaulting to the current month.
func (s *Server) period(w http.ResponseWriter, r *http.Request) (core.Period, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("period"))
	if v == "" {
		return s.svc.CurrentPeriod(), true
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return core.Period{}, false
	}
	return p, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, core.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}
	if status >= 500 {
		fields := applog.NewFields().WithOperation(op).WithError(err)
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
