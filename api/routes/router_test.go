package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/merchantpulse/merchantpulse-backend/api/controllers"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/filter"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/config"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/merchantpulse/merchantpulse-backend/pkg/money"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubDashboardService struct {
	windows      *window.Store
	refreshed    int
	lastCategory string
	lastQuery    string
	filterErr    error
}

func newStubDashboardService() *stubDashboardService {
	now := func() time.Time { return time.Date(2026, 3, 30, 12, 0, 0, 0, time.UTC) }
	return &stubDashboardService{windows: window.NewStore(30, now)}
}

func (s *stubDashboardService) Snapshot() snapshot.MetricSnapshot {
	return snapshot.MetricSnapshot{
		Transactions: []snapshot.Transaction{
			{ID: "1001", Customer: "Ada Obi", Product: "Solar Panel", Amount: money.FromFloat(250)},
			{ID: "2001", Customer: "Bola Ade", Product: "Inverter", Amount: money.FromFloat(99)},
		},
	}
}

func (s *stubDashboardService) Subscribe(func(snapshot.MetricSnapshot)) func() {
	return func() {}
}

func (s *stubDashboardService) Window() (window.Window, uint64) {
	return s.windows.Current()
}

func (s *stubDashboardService) SetReportingWindow(start, end *time.Time) (window.Window, error) {
	win, _, _, err := s.windows.Set(start, end)
	return win, err
}

func (s *stubDashboardService) Refresh() {
	s.refreshed++
}

func (s *stubDashboardService) SetSearchFilter(category, query string) error {
	s.lastCategory = category
	s.lastQuery = query
	return s.filterErr
}

func (s *stubDashboardService) CurrentFilter() filter.Criteria {
	return filter.Criteria{}
}

func (s *stubDashboardService) FilteredTransactions(override filter.Criteria) []snapshot.Transaction {
	return filter.Apply(s.Snapshot().Transactions, override)
}

func newTestRouter(service *stubDashboardService, deps map[string]controllers.Pinger) http.Handler {
	cfg := &config.Config{App: config.AppConfig{Env: "test", Port: "0"}}
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	if deps == nil {
		deps = map[string]controllers.Pinger{"redis": stubPinger{}}
	}
	return NewRouter(cfg, logg, prometheus.NewRegistry(), deps, service)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(newStubDashboardService(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness got %d", resp.Code)
	}
}

func TestReadinessFailsWhenDependencyDown(t *testing.T) {
	deps := map[string]controllers.Pinger{
		"redis": stubPinger{err: context.DeadlineExceeded},
	}
	router := newTestRouter(newStubDashboardService(), deps)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when dependency down got %d", resp.Code)
	}
}

func TestDashboardSnapshotRoute(t *testing.T) {
	router := newTestRouter(newStubDashboardService(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body struct {
		Data struct {
			Window struct {
				StartDate string `json:"start_date"`
				EndDate   string `json:"end_date"`
			} `json:"window"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode snapshot response: %v", err)
	}
	if body.Data.Window.EndDate != "2026-03-30" {
		t.Fatalf("unexpected window end %q", body.Data.Window.EndDate)
	}
}

func TestUpdateWindowRoute(t *testing.T) {
	service := newStubDashboardService()
	router := newTestRouter(service, nil)

	body := `{"start_date":"2026-03-01","end_date":"2026-03-15"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/dashboard/window", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	win, _ := service.Window()
	if win.StartDate() != "2026-03-01" || win.EndDate() != "2026-03-15" {
		t.Fatalf("window not applied: %s..%s", win.StartDate(), win.EndDate())
	}
}

func TestUpdateWindowRejectsBadDate(t *testing.T) {
	router := newTestRouter(newStubDashboardService(), nil)

	body := `{"start_date":"03/01/2026"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/dashboard/window", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date got %d", resp.Code)
	}
}

func TestUpdateWindowRejectsInvertedRange(t *testing.T) {
	router := newTestRouter(newStubDashboardService(), nil)

	body := `{"start_date":"2026-03-20","end_date":"2026-03-10"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/dashboard/window", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range got %d", resp.Code)
	}
}

func TestRefreshRoute(t *testing.T) {
	service := newStubDashboardService()
	router := newTestRouter(service, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/refresh", nil))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	if service.refreshed != 1 {
		t.Fatalf("expected one refresh request, got %d", service.refreshed)
	}
}

func TestTransactionsRouteFilters(t *testing.T) {
	router := newTestRouter(newStubDashboardService(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/transactions?category=customer&q=ada", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode transactions response: %v", err)
	}
	if body.Data.Count != 1 {
		t.Fatalf("expected one match, got %d", body.Data.Count)
	}
}

func TestTransactionsRouteRejectsBadQuery(t *testing.T) {
	router := newTestRouter(newStubDashboardService(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/transactions?category=id&q=abc", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id query got %d", resp.Code)
	}
}

func TestSetFilterRoute(t *testing.T) {
	service := newStubDashboardService()
	router := newTestRouter(service, nil)

	body := `{"category":"customer","query":"ada"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/filter", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	if service.lastCategory != "customer" || service.lastQuery != "ada" {
		t.Fatalf("filter not forwarded: %q %q", service.lastCategory, service.lastQuery)
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(newStubDashboardService(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}
