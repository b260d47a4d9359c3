// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/crossover/internal/app"
	"github.com/newthinker/crossover/internal/config"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/metrics"
	"github.com/newthinker/crossover/internal/storage/archive"
	"go.uber.org/zap"
)

type staticSource struct{ bars []core.PriceBar }

func (s staticSource) Name() string { return "static" }

func (s staticSource) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	return core.FilterRange(s.bars, start, end), nil
}

func newTestServer(t *testing.T, cfg Config) (*Server, *metrics.Registry) {
	t.Helper()

	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]core.PriceBar, 300)
	for i := range bars {
		bars[i] = core.PriceBar{Date: start.AddDate(0, 0, i), Close: 15000 + 800*math.Sin(float64(i)/11)}
	}

	store, err := archive.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("creating storage: %v", err)
	}
	reg := metrics.NewRegistry()
	appCfg := config.Defaults()
	appCfg.MonteCarlo.Rounds = 20
	a, err := app.New(appCfg, zap.NewNop(),
		app.WithSource(staticSource{bars: bars}),
		app.WithStorage(store),
		app.WithRecorder(reg),
	)
	if err != nil {
		t.Fatalf("creating app: %v", err)
	}

	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	srv, err := NewServer(cfg, Dependencies{Service: a, Metrics: reg}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, reg
}

func TestNewServer_RequiresService(t *testing.T) {
	if _, err := NewServer(Config{}, Dependencies{}, nil); err == nil {
		t.Error("expected error without service")
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"})

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 without key, got %d", w.Code)
	}
}

func TestServer_APIAuth(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"})

	req := httptest.NewRequest("GET", "/api/market", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/market", nil)
	req.Header.Set("X-API-Key", "test-key")
	w = httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_Backtest(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost", RequestTimeout: time.Minute})

	body := `{"params":{"indicatorWindow":20,"tradeMode":"both"}}`
	req := httptest.NewRequest("POST", "/api/backtest?archive=1", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header from logging middleware")
	}

	var resp struct {
		Data struct {
			Success        bool `json:"success"`
			CapitalHistory struct {
				Dates  []string  `json:"dates"`
				Values []float64 `json:"values"`
			} `json:"capitalHistory"`
			ArchiveID string `json:"archiveId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !resp.Data.Success {
		t.Error("expected success")
	}
	// 300 bars, the first 19 have no 20-day average
	if n := len(resp.Data.CapitalHistory.Values); n != 281 {
		t.Errorf("expected 281 equity points, got %d", n)
	}

	req = httptest.NewRequest("GET", "/api/results/"+resp.Data.ArchiveID, nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected archived result, got %d", w.Code)
	}
}

func TestServer_ReviewWithoutProvider(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost"})

	req := httptest.NewRequest("POST", "/api/backtest?review=1", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotImplemented {
		t.Errorf("expected 501, got %d", w.Code)
	}
}

func TestServer_OptimizeAndMonteCarlo(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost"})

	for _, path := range []string{"/api/optimize", "/api/montecarlo"} {
		req := httptest.NewRequest("POST", path, nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost"})

	req := httptest.NewRequest("GET", "/api/backtest", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost"})

	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/backtest", nil))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	out := w.Body.String()
	for _, name := range []string{"crossover_backtests_total", "http_requests_total"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
