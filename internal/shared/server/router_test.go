package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tool-advisor/internal/recommend"
	"tool-advisor/internal/rules"
	"tool-advisor/internal/services/health"
	"tool-advisor/internal/shared/config"
)

type downDB struct{}

func (downDB) PingContext(ctx context.Context) error { return errors.New("connection refused") }

func testDeps(t *testing.T, rps float64, burst int) RouterDeps {
	t.Helper()
	table, err := rules.Parse([]byte(`{"Steel":{"recommendations":{"Carbide":{"rake":"5 deg"}}}}`), rules.FormatJSON)
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	svc := recommend.NewService(table, "test")
	return RouterDeps{
		Config:           config.Config{RateLimitRPS: rps, RateLimitBurst: burst},
		Health:           health.NewService("test", svc, nil),
		RecommendHandler: recommend.NewHandler(svc),
	}
}

func TestHealthReportsRules(t *testing.T) {
	r := NewRouter(testDeps(t, 100, 100))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"workpieces":1`) {
		t.Fatalf("unexpected health body: %s", resp.Body.String())
	}
}

func TestHealthDegradedWhenDatabaseDown(t *testing.T) {
	deps := testDeps(t, 100, 100)
	deps.Health.DB = downDB{}
	r := NewRouter(deps)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRouter(testDeps(t, 100, 100))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommend?workpiece_material=Steel", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "tool_advisor_recommend_requests_total") {
		t.Fatalf("expected recommend metrics in exposition")
	}
}

func TestRateLimitExemptsHealth(t *testing.T) {
	r := NewRouter(testDeps(t, 0.001, 1))

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", second.Code)
	}

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("health should not be rate limited, got %d", resp.Code)
		}
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
