package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncRecommendCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(recommendTotal.WithLabelValues("unknown_tool"))
	IncRecommend("unknown_tool")
	IncRecommend("unknown_tool")
	after := testutil.ToFloat64(recommendTotal.WithLabelValues("unknown_tool"))
	if after-before != 2 {
		t.Fatalf("expected 2 increments, got %v", after-before)
	}
}

func TestSetRulesWorkpieces(t *testing.T) {
	SetRulesWorkpieces(4)
	if got := testutil.ToFloat64(rulesWorkpieces); got != 4 {
		t.Fatalf("expected gauge 4, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncRecommend("ok")
	ObserveRecommendDuration(0.0001)
	ObserveHTTPRequest(http.MethodGet, "", http.StatusNotFound)

	r := gin.New()
	r.GET("/metrics", Handler())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{
		`tool_advisor_recommend_requests_total{outcome="ok"}`,
		"tool_advisor_recommend_duration_seconds_bucket",
		`tool_advisor_http_requests_total{method="GET",route="unmatched",status="404"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
