package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	recommendTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_advisor_recommend_requests_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	recommendDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tool_advisor_recommend_duration_seconds",
			Help:    "Time spent resolving a recommendation",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)

	rulesWorkpieces = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "tool_advisor_rules_workpieces",
			Help: "Workpiece materials in the loaded rule table",
		},
	)

	httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_advisor_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncRecommend counts one resolution with the given outcome ("ok" or an error code).
func IncRecommend(outcome string) {
	recommendTotal.WithLabelValues(outcome).Inc()
}

// ObserveRecommendDuration records a resolution duration in seconds.
func ObserveRecommendDuration(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	recommendDuration.Observe(seconds)
}

// SetRulesWorkpieces publishes the size of the loaded rule table.
func SetRulesWorkpieces(n int) {
	rulesWorkpieces.Set(float64(n))
}

// ObserveHTTPRequest counts a finished request. Unmatched routes are reported as "unmatched".
func ObserveHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
