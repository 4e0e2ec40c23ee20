package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tool-advisor/internal/recommend"
	"tool-advisor/internal/services/health"
	"tool-advisor/internal/shared/config"
	"tool-advisor/internal/shared/metrics"
	"tool-advisor/internal/shared/server/middleware"
	"tool-advisor/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config           config.Config
	Health           *health.Service
	RecommendHandler *recommend.Handler
	RateLimiter      *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
			},
			GroupFor: rateLimitGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.RecommendHandler != nil {
		deps.RecommendHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitGroup exempts probes and scrapes from rate limiting.
func rateLimitGroup(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/health", "/metrics":
		return "UNLIMITED"
	default:
		return "DEFAULT"
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
