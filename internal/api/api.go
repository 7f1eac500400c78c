package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"StocksDashboard/internal/chart"
	"StocksDashboard/internal/dashboard"
	"StocksDashboard/internal/recorder"
)

// The package is split by concern:
// - api.go: handler struct, dependencies and routes (this file)
// - handler.go: HTTP request handlers
// - middleware.go: middleware functions

const (
	DefaultTimeout      = 5 * time.Minute // a full pass fetches every symbol sequentially
	DefaultRunsLimit    = 20
	MaxRunsLimit        = 500
	ServiceVersion      = "1.0.0"
	ServiceName         = "stocks-dashboard"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// DashboardService renders the dashboard or a single symbol's chart.
type DashboardService interface {
	Run(ctx context.Context, trigger string, out dashboard.Display) (*recorder.RunRecord, error)
	Chart(ctx context.Context, symbol string) (*chart.ChartSpec, error)
	Symbols() []string
}

// RunHistory lists recent render passes.
type RunHistory interface {
	RecentRuns(limit int) ([]recorder.RunRecord, error)
}

// APIHandler handles HTTP requests using Gin framework
type APIHandler struct {
	dashboard DashboardService
	history   RunHistory
	logger    log.FieldLogger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(d DashboardService, history RunHistory, logger log.FieldLogger) *APIHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if history == nil {
		history = recorder.NewNoopRecorder()
	}
	return &APIHandler{
		dashboard: d,
		history:   history,
		logger:    logger,
	}
}

// NewServer wraps the routes in an http.Server so the caller controls shutdown.
func (h *APIHandler) NewServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// SetupRoutes configures all routes
func (h *APIHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/", h.GetDashboardPage)
	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.GET("/dashboard", h.GetDashboard)
	v1.GET("/charts/:symbol", h.GetChart)
	v1.GET("/runs", h.GetRuns)

	return router
}
