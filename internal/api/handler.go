package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"StocksDashboard/internal/collector"
	"StocksDashboard/internal/dashboard"
	"StocksDashboard/internal/display"
	"StocksDashboard/internal/recorder"
)

// GetDashboardPage handles GET / with one full render pass per request.
// A run cut short still returns the partial page with the error shown.
func (h *APIHandler) GetDashboardPage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	page, err := display.RenderPage(ctx, h.dashboard, recorder.TriggerHTTP)
	if err != nil {
		h.logWarning(c, err)
	}

	var buf bytes.Buffer
	if err := display.RenderHTML(&buf, page); err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GetDashboard handles GET /api/v1/dashboard
func (h *APIHandler) GetDashboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	page, err := display.RenderPage(ctx, h.dashboard, recorder.TriggerHTTP)
	if err != nil {
		h.logWarning(c, err)
	}
	c.JSON(http.StatusOK, page)
}

// GetChart handles GET /api/v1/charts/:symbol
func (h *APIHandler) GetChart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if !lo.Contains(h.dashboard.Symbols(), symbol) {
		h.handleError(c, dashboard.ErrUnknownSymbol, http.StatusNotFound, "Unknown symbol: "+symbol)
		return
	}

	spec, err := h.dashboard.Chart(ctx, symbol)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, spec)
	case errors.Is(err, dashboard.ErrUnknownSymbol):
		h.handleError(c, err, http.StatusNotFound, "Unknown symbol: "+symbol)
	case errors.Is(err, collector.ErrDataUnavailable):
		h.handleError(c, err, http.StatusBadGateway, "Data unavailable for "+symbol)
	default:
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
	}
}

// GetRuns handles GET /api/v1/runs
func (h *APIHandler) GetRuns(c *gin.Context) {
	limit := DefaultRunsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxRunsLimit {
			h.handleError(c, errors.New("invalid limit"), http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(MaxRunsLimit))
			return
		}
		limit = n
	}

	runs, err := h.history.RecentRuns(limit)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	if runs == nil {
		runs = []recorder.RunRecord{}
	}
	c.JSON(http.StatusOK, runs)
}

// HealthCheck handles GET /health requests
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"symbols":   h.dashboard.Symbols(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get(RequestIDContextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return "unknown"
}

func (h *APIHandler) logWarning(c *gin.Context, err error) {
	h.logger.WithFields(log.Fields{
		"request_id": requestID(c),
		"path":       c.Request.URL.Path,
	}).Warnf("dashboard rendered partially: %v", err)
}

// handleError logs the error and sends appropriate HTTP response
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	id := requestID(c)

	h.logger.WithFields(log.Fields{
		"request_id":  id,
		"method":      c.Request.Method,
		"path":        c.Request.URL.Path,
		"error":       err.Error(),
		"status_code": statusCode,
	}).Error("API error")

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": id,
	})
}
