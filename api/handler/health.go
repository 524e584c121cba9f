package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/internal/infrastructure/monitor"
	"github.com/fastygo/gateway/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor  *monitor.Monitor
	name     string
	version  string
	required []string
}

// NewHealthHandler reports the dependencies named in required as the ones
// that decide the full health status.
func NewHealthHandler(mon *monitor.Monitor, name, version string, required []string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		name:        name,
		version:     version,
		required:    required,
	}
}

// @Summary Service descriptor
// @Tags health
// @Router / [get]
func (h *HealthHandler) Root(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusOK, transport.RootResponse{
		Success: true,
		Name:    h.name,
		Version: h.version,
		Status:  "running",
	})
}

// @Summary Liveness check
// @Tags health
// @Router /api/health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusOK, transport.HealthResponse{
		Success:   true,
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// @Summary Health check with uptime and dependency status
// @Tags health
// @Router /api/health/full [get]
func (h *HealthHandler) Full(ctx *fasthttp.RequestCtx) {
	resp := transport.HealthResponse{
		Success:   true,
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}

	if h.monitor == nil {
		h.respondJSON(ctx, http.StatusOK, resp)
		return
	}

	uptime := h.monitor.Uptime().Seconds()
	status := h.monitor.GetStatus()
	resp.UptimeSeconds = &uptime
	resp.Checks = status.Checks

	if !status.Healthy(h.required...) {
		resp.Success = false
		resp.Status = "degraded"
		h.respondJSON(ctx, http.StatusServiceUnavailable, resp)
		return
	}
	h.respondJSON(ctx, http.StatusOK, resp)
}
