package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// EngineState reports which engines have been loaded
type EngineState interface {
	Loaded() map[string]bool
}

// WorkerState reports whether the worker pool is running
type WorkerState interface {
	IsRunning() bool
}

// Health reports the state of the service and its dependencies
type Health struct {
	environment string
	checks      map[string]HealthCheck
	engines     EngineState
	workers     WorkerState
	timeout     time.Duration
	logger      *zap.Logger
}

// NewHealthHandler creates a health handler. engines and workers may be nil.
func NewHealthHandler(environment string, checks map[string]HealthCheck, engines EngineState, workers WorkerState, logger *zap.Logger) *Health {
	return &Health{
		environment: environment,
		checks:      checks,
		engines:     engines,
		workers:     workers,
		timeout:     3 * time.Second,
		logger:      logger,
	}
}

type healthResponse struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks"`
	Engines     map[string]bool   `json:"engines,omitempty"`
	Workers     bool              `json:"workers_running"`
}

// Check handles GET /health
// @Summary      Health check
// @Description  Reports database and storage reachability, loaded engines and worker state
// @Tags         Health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Failure      503  {object}  healthResponse
// @Router       /health [get]
func (h *Health) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Environment: h.environment,
		Checks:      make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			if h.logger != nil {
				h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			}
			continue
		}
		resp.Checks[name] = "up"
	}

	if h.engines != nil {
		resp.Engines = h.engines.Loaded()
	}
	if h.workers != nil {
		resp.Workers = h.workers.IsRunning()
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
