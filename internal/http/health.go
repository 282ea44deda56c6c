package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/packing-service/internal/circuitbreaker"
	"github.com/guttosm/packing-service/internal/repository"
)

const readinessTimeout = 2 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checkers        map[string]repository.HealthChecker
	circuitBreakers map[string]*circuitbreaker.CircuitBreaker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		checkers:        make(map[string]repository.HealthChecker),
		circuitBreakers: make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// RegisterChecker registers a store ping for readiness.
func (h *HealthHandler) RegisterChecker(name string, checker repository.HealthChecker) {
	if checker != nil {
		h.checkers[name] = checker
	}
}

// RegisterCircuitBreaker registers a circuit breaker for health monitoring.
func (h *HealthHandler) RegisterCircuitBreaker(name string, cb *circuitbreaker.CircuitBreaker) {
	if cb != nil {
		h.circuitBreakers[name] = cb
	}
}

// Register registers health endpoints on the router.
func (h *HealthHandler) Register(router *gin.Engine) {
	router.GET("/healthz", h.Liveness)
	router.GET("/readyz", h.Readiness)
}

// Liveness handles the liveness probe endpoint.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Readiness pings every registered store concurrently and reports circuit
// states. A failed ping or a circuit that is not closed makes the service
// report degraded with a 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		healthy = true
		checks  = make(map[string]string, len(h.checkers)+len(h.circuitBreakers))
	)

	g, gctx := errgroup.WithContext(ctx)
	for name, checker := range h.checkers {
		g.Go(func() error {
			result := "ok"
			if err := checker.HealthCheck(gctx); err != nil {
				result = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			checks[name] = result
			healthy = healthy && result == "ok"
			return nil
		})
	}
	_ = g.Wait()

	for name, cb := range h.circuitBreakers {
		stats := cb.GetStats()
		checks[name+"_circuit"] = stats.State
		healthy = healthy && stats.IsHealthy
	}

	if len(checks) == 0 {
		checks["service"] = "ok"
	}

	resp := ReadinessResponse{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
