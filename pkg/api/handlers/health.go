package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-bridge/pkg/api/types"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health status of the service and its dependencies
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Service is degraded"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	})
}
