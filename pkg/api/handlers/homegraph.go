package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-bridge/pkg/api/types"
	"github.com/urmzd/homai-bridge/pkg/homegraph"
)

// SyncRequester asks the platform to re-run SYNC.
type SyncRequester interface {
	RequestSync(ctx context.Context) error
}

// HomeGraphHandler handles outbound Home Graph triggers
type HomeGraphHandler struct {
	requester   SyncRequester
	agentUserID string
}

// NewHomeGraphHandler creates a new Home Graph handler
func NewHomeGraphHandler(requester SyncRequester, agentUserID string) *HomeGraphHandler {
	return &HomeGraphHandler{requester: requester, agentUserID: agentUserID}
}

// RequestSync handles POST /requestsync
// @Summary      Request sync
// @Description  Asks Home Graph to re-run SYNC for the configured agent user
// @Tags         homegraph
// @Produce      json
// @Success      200  {object}  types.RequestSyncResponse
// @Failure      503  {object}  types.ErrorResponse  "Home Graph not configured"
// @Failure      500  {object}  types.ErrorResponse  "Request sync failed"
// @Router       /requestsync [post]
func (h *HomeGraphHandler) RequestSync(c *gin.Context) {
	if err := h.requester.RequestSync(c.Request.Context()); err != nil {
		log.Error().Err(err).Str("agent_user_id", h.agentUserID).Msg("request sync failed")
		if errors.Is(err, homegraph.ErrDisabled) {
			c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
				Error:   "homegraph_disabled",
				Message: "Home Graph credentials are not configured",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "request_sync_failed",
			Message: "Error requesting sync: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.RequestSyncResponse{
		Status:      "requested",
		AgentUserID: h.agentUserID,
	})
}
