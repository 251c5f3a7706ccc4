package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-bridge/pkg/api/types"
	"github.com/urmzd/homai-bridge/pkg/local"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// LocalAgent runs local intents and LAN scans.
type LocalAgent interface {
	Handle(ctx context.Context, req local.Request) (*local.Response, error)
	Scan(ctx context.Context) (*local.ScanReport, error)
}

// LocalHandler serves the local fulfillment agent
type LocalHandler struct {
	agent LocalAgent
}

// NewLocalHandler creates a new local handler
func NewLocalHandler(agent LocalAgent) *LocalHandler {
	return &LocalHandler{agent: agent}
}

// Intent handles POST /intent
// @Summary      Local intent
// @Description  Dispatches IDENTIFY, REACHABLE_DEVICES and EXECUTE
// @Tags         local
// @Accept       json
// @Produce      json
// @Param        request  body      local.Request  true  "Local intent envelope"
// @Success      200      {object}  local.Response
// @Failure      400      {object}  smarthome.Response  "Invalid request"
// @Router       /intent [post]
func (h *LocalHandler) Intent(c *gin.Context) {
	var req local.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, smarthome.Response{
			Payload: smarthome.ErrorPayload{ErrorCode: smarthome.CodeInvalidRequest, DebugString: err.Error()},
		})
		return
	}

	resp, err := h.agent.Handle(c.Request.Context(), req)
	if err != nil {
		writeHandlerError(c, req.RequestID, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Scan handles POST /scan
// @Summary      Scan the LAN
// @Description  Broadcasts the UDP discovery packet and browses mDNS, recording device addresses
// @Tags         local
// @Produce      json
// @Success      200  {object}  local.ScanReport
// @Failure      500  {object}  types.ErrorResponse  "Scan failed"
// @Router       /scan [post]
func (h *LocalHandler) Scan(c *gin.Context) {
	report, err := h.agent.Scan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "scan_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
