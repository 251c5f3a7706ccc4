package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// Fulfiller runs one fulfillment envelope.
type Fulfiller interface {
	Handle(ctx context.Context, req smarthome.Request, authorization string) (any, error)
}

// FulfillmentHandler serves the platform webhook
type FulfillmentHandler struct {
	fulfiller Fulfiller
}

// NewFulfillmentHandler creates a new fulfillment handler
func NewFulfillmentHandler(fulfiller Fulfiller) *FulfillmentHandler {
	return &FulfillmentHandler{fulfiller: fulfiller}
}

// Smarthome handles POST /smarthome
// @Summary      Smart home fulfillment
// @Description  Dispatches SYNC, QUERY, EXECUTE and DISCONNECT intents
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string             true  "Bearer token whose JWT issuer is the gateway URL"
// @Param        request        body    smarthome.Request  true  "Intent envelope"
// @Success      200  {object}  smarthome.Response
// @Failure      400  {object}  smarthome.Response  "Malformed envelope"
// @Failure      401  {object}  smarthome.Response  "Invalid credentials"
// @Failure      502  {object}  smarthome.Response  "Gateway unavailable"
// @Router       /smarthome [post]
func (h *FulfillmentHandler) Smarthome(c *gin.Context) {
	var req smarthome.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, smarthome.Response{
			Payload: smarthome.ErrorPayload{ErrorCode: smarthome.CodeProtocolError, DebugString: err.Error()},
		})
		return
	}

	log.Debug().Str("request_id", req.RequestID).Str("intent", req.Intent()).Msg("fulfillment request")

	resp, err := h.fulfiller.Handle(c.Request.Context(), req, c.GetHeader("Authorization"))
	if err != nil {
		writeHandlerError(c, req.RequestID, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func writeHandlerError(c *gin.Context, requestID string, err error) {
	var herr *smarthome.HandlerError
	if !errors.As(err, &herr) {
		herr = smarthome.NewHandlerError(requestID, err)
	}

	status := http.StatusInternalServerError
	switch herr.Code {
	case smarthome.CodeAuthFailure:
		status = http.StatusUnauthorized
	case smarthome.CodeInvalidRequest, smarthome.CodeProtocolError:
		status = http.StatusBadRequest
	case smarthome.CodeTransientError:
		status = http.StatusBadGateway
	}

	log.Warn().Err(herr.Err).Str("request_id", requestID).Str("error_code", herr.Code).Msg("intent failed")

	c.JSON(status, smarthome.Response{
		RequestID: requestID,
		Payload:   smarthome.ErrorPayload{ErrorCode: herr.Code, DebugString: herr.Err.Error()},
	})
}
