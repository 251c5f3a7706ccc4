package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-bridge/pkg/api/types"
	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
)

// StateStore is the subset of the state store the handlers use.
type StateStore interface {
	List(ctx context.Context) (map[string]db.DeviceRecord, error)
	Put(ctx context.Context, deviceID string, rec db.DeviceRecord) error
}

// StateHandler handles virtual device state endpoints
type StateHandler struct {
	store     StateStore
	validator *schema.Validator
	washerID  string
}

// NewStateHandler creates a new state handler
func NewStateHandler(store StateStore, validator *schema.Validator, washerID string) *StateHandler {
	return &StateHandler{store: store, validator: validator, washerID: washerID}
}

// UpdateState handles POST /updatestate
// @Summary      Update washer state
// @Description  Stores the full washer state; the write triggers Report State
// @Tags         state
// @Accept       json
// @Produce      json
// @Param        request  body      types.WasherStateRequest  true  "Full washer state"
// @Success      200      {object}  types.DeviceStateResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid state body"
// @Failure      500      {object}  types.ErrorResponse  "Store error"
// @Router       /updatestate [post]
func (h *StateHandler) UpdateState(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.ValidateJSON(schema.WasherState, body); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var req types.WasherStateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	rec := db.DeviceRecord{
		OnOff:     db.OnOffState{On: req.On},
		StartStop: db.StartStopState{IsRunning: req.IsRunning, IsPaused: req.IsPaused},
	}
	if err := h.store.Put(c.Request.Context(), h.washerID, rec); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DeviceStateResponse{
		Device: h.washerID,
		State:  rec.Flatten(),
	})
}

// ListStates handles GET /states
// @Summary      List stored states
// @Description  Returns every virtual device state held in the store
// @Tags         state
// @Produce      json
// @Success      200  {object}  types.ListStatesResponse
// @Failure      500  {object}  types.ErrorResponse  "Store error"
// @Router       /states [get]
func (h *StateHandler) ListStates(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
		return
	}

	states := make([]types.DeviceStateResponse, 0, len(records))
	for id, rec := range records {
		states = append(states, types.DeviceStateResponse{
			Device:    id,
			State:     rec.Flatten(),
			UpdatedAt: rec.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, types.ListStatesResponse{
		States: states,
		Count:  len(states),
	})
}
