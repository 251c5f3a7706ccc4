package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-bridge/pkg/api/types"
	"github.com/urmzd/homai-bridge/pkg/device"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
)

// WasherHandler drives the washer simulator over HTTP
type WasherHandler struct {
	controller device.Controller
	validator  *schema.Validator
}

// NewWasherHandler creates a new washer handler
func NewWasherHandler(controller device.Controller, validator *schema.Validator) *WasherHandler {
	return &WasherHandler{controller: controller, validator: validator}
}

// GetState handles GET /
// @Summary      Get washer state
// @Tags         washer
// @Produce      json
// @Success      200  {object}  device.State
// @Router       / [get]
func (h *WasherHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State())
}

// Override handles POST /
// @Summary      Override washer state
// @Description  Merges the fields present in the body, bypassing transition guards
// @Tags         washer
// @Accept       json
// @Produce      json
// @Param        request  body      device.Patch  true  "Partial washer state"
// @Success      200      {object}  device.State
// @Failure      400      {object}  types.ErrorResponse  "Invalid patch"
// @Router       / [post]
func (h *WasherHandler) Override(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.ValidateJSON(schema.WasherPatch, body); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var patch device.Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.controller.Override(c.Request.Context(), patch))
}

// Transition handles POST /commands/:name
// @Summary      Run a named transition
// @Description  Runs on, off, start, stop, pause or resume; guarded transitions may leave the state unchanged
// @Tags         washer
// @Produce      json
// @Param        name  path      string  true  "Transition name"
// @Success      200   {object}  types.TransitionResponse
// @Failure      404   {object}  types.ErrorResponse  "Unknown transition"
// @Router       /commands/{name} [post]
func (h *WasherHandler) Transition(c *gin.Context) {
	name := c.Param("name")

	state, err := h.controller.Apply(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, device.ErrUnknownTransition) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{
				Error:   "unknown_transition",
				Message: err.Error() + "; expected one of " + strings.Join(device.Transitions, ", "),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "transition_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.TransitionResponse{
		Transition: name,
		Status:     state.Status(),
		State: map[string]any{
			"on":        state.On,
			"isRunning": state.IsRunning,
			"isPaused":  state.IsPaused,
		},
	})
}
