package types

import "time"

// --- Request DTOs ---

// WasherStateRequest is the request body for POST /updatestate
type WasherStateRequest struct {
	On        bool `json:"on"`
	IsRunning bool `json:"isRunning"`
	IsPaused  bool `json:"isPaused"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// RequestSyncResponse is returned from POST /requestsync
type RequestSyncResponse struct {
	Status      string `json:"status"`
	AgentUserID string `json:"agent_user_id"`
}

// DeviceStateResponse is one stored device state
type DeviceStateResponse struct {
	Device    string         `json:"device"`
	State     map[string]any `json:"state"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ListStatesResponse is returned from GET /states
type ListStatesResponse struct {
	States []DeviceStateResponse `json:"states"`
	Count  int                   `json:"count"`
}

// TransitionResponse is returned from POST /commands/:name
type TransitionResponse struct {
	Transition string         `json:"transition"`
	Status     string         `json:"status"`
	State      map[string]any `json:"state"`
}
