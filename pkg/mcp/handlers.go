package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := "ok"
	status := "healthy"
	if _, err := s.states.List(ctx); err != nil {
		store = err.Error()
		status = "unhealthy"
	}

	homeGraph := "disabled"
	if s.opts.HomeGraph {
		homeGraph = "enabled"
	}

	out := GetHealthOutput{
		Status:    status,
		Store:     store,
		HomeGraph: homeGraph,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSyncDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.fulfiller.Sync(ctx, uuid.NewString(), s.opts.Authorization)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %s", err)), nil
	}

	payload, ok := resp.Payload.(smarthome.SyncPayload)
	if !ok {
		return mcp.NewToolResultError("sync returned an unexpected payload"), nil
	}

	out := SyncDevicesOutput{
		AgentUserID: payload.AgentUserID,
		Devices:     payload.Devices,
		Count:       len(payload.Devices),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleQueryDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ref, err := s.deviceRef(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := s.fulfiller.Query(ctx, uuid.NewString(), smarthome.QueryRequestPayload{
		Devices: []smarthome.DeviceRef{ref},
	})

	payload, ok := resp.Payload.(smarthome.QueryPayload)
	if !ok {
		return mcp.NewToolResultError("query returned an unexpected payload"), nil
	}

	out := QueryDeviceOutput{DeviceID: id, State: payload.Devices[id]}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleExecuteCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, err := requiredString(request, "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var params json.RawMessage
	if p, ok := request.GetArguments()["params"]; ok && p != nil {
		params, err = json.Marshal(p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid params: %s", err)), nil
		}
	}

	ref, err := s.deviceRef(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := s.fulfiller.Execute(ctx, uuid.NewString(), smarthome.ExecuteRequestPayload{
		Commands: []smarthome.CommandSet{{
			Devices:   []smarthome.DeviceRef{ref},
			Execution: []smarthome.Execution{{Command: command, Params: params}},
		}},
	})

	payload, ok := resp.Payload.(smarthome.ExecutePayload)
	if !ok {
		return mcp.NewToolResultError("execute returned an unexpected payload"), nil
	}

	out := ExecuteCommandOutput{
		DeviceID: id,
		Results:  payload.Commands,
		Debug:    payload.DebugString,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRequestSync(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.syncer.RequestSync(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("request sync failed: %s", err)), nil
	}

	out := RequestSyncOutput{
		Success: true,
		Message: "Home Graph will re-run SYNC",
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetVirtualState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.states.Get(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no state stored for %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read state: %s", err)), nil
	}

	out := VirtualStateOutput{DeviceID: id, State: rec.Flatten()}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSetVirtualState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, ok := request.GetArguments()["state"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError(`required parameter "state" must be an object`), nil
	}

	if err := s.validator.Validate(schema.WasherState, state); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid state: %s", err)), nil
	}

	// the schema guarantees all three booleans are present
	rec := db.DeviceRecord{
		OnOff:     db.OnOffState{On: state["on"].(bool)},
		StartStop: db.StartStopState{IsRunning: state["isRunning"].(bool), IsPaused: state["isPaused"].(bool)},
	}
	if err := s.states.Put(ctx, id, rec); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store state: %s", err)), nil
	}

	out := VirtualStateOutput{DeviceID: id, State: rec.Flatten()}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

// deviceRef builds the reference the platform would send, carrying the
// operator's credentials as custom data.
func (s *Server) deviceRef(id string) (smarthome.DeviceRef, error) {
	creds, err := smarthome.ParseAuthorization(s.opts.Authorization, s.opts.URLBaseOverride)
	if err != nil {
		return smarthome.DeviceRef{}, fmt.Errorf("operator token: %w", err)
	}
	return smarthome.DeviceRef{ID: id, CustomData: &creds}, nil
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := encodeJSON(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}

func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
