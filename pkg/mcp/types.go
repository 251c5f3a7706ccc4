package mcp

import "github.com/urmzd/homai-bridge/pkg/smarthome"

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status    string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Store     string `json:"store" jsonschema:"description=State store status"`
	HomeGraph string `json:"homegraph" jsonschema:"description=Home Graph reporting (enabled or disabled)"`
	Timestamp string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- Sync Tool ---

// SyncDevicesOutput is the output for the sync_devices tool
type SyncDevicesOutput struct {
	AgentUserID string             `json:"agent_user_id" jsonschema:"description=Agent user id"`
	Devices     []smarthome.Device `json:"devices" jsonschema:"description=Translated device descriptors"`
	Count       int                `json:"count" jsonschema:"description=Total number of devices"`
}

// --- Query Tool ---

// QueryDeviceOutput is the output for the query_device tool
type QueryDeviceOutput struct {
	DeviceID string         `json:"device_id" jsonschema:"description=Device id"`
	State    map[string]any `json:"state" jsonschema:"description=State fragment or error status"`
}

// --- Execute Tool ---

// ExecuteCommandOutput is the output for the execute_command tool
type ExecuteCommandOutput struct {
	DeviceID string                    `json:"device_id" jsonschema:"description=Device id"`
	Results  []smarthome.CommandResult `json:"results" jsonschema:"description=Grouped command results"`
	Debug    string                    `json:"debug,omitempty" jsonschema:"description=Diagnostics"`
}

// --- Request Sync Tool ---

// RequestSyncOutput is the output for the request_sync tool
type RequestSyncOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the request was accepted"`
	Message string `json:"message" jsonschema:"description=Status message"`
}

// --- Virtual State Tools ---

// VirtualStateOutput is the output for the get_virtual_state and set_virtual_state tools
type VirtualStateOutput struct {
	DeviceID string         `json:"device_id" jsonschema:"description=Virtual device id"`
	State    map[string]any `json:"state" jsonschema:"description=Flattened state"`
}
