package smarthome

import "encoding/json"

// Intent names
const (
	IntentSync             = "action.devices.SYNC"
	IntentQuery            = "action.devices.QUERY"
	IntentExecute          = "action.devices.EXECUTE"
	IntentDisconnect       = "action.devices.DISCONNECT"
	IntentIdentify         = "action.devices.IDENTIFY"
	IntentReachableDevices = "action.devices.REACHABLE_DEVICES"
)

// Device types
const (
	TypeLight  = "action.devices.types.LIGHT"
	TypeLock   = "action.devices.types.LOCK"
	TypeWasher = "action.devices.types.WASHER"
)

// Traits
const (
	TraitOnOff      = "action.devices.traits.OnOff"
	TraitBrightness = "action.devices.traits.Brightness"
	TraitLockUnlock = "action.devices.traits.LockUnlock"
	TraitStartStop  = "action.devices.traits.StartStop"
)

// Execution result statuses
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// Request is the fulfillment envelope shared by all intents.
type Request struct {
	RequestID string  `json:"requestId"`
	Inputs    []Input `json:"inputs"`
}

// Input is one intent invocation. Payload is decoded per intent.
type Input struct {
	Intent  string          `json:"intent"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Intent returns the first input's intent, or "" for an empty envelope.
func (r *Request) Intent() string {
	if len(r.Inputs) == 0 {
		return ""
	}
	return r.Inputs[0].Intent
}

// Response is the fulfillment response envelope.
type Response struct {
	RequestID string `json:"requestId"`
	Payload   any    `json:"payload,omitempty"`
}

// ErrorPayload is returned when a whole intent fails.
type ErrorPayload struct {
	ErrorCode   string `json:"errorCode"`
	DebugString string `json:"debugString,omitempty"`
}

// --- SYNC ---

// SyncPayload is the SYNC response payload.
type SyncPayload struct {
	AgentUserID string   `json:"agentUserId"`
	Devices     []Device `json:"devices"`
}

// Device is the platform-side device descriptor.
type Device struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Traits          []string        `json:"traits"`
	Name            DeviceName      `json:"name"`
	WillReportState bool            `json:"willReportState"`
	Attributes      map[string]any  `json:"attributes,omitempty"`
	CustomData      *CustomData     `json:"customData,omitempty"`
	OtherDeviceIDs  []OtherDeviceID `json:"otherDeviceIds,omitempty"`
}

// DeviceName is the naming block of a device descriptor.
type DeviceName struct {
	DefaultNames []string `json:"defaultNames,omitempty"`
	Name         string   `json:"name"`
	Nicknames    []string `json:"nicknames,omitempty"`
}

// OtherDeviceID links a cloud device to its local verification id.
type OtherDeviceID struct {
	DeviceID string `json:"deviceId"`
}

// --- QUERY ---

// QueryRequestPayload is the QUERY input payload.
type QueryRequestPayload struct {
	Devices []DeviceRef `json:"devices"`
}

// DeviceRef identifies a device in QUERY and EXECUTE inputs.
type DeviceRef struct {
	ID         string      `json:"id"`
	CustomData *CustomData `json:"customData,omitempty"`
}

// QueryPayload is the QUERY response payload, keyed by device id.
type QueryPayload struct {
	Devices map[string]map[string]any `json:"devices"`
}

// --- EXECUTE ---

// ExecuteRequestPayload is the EXECUTE input payload.
type ExecuteRequestPayload struct {
	Commands []CommandSet `json:"commands"`
}

// CommandSet applies every execution to every listed device.
type CommandSet struct {
	Devices   []DeviceRef `json:"devices"`
	Execution []Execution `json:"execution"`
}

// Execution is a raw verb plus its parameters.
type Execution struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ExecutePayload is the EXECUTE response payload.
type ExecutePayload struct {
	Commands    []CommandResult `json:"commands"`
	DebugString string          `json:"debugString,omitempty"`
}

// CommandResult groups device ids sharing one outcome.
type CommandResult struct {
	IDs       []string       `json:"ids"`
	Status    string         `json:"status"`
	States    map[string]any `json:"states,omitempty"`
	ErrorCode string         `json:"errorCode,omitempty"`
}
