package local

import (
	"encoding/json"

	"github.com/urmzd/homai-bridge/pkg/discovery"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// Request is the local runtime envelope. REACHABLE_DEVICES carries the
// candidate devices at the top level.
type Request struct {
	RequestID string            `json:"requestId"`
	Inputs    []smarthome.Input `json:"inputs"`
	Devices   []DeviceRef       `json:"devices,omitempty"`
}

// DeviceRef names a candidate device.
type DeviceRef struct {
	ID string `json:"id"`
}

// Response is the local runtime response envelope.
type Response struct {
	Intent    string `json:"intent,omitempty"`
	RequestID string `json:"requestId"`
	Payload   any    `json:"payload"`
}

// IdentifyPayload is the IDENTIFY input payload.
type IdentifyPayload struct {
	Device ScanDevice `json:"device"`
}

// ScanDevice holds whichever scan produced the device.
type ScanDevice struct {
	UDPScanData  *UDPScanData  `json:"udpScanData,omitempty"`
	MDNSScanData *MDNSScanData `json:"mdnsScanData,omitempty"`
}

// UDPScanData is a UDP discovery reply. Data is hex encoded.
type UDPScanData struct {
	Data    string `json:"data"`
	Address string `json:"address,omitempty"`
}

// MDNSScanData is an mDNS discovery record.
type MDNSScanData struct {
	ServiceName string   `json:"serviceName"`
	Type        string   `json:"type"`
	Name        string   `json:"name,omitempty"`
	Txt         []string `json:"txt,omitempty"`
	Address     string   `json:"address,omitempty"`
}

// IdentifyResult is the IDENTIFY response payload.
type IdentifyResult struct {
	Device IdentifiedDevice `json:"device"`
}

// IdentifiedDevice is a leaf device (with verification id) or a proxy hub.
type IdentifiedDevice struct {
	ID             string `json:"id"`
	VerificationID string `json:"verificationId,omitempty"`
	IsProxy        bool   `json:"isProxy,omitempty"`
	IsLocalOnly    bool   `json:"isLocalOnly,omitempty"`
}

// ReachablePayload is the REACHABLE_DEVICES input payload.
type ReachablePayload struct {
	Device DeviceRef `json:"device"`
}

// ReachableResult is the REACHABLE_DEVICES response payload.
type ReachableResult struct {
	Devices []VerificationRef `json:"devices"`
}

// VerificationRef associates a reachable device with SYNC otherDeviceIds.
type VerificationRef struct {
	VerificationID string `json:"verificationId"`
}

// LANCommand is one HTTP request delivered to a device on the LAN.
type LANCommand struct {
	RequestID string
	DeviceID  string
	Port      int
	Method    string
	Path      string
	DataType  string
	Data      json.RawMessage
}

// ScanReport is the combined result of one UDP and one mDNS scan.
type ScanReport struct {
	UDP  []discovery.ScanResult `json:"udp"`
	MDNS []discovery.MDNSResult `json:"mdns"`
}
