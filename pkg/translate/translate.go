// Package translate maps between gateway "things" and platform device
// descriptors, commands and state fragments.
package translate

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// Gateway property and action names
const (
	PropertyOn        = "on"
	PropertyLevel     = "level"
	PropertyLocked    = "locked"
	PropertyIsRunning = "isRunning"
	PropertyIsPaused  = "isPaused"

	ActionLock   = "lock"
	ActionUnlock = "unlock"
)

// ThingToDevice translates a gateway thing into a platform device. It
// returns nil when the thing carries none of the OnOffSwitch, Light or Lock
// tags. A thing tagged Lock is always a LOCK, even if it is also a light.
func ThingToDevice(thing gateway.Thing, creds smarthome.CustomData) *smarthome.Device {
	isLock := thing.HasType(gateway.TagLock)
	isLight := thing.HasType(gateway.TagLight) || thing.HasType(gateway.TagOnOffSwitch)

	var (
		deviceType string
		traits     []string
	)
	switch {
	case isLock:
		deviceType = smarthome.TypeLock
		traits = []string{smarthome.TraitLockUnlock}
	case isLight:
		deviceType = smarthome.TypeLight
		traits = []string{smarthome.TraitOnOff}
		if thing.HasProperty(PropertyLevel) {
			traits = append(traits, smarthome.TraitBrightness)
		}
	default:
		return nil
	}

	cd := creds
	return &smarthome.Device{
		ID:     thing.Href,
		Type:   deviceType,
		Traits: traits,
		Name: smarthome.DeviceName{
			DefaultNames: []string{thing.Title},
			Name:         thing.Title,
			Nicknames:    []string{thing.Title},
		},
		CustomData:     &cd,
		OtherDeviceIDs: []smarthome.OtherDeviceID{{DeviceID: thing.Href}},
	}
}

// ThingsToDevices translates every thing, dropping the ones ThingToDevice
// filters out. The result is never nil.
func ThingsToDevices(things []gateway.Thing, creds smarthome.CustomData) []smarthome.Device {
	devices := make([]smarthome.Device, 0, len(things))
	for _, t := range things {
		if d := ThingToDevice(t, creds); d != nil {
			devices = append(devices, *d)
		}
	}
	return devices
}

// CommandToGateway maps a parsed command onto the gateway call that applies
// it. Paths are relative to the device href.
func CommandToGateway(cmd smarthome.Command) (gateway.Request, error) {
	switch c := cmd.(type) {
	case smarthome.OnOff:
		return putProperty(PropertyOn, c.On), nil
	case smarthome.StartStop:
		return putProperty(PropertyIsRunning, c.Start), nil
	case smarthome.PauseUnpause:
		return putProperty(PropertyIsPaused, c.Pause), nil
	case smarthome.BrightnessAbsolute:
		if c.Brightness < 0 || c.Brightness > 100 {
			return gateway.Request{}, fmt.Errorf("brightness %d: %w", c.Brightness, smarthome.ErrValueOutOfRange)
		}
		return putProperty(PropertyLevel, c.Brightness), nil
	case smarthome.LockUnlock:
		action := ActionUnlock
		if c.Lock {
			action = ActionLock
		}
		return gateway.Request{
			Method: http.MethodPost,
			Path:   "/actions/" + action,
			Body:   map[string]any{action: map[string]any{"input": map[string]any{}}},
		}, nil
	case nil:
		return gateway.Request{}, fmt.Errorf("nil command: %w", smarthome.ErrUnsupportedCommand)
	default:
		return gateway.Request{}, fmt.Errorf("command %s: %w", cmd.Verb(), smarthome.ErrUnsupportedCommand)
	}
}

// ForDevice prefixes a translated request's path with the device href.
func ForDevice(deviceID string, req gateway.Request) gateway.Request {
	req.Path = deviceID + req.Path
	return req
}

func putProperty(name string, value any) gateway.Request {
	return gateway.Request{
		Method: http.MethodPut,
		Path:   "/properties/" + name,
		Body:   map[string]any{name: value},
	}
}

// PropertiesToState converts raw gateway properties into a platform state
// fragment. Fields absent from props are omitted from the result.
func PropertiesToState(props gateway.Properties) map[string]any {
	state := make(map[string]any)

	if v, ok := props[PropertyOn]; ok && v != nil {
		state["on"] = v
	}
	if v, ok := props[PropertyLevel]; ok && v != nil {
		if n, ok := toFloat(v); ok {
			state["brightness"] = int(math.Round(n))
		}
	}
	if v, ok := props[PropertyLocked]; ok && v != nil {
		s, _ := v.(string)
		state["isLocked"] = s == "locked"
		state["isJammed"] = s == "jammed"
	}

	return state
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// LocalPayload is the body delivered over the LAN to a local device for a
// command.
func LocalPayload(cmd smarthome.Command) map[string]any {
	switch c := cmd.(type) {
	case smarthome.OnOff:
		return map[string]any{"on": c.On}
	case smarthome.StartStop:
		return map[string]any{"isRunning": c.Start}
	case smarthome.PauseUnpause:
		return map[string]any{"isPaused": c.Pause}
	case smarthome.BrightnessAbsolute:
		return map[string]any{"brightness": c.Brightness}
	case smarthome.LockUnlock:
		return map[string]any{"isLocked": c.Lock}
	default:
		return map[string]any{}
	}
}
