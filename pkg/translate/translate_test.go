package translate

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

var testCreds = smarthome.CustomData{Authorization: "Bearer t", URLBase: "https://gw"}

func thing(types []string, props ...string) gateway.Thing {
	t := gateway.Thing{Href: "/things/zb-1", Title: "Lamp", Types: types, Properties: map[string]json.RawMessage{}}
	for _, p := range props {
		t.Properties[p] = json.RawMessage(`{"type":"number"}`)
	}
	return t
}

type unknownCommand struct{}

func (unknownCommand) Verb() string           { return "action.devices.commands.Dock" }
func (unknownCommand) States() map[string]any { return nil }

func TestThingToDevice_FiltersUntagged(t *testing.T) {
	cases := [][]string{nil, {}, {"MultiLevelSensor"}, {"TemperatureSensor", "ColorControl"}}
	for _, types := range cases {
		if d := ThingToDevice(thing(types, "level"), testCreds); d != nil {
			t.Errorf("types %v: expected no device, got %+v", types, d)
		}
	}
}

func TestThingToDevice_LightTraits(t *testing.T) {
	dimmable := ThingToDevice(thing([]string{"Light", "OnOffSwitch"}, "on", "level"), testCreds)
	if dimmable == nil {
		t.Fatal("expected a device")
	}
	if dimmable.Type != smarthome.TypeLight {
		t.Errorf("type: got %s", dimmable.Type)
	}
	want := []string{smarthome.TraitOnOff, smarthome.TraitBrightness}
	if !reflect.DeepEqual(dimmable.Traits, want) {
		t.Errorf("dimmable traits: got %v, want %v", dimmable.Traits, want)
	}

	plain := ThingToDevice(thing([]string{"OnOffSwitch"}, "on"), testCreds)
	if !reflect.DeepEqual(plain.Traits, []string{smarthome.TraitOnOff}) {
		t.Errorf("switch traits: got %v", plain.Traits)
	}
}

func TestThingToDevice_LockWins(t *testing.T) {
	d := ThingToDevice(thing([]string{"Lock", "Light"}, "locked", "level"), testCreds)
	if d.Type != smarthome.TypeLock {
		t.Errorf("type: got %s", d.Type)
	}
	if !reflect.DeepEqual(d.Traits, []string{smarthome.TraitLockUnlock}) {
		t.Errorf("traits: got %v", d.Traits)
	}
}

func TestThingToDevice_Descriptor(t *testing.T) {
	d := ThingToDevice(thing([]string{"Light"}), testCreds)
	if d.ID != "/things/zb-1" || d.Name.Name != "Lamp" {
		t.Errorf("descriptor: got %+v", d)
	}
	if d.CustomData == nil || *d.CustomData != testCreds {
		t.Errorf("custom data: got %+v", d.CustomData)
	}
	if len(d.OtherDeviceIDs) != 1 || d.OtherDeviceIDs[0].DeviceID != "/things/zb-1" {
		t.Errorf("other device ids: got %+v", d.OtherDeviceIDs)
	}
}

func TestThingsToDevices(t *testing.T) {
	things := []gateway.Thing{thing([]string{"Light"}), thing([]string{"Thermostat"}), thing([]string{"Lock"})}
	if got := ThingsToDevices(things, testCreds); len(got) != 2 {
		t.Errorf("devices: got %d, want 2", len(got))
	}
	if got := ThingsToDevices(nil, testCreds); got == nil {
		t.Error("expected an empty, non-nil slice")
	}
}

func TestCommandToGateway_KnownVerbs(t *testing.T) {
	tests := []struct {
		cmd    smarthome.Command
		method string
		path   string
		body   map[string]any
	}{
		{smarthome.OnOff{On: true}, http.MethodPut, "/properties/on", map[string]any{"on": true}},
		{smarthome.StartStop{Start: true}, http.MethodPut, "/properties/isRunning", map[string]any{"isRunning": true}},
		{smarthome.PauseUnpause{Pause: false}, http.MethodPut, "/properties/isPaused", map[string]any{"isPaused": false}},
		{smarthome.BrightnessAbsolute{Brightness: 65}, http.MethodPut, "/properties/level", map[string]any{"level": 65}},
		{smarthome.LockUnlock{Lock: true}, http.MethodPost, "/actions/lock", map[string]any{"lock": map[string]any{"input": map[string]any{}}}},
		{smarthome.LockUnlock{Lock: false}, http.MethodPost, "/actions/unlock", map[string]any{"unlock": map[string]any{"input": map[string]any{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Verb(), func(t *testing.T) {
			req, err := CommandToGateway(tt.cmd)
			if err != nil {
				t.Fatalf("CommandToGateway error: %v", err)
			}
			if req.Method != tt.method || req.Path != tt.path {
				t.Errorf("request: got %s %s, want %s %s", req.Method, req.Path, tt.method, tt.path)
			}
			if !reflect.DeepEqual(req.Body, tt.body) {
				t.Errorf("body: got %v, want %v", req.Body, tt.body)
			}
		})
	}
}

func TestCommandToGateway_Unsupported(t *testing.T) {
	if _, err := CommandToGateway(unknownCommand{}); !errors.Is(err, smarthome.ErrUnsupportedCommand) {
		t.Errorf("expected ErrUnsupportedCommand, got %v", err)
	}
	if _, err := CommandToGateway(nil); !errors.Is(err, smarthome.ErrUnsupportedCommand) {
		t.Errorf("nil command: expected ErrUnsupportedCommand, got %v", err)
	}
}

func TestCommandToGateway_BrightnessOutOfRange(t *testing.T) {
	if _, err := CommandToGateway(smarthome.BrightnessAbsolute{Brightness: 140}); !errors.Is(err, smarthome.ErrValueOutOfRange) {
		t.Errorf("expected ErrValueOutOfRange, got %v", err)
	}
}

func TestForDevice(t *testing.T) {
	req, _ := CommandToGateway(smarthome.OnOff{On: true})
	if got := ForDevice("/things/zb-1", req).Path; got != "/things/zb-1/properties/on" {
		t.Errorf("path: got %s", got)
	}
}

func TestPropertiesToState_OnlyPresentFields(t *testing.T) {
	got := PropertiesToState(gateway.Properties{"on": true})
	want := map[string]any{"on": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state: got %v, want %v", got, want)
	}
}

func TestPropertiesToState_LevelAndLock(t *testing.T) {
	got := PropertiesToState(gateway.Properties{"level": 42.6, "locked": "jammed"})
	want := map[string]any{"brightness": 43, "isLocked": false, "isJammed": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state: got %v, want %v", got, want)
	}

	locked := PropertiesToState(gateway.Properties{"locked": "locked"})
	if locked["isLocked"] != true || locked["isJammed"] != false {
		t.Errorf("locked state: got %v", locked)
	}
}

func TestPropertiesToState_Empty(t *testing.T) {
	if got := PropertiesToState(gateway.Properties{}); len(got) != 0 {
		t.Errorf("expected empty state, got %v", got)
	}
}

func TestLocalPayload(t *testing.T) {
	tests := []struct {
		cmd  smarthome.Command
		want map[string]any
	}{
		{smarthome.OnOff{On: true}, map[string]any{"on": true}},
		{smarthome.StartStop{Start: true}, map[string]any{"isRunning": true}},
		{smarthome.PauseUnpause{Pause: true}, map[string]any{"isPaused": true}},
		{smarthome.BrightnessAbsolute{Brightness: 10}, map[string]any{"brightness": 10}},
		{smarthome.LockUnlock{Lock: true}, map[string]any{"isLocked": true}},
		{unknownCommand{}, map[string]any{}},
	}
	for _, tt := range tests {
		if got := LocalPayload(tt.cmd); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.cmd.Verb(), got, tt.want)
		}
	}
}
