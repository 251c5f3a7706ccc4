package fulfillment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

type fakeGateway struct {
	mu       sync.Mutex
	things   []gateway.Thing
	props    map[string]gateway.Properties
	fail     map[string]error
	listErr  error
	sent     []gateway.Request
	lastBase string
}

func (f *fakeGateway) ListDevices(ctx context.Context, creds smarthome.CustomData) ([]gateway.Thing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBase = creds.URLBase
	return f.things, f.listErr
}

func (f *fakeGateway) GetDeviceProperties(ctx context.Context, creds smarthome.CustomData, deviceID string) (gateway.Properties, error) {
	if err := f.fail[deviceID]; err != nil {
		return nil, err
	}
	props, ok := f.props[deviceID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", deviceID, smarthome.ErrUpstreamUnavailable)
	}
	return props, nil
}

func (f *fakeGateway) Send(ctx context.Context, creds smarthome.CustomData, req gateway.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	for id, err := range f.fail {
		if len(req.Path) >= len(id) && req.Path[:len(id)] == id {
			return err
		}
	}
	return nil
}

func bearer(iss string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"iss":"` + iss + `"}`))
	return "Bearer h." + payload + ".s"
}

func creds() *smarthome.CustomData {
	return &smarthome.CustomData{Authorization: "Bearer t", URLBase: "https://gw"}
}

func lampThing(href string, props ...string) gateway.Thing {
	t := gateway.Thing{Href: href, Title: href, Types: []string{gateway.TagLight}, Properties: map[string]json.RawMessage{}}
	for _, p := range props {
		t.Properties[p] = json.RawMessage(`{}`)
	}
	return t
}

func openStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	return store
}

func exec(command string, params string) smarthome.Execution {
	return smarthome.Execution{Command: command, Params: json.RawMessage(params)}
}

func TestSync_TranslatesAndFilters(t *testing.T) {
	gw := &fakeGateway{things: []gateway.Thing{
		lampThing("/things/zb-1", "on", "level"),
		{Href: "/things/sensor", Types: []string{"TemperatureSensor"}},
		{Href: "/things/zb-2", Title: "Door", Types: []string{gateway.TagLock}},
	}}
	svc := NewService(gw, nil, Options{AgentUserID: "123"})

	resp, err := svc.Sync(context.Background(), "req-1", bearer("https://gw.example/"))
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if gw.lastBase != "https://gw.example" {
		t.Errorf("url base passed to gateway: got %s", gw.lastBase)
	}

	payload := resp.Payload.(smarthome.SyncPayload)
	if payload.AgentUserID != "123" || resp.RequestID != "req-1" {
		t.Errorf("envelope: got %+v", resp)
	}
	if len(payload.Devices) != 2 {
		t.Fatalf("devices: got %d, want 2", len(payload.Devices))
	}
	if payload.Devices[0].CustomData.Authorization == "" {
		t.Error("custom data must carry the bearer token")
	}
}

func TestSync_AppendsVirtualDevices(t *testing.T) {
	svc := NewService(&fakeGateway{}, nil, Options{
		AgentUserID:    "123",
		VirtualDevices: []VirtualDevice{{ID: "washer", Name: "Washer", VerificationID: "deviceid123"}},
	})

	resp, err := svc.Sync(context.Background(), "req-1", bearer("https://gw"))
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	devices := resp.Payload.(smarthome.SyncPayload).Devices
	if len(devices) != 1 {
		t.Fatalf("devices: got %d, want 1", len(devices))
	}
	w := devices[0]
	if w.Type != smarthome.TypeWasher || !w.WillReportState || w.Attributes["pausable"] != true {
		t.Errorf("washer descriptor: got %+v", w)
	}
	if len(w.OtherDeviceIDs) != 1 || w.OtherDeviceIDs[0].DeviceID != "deviceid123" {
		t.Errorf("other device ids: got %+v", w.OtherDeviceIDs)
	}
	if w.CustomData == nil || w.CustomData.Authorization != bearer("https://gw") || w.CustomData.URLBase != "https://gw" {
		t.Errorf("washer custom data: got %+v", w.CustomData)
	}
}

func TestSync_InvalidCredentials(t *testing.T) {
	svc := NewService(&fakeGateway{}, nil, Options{})

	_, err := svc.Sync(context.Background(), "req-1", "Bearer not-a-jwt")
	var herr *smarthome.HandlerError
	if !errors.As(err, &herr) || herr.Code != smarthome.CodeAuthFailure {
		t.Errorf("expected authFailure handler error, got %v", err)
	}
}

func TestSync_UpstreamFailureAborts(t *testing.T) {
	gw := &fakeGateway{listErr: fmt.Errorf("dial: %w", smarthome.ErrUpstreamUnavailable)}
	svc := NewService(gw, nil, Options{})

	_, err := svc.Sync(context.Background(), "req-1", bearer("https://gw"))
	if !errors.Is(err, smarthome.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestQuery_IsolatesFailures(t *testing.T) {
	gw := &fakeGateway{
		props: map[string]gateway.Properties{
			"/things/zb-1": {"on": true},
			"/things/zb-2": {"level": 49.5, "on": false},
		},
		fail: map[string]error{"/things/zb-3": fmt.Errorf("502: %w", smarthome.ErrUpstreamUnavailable)},
	}
	svc := NewService(gw, nil, Options{})

	resp := svc.Query(context.Background(), "req-2", smarthome.QueryRequestPayload{Devices: []smarthome.DeviceRef{
		{ID: "/things/zb-1", CustomData: creds()},
		{ID: "/things/zb-2", CustomData: creds()},
		{ID: "/things/zb-3", CustomData: creds()},
		{ID: "/things/zb-4"},
	}})

	devices := resp.Payload.(smarthome.QueryPayload).Devices
	if got := devices["/things/zb-1"]; len(got) != 1 || got["on"] != true {
		t.Errorf("zb-1: got %v, want only on=true", got)
	}
	if got := devices["/things/zb-2"]; got["brightness"] != 50 {
		t.Errorf("zb-2 brightness: got %v", got["brightness"])
	}
	if got := devices["/things/zb-3"]; got["status"] != smarthome.StatusError || got["errorCode"] != smarthome.CodeTransientError {
		t.Errorf("zb-3: got %v", got)
	}
	if got := devices["/things/zb-4"]; got["errorCode"] != smarthome.CodeAuthFailure {
		t.Errorf("zb-4 without token: got %v", got)
	}
}

func TestQuery_VirtualDevice(t *testing.T) {
	store := openStore(t)
	_ = store.States().Put(context.Background(), "washer", db.DeviceRecord{OnOff: db.OnOffState{On: true}})

	svc := NewService(&fakeGateway{}, store.States(), Options{VirtualDevices: []VirtualDevice{{ID: "washer"}, {ID: "dryer"}}})

	resp := svc.Query(context.Background(), "req", smarthome.QueryRequestPayload{Devices: []smarthome.DeviceRef{{ID: "washer"}, {ID: "dryer"}}})
	devices := resp.Payload.(smarthome.QueryPayload).Devices
	if got := devices["washer"]; got["on"] != true || got["isRunning"] != false {
		t.Errorf("washer: got %v", got)
	}
	if got := devices["dryer"]; got["on"] != false {
		t.Errorf("unstored virtual device should read as off, got %v", got)
	}
}

func TestExecute_DeviceWithoutTokenExcluded(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, Options{})

	resp := svc.Execute(context.Background(), "req-3", smarthome.ExecuteRequestPayload{Commands: []smarthome.CommandSet{{
		Devices: []smarthome.DeviceRef{
			{ID: "/things/a", CustomData: creds()},
			{ID: "/things/b", CustomData: &smarthome.CustomData{URLBase: "https://gw"}},
			{ID: "/things/c", CustomData: creds()},
		},
		Execution: []smarthome.Execution{exec(smarthome.CommandOnOff, `{"on":true}`)},
	}}})

	results := resp.Payload.(smarthome.ExecutePayload).Commands
	if len(results) != 2 {
		t.Fatalf("result groups: got %+v", results)
	}

	success := results[0]
	sort.Strings(success.IDs)
	if success.Status != smarthome.StatusSuccess || len(success.IDs) != 2 || success.IDs[0] != "/things/a" || success.IDs[1] != "/things/c" {
		t.Errorf("success group: got %+v", success)
	}
	if success.States["on"] != true || success.States["online"] != true {
		t.Errorf("success states: got %v", success.States)
	}

	failure := results[1]
	if failure.Status != smarthome.StatusError || failure.ErrorCode != smarthome.CodeAuthFailure || len(failure.IDs) != 1 || failure.IDs[0] != "/things/b" {
		t.Errorf("failure group: got %+v", failure)
	}
	if len(gw.sent) != 2 {
		t.Errorf("gateway calls: got %d, want 2", len(gw.sent))
	}
}

func TestExecute_GroupsErrorCodes(t *testing.T) {
	gw := &fakeGateway{fail: map[string]error{"/things/down": fmt.Errorf("503: %w", smarthome.ErrUpstreamUnavailable)}}
	svc := NewService(gw, nil, Options{})

	resp := svc.Execute(context.Background(), "req", smarthome.ExecuteRequestPayload{Commands: []smarthome.CommandSet{
		{
			Devices:   []smarthome.DeviceRef{{ID: "/things/ok", CustomData: creds()}, {ID: "/things/down", CustomData: creds()}},
			Execution: []smarthome.Execution{exec(smarthome.CommandBrightnessAbsolute, `{"brightness":30}`)},
		},
		{
			Devices:   []smarthome.DeviceRef{{ID: "/things/ok", CustomData: creds()}},
			Execution: []smarthome.Execution{exec("action.devices.commands.ColorAbsolute", `{}`)},
		},
		{
			Devices:   []smarthome.DeviceRef{{ID: "/things/ok", CustomData: creds()}},
			Execution: []smarthome.Execution{exec(smarthome.CommandBrightnessAbsolute, `{"brightness":101}`)},
		},
	}})

	codes := map[string][]string{}
	for _, r := range resp.Payload.(smarthome.ExecutePayload).Commands {
		key := r.Status + ":" + r.ErrorCode
		codes[key] = append(codes[key], r.IDs...)
	}
	if got := codes["SUCCESS:"]; len(got) != 1 || got[0] != "/things/ok" {
		t.Errorf("success: got %v", got)
	}
	if got := codes["ERROR:"+smarthome.CodeTransientError]; len(got) != 1 || got[0] != "/things/down" {
		t.Errorf("transient: got %v", got)
	}
	if got := codes["ERROR:"+smarthome.CodeFunctionNotSupported]; len(got) != 1 {
		t.Errorf("unsupported: got %v", got)
	}
	if got := codes["ERROR:"+smarthome.CodeValueOutOfRange]; len(got) != 1 {
		t.Errorf("out of range: got %v", got)
	}
}

func TestExecute_TranslatesGatewayCalls(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, Options{})

	svc.Execute(context.Background(), "req", smarthome.ExecuteRequestPayload{Commands: []smarthome.CommandSet{{
		Devices:   []smarthome.DeviceRef{{ID: "/things/zb-9", CustomData: creds()}},
		Execution: []smarthome.Execution{exec(smarthome.CommandLockUnlock, `{"lock":true}`)},
	}}})

	if len(gw.sent) != 1 || gw.sent[0].Method != "POST" || gw.sent[0].Path != "/things/zb-9/actions/lock" {
		t.Errorf("sent: got %+v", gw.sent)
	}
}

func TestExecute_VirtualDeviceWritesStore(t *testing.T) {
	store := openStore(t)
	var changed []string
	store.States().OnChange(func(ctx context.Context, id string, rec db.DeviceRecord) {
		changed = append(changed, id)
	})

	svc := NewService(&fakeGateway{}, store.States(), Options{VirtualDevices: []VirtualDevice{{ID: "washer"}}})

	resp := svc.Execute(context.Background(), "req", smarthome.ExecuteRequestPayload{Commands: []smarthome.CommandSet{{
		Devices: []smarthome.DeviceRef{{ID: "washer"}},
		Execution: []smarthome.Execution{
			exec(smarthome.CommandOnOff, `{"on":true}`),
			exec(smarthome.CommandStartStop, `{"start":true}`),
		},
	}}})

	results := resp.Payload.(smarthome.ExecutePayload).Commands
	if len(results) != 1 || results[0].Status != smarthome.StatusSuccess {
		t.Fatalf("results: got %+v", results)
	}
	rec, err := store.States().Get(context.Background(), "washer")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !rec.OnOff.On || !rec.StartStop.IsRunning {
		t.Errorf("stored record: got %+v", rec)
	}
	if len(changed) != 2 {
		t.Errorf("change notifications: got %d, want 2", len(changed))
	}
}

func TestExecute_VirtualDeviceRejectsLightCommands(t *testing.T) {
	store := openStore(t)
	svc := NewService(&fakeGateway{}, store.States(), Options{VirtualDevices: []VirtualDevice{{ID: "washer"}}})

	resp := svc.Execute(context.Background(), "req", smarthome.ExecuteRequestPayload{Commands: []smarthome.CommandSet{{
		Devices:   []smarthome.DeviceRef{{ID: "washer"}},
		Execution: []smarthome.Execution{exec(smarthome.CommandBrightnessAbsolute, `{"brightness":5}`)},
	}}})

	results := resp.Payload.(smarthome.ExecutePayload).Commands
	if len(results) != 1 || results[0].ErrorCode != smarthome.CodeFunctionNotSupported {
		t.Errorf("results: got %+v", results)
	}
}

func TestHandle_Dispatch(t *testing.T) {
	svc := NewService(&fakeGateway{}, nil, Options{AgentUserID: "123"})
	ctx := context.Background()

	out, err := svc.Handle(ctx, smarthome.Request{RequestID: "r", Inputs: []smarthome.Input{{Intent: smarthome.IntentDisconnect}}}, "")
	if err != nil {
		t.Fatalf("disconnect error: %v", err)
	}
	if b, _ := json.Marshal(out); string(b) != "{}" {
		t.Errorf("disconnect body: got %s", b)
	}

	_, err = svc.Handle(ctx, smarthome.Request{RequestID: "r", Inputs: []smarthome.Input{{Intent: "action.devices.UNKNOWN"}}}, "")
	if !errors.Is(err, smarthome.ErrInvalidRequest) {
		t.Errorf("unknown intent: expected ErrInvalidRequest, got %v", err)
	}

	_, err = svc.Handle(ctx, smarthome.Request{RequestID: "r"}, "")
	if !errors.Is(err, smarthome.ErrInvalidRequest) {
		t.Errorf("empty inputs: expected ErrInvalidRequest, got %v", err)
	}

	_, err = svc.Handle(ctx, smarthome.Request{RequestID: "r", Inputs: []smarthome.Input{{Intent: smarthome.IntentQuery, Payload: json.RawMessage(`[`)}}}, "")
	if !errors.Is(err, smarthome.ErrInvalidRequest) {
		t.Errorf("bad payload: expected ErrInvalidRequest, got %v", err)
	}

	out, err = svc.Handle(ctx, smarthome.Request{RequestID: "r", Inputs: []smarthome.Input{{
		Intent:  smarthome.IntentQuery,
		Payload: json.RawMessage(`{"devices":[]}`),
	}}}, "")
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if _, ok := out.(*smarthome.Response); !ok {
		t.Errorf("query response type: got %T", out)
	}
}
