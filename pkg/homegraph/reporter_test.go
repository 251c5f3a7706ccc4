package homegraph

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/urmzd/homai-bridge/pkg/db"
)

type fakeClient struct {
	mu      sync.Mutex
	syncs   []string
	reports []report
	err     error
}

type report struct {
	agentUserID string
	requestID   string
	states      map[string]map[string]any
}

func (f *fakeClient) RequestSync(ctx context.Context, agentUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs = append(f.syncs, agentUserID)
	return f.err
}

func (f *fakeClient) ReportState(ctx context.Context, agentUserID, requestID string, states map[string]map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report{agentUserID, requestID, states})
	return f.err
}

func TestStateReporter_ReportsStoreWrites(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}

	client := &fakeClient{}
	r := NewStateReporter(client, "123", 0)
	store.States().OnChange(r.OnChange)

	rec := db.DeviceRecord{OnOff: db.OnOffState{On: true}, StartStop: db.StartStopState{IsRunning: true}}
	if err := store.States().Put(context.Background(), "washer", rec); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	r.Wait()

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.reports) != 1 {
		t.Fatalf("reports: got %d, want 1", len(client.reports))
	}
	got := client.reports[0]
	if got.agentUserID != "123" || got.requestID == "" {
		t.Errorf("report envelope: got %+v", got)
	}
	state := got.states["washer"]
	if state["on"] != true || state["isRunning"] != true || state["isPaused"] != false {
		t.Errorf("reported state: got %v", state)
	}
}

func TestStateReporter_FailureIsSwallowed(t *testing.T) {
	client := &fakeClient{err: errors.New("home graph down")}
	r := NewStateReporter(client, "123", 0)

	r.OnChange(context.Background(), "washer", db.DeviceRecord{})
	r.Wait()

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.reports) != 1 {
		t.Errorf("reports: got %d, want 1 attempt and no retry", len(client.reports))
	}
}

func TestStateReporter_UniqueRequestIDs(t *testing.T) {
	client := &fakeClient{}
	r := NewStateReporter(client, "123", 0)

	r.OnChange(context.Background(), "washer", db.DeviceRecord{})
	r.OnChange(context.Background(), "washer", db.DeviceRecord{})
	r.Wait()

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.reports[0].requestID == client.reports[1].requestID {
		t.Error("request ids must differ between pushes")
	}
}

func TestStateReporter_RequestSync(t *testing.T) {
	client := &fakeClient{}
	r := NewStateReporter(client, "123", 0)

	if err := r.RequestSync(context.Background()); err != nil {
		t.Fatalf("RequestSync error: %v", err)
	}
	if len(client.syncs) != 1 || client.syncs[0] != "123" {
		t.Errorf("syncs: got %v", client.syncs)
	}
}

func TestNullClient(t *testing.T) {
	c := NewNullClient()
	if err := c.RequestSync(context.Background(), "123"); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
	if err := c.ReportState(context.Background(), "123", "r", nil); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}
