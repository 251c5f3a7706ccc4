package homegraph

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/homai-bridge/pkg/db"
)

// StateReporter forwards stored device state to Home Graph. Pushes are
// fire-and-forget and never retried.
type StateReporter struct {
	client      Client
	agentUserID string
	timeout     time.Duration

	pending sync.WaitGroup
}

// NewStateReporter creates a reporter for a single agent user.
func NewStateReporter(client Client, agentUserID string, timeout time.Duration) *StateReporter {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &StateReporter{client: client, agentUserID: agentUserID, timeout: timeout}
}

// OnChange is a db.ChangeListener.
func (r *StateReporter) OnChange(_ context.Context, deviceID string, rec db.DeviceRecord) {
	state := rec.Flatten()

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		requestID := uuid.NewString()
		if err := r.Report(ctx, requestID, deviceID, state); err != nil {
			log.Error().Err(err).Str("device_id", deviceID).Str("request_id", requestID).Msg("report state failed")
			return
		}
		log.Info().Str("device_id", deviceID).Str("request_id", requestID).Msg("report state sent")
	}()
}

// Report pushes one device's state synchronously.
func (r *StateReporter) Report(ctx context.Context, requestID, deviceID string, state map[string]any) error {
	return r.client.ReportState(ctx, r.agentUserID, requestID, map[string]map[string]any{deviceID: state})
}

// RequestSync asks Home Graph to re-run SYNC for the agent user.
func (r *StateReporter) RequestSync(ctx context.Context) error {
	log.Info().Str("agent_user_id", r.agentUserID).Msg("request sync")
	return r.client.RequestSync(ctx, r.agentUserID)
}

// Wait blocks until in-flight pushes have finished.
func (r *StateReporter) Wait() {
	r.pending.Wait()
}
