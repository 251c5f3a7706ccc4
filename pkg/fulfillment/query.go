package fulfillment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
	"github.com/urmzd/homai-bridge/pkg/translate"
)

type queryOutcome struct {
	id    string
	state map[string]any
	err   error
}

// Query fetches every requested device's state concurrently. A failing
// device reports an error status without affecting the others.
func (s *Service) Query(ctx context.Context, requestID string, payload smarthome.QueryRequestPayload) *smarthome.Response {
	outcomes := make([]queryOutcome, len(payload.Devices))

	g := s.group()
	for i, ref := range payload.Devices {
		g.Go(func() error {
			state, err := s.queryDevice(ctx, ref)
			outcomes[i] = queryOutcome{id: ref.ID, state: state, err: err}
			return nil
		})
	}
	_ = g.Wait()

	devices := make(map[string]map[string]any, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			log.Warn().Err(o.err).Str("request_id", requestID).Str("device_id", o.id).Msg("query failed")
			devices[o.id] = errorState(o.err)
			continue
		}
		devices[o.id] = o.state
	}

	return &smarthome.Response{
		RequestID: requestID,
		Payload:   smarthome.QueryPayload{Devices: devices},
	}
}

func (s *Service) queryDevice(ctx context.Context, ref smarthome.DeviceRef) (map[string]any, error) {
	if _, ok := s.virtual[ref.ID]; ok {
		return s.queryVirtual(ctx, ref.ID)
	}

	creds, err := s.credsFor(ref)
	if err != nil {
		return nil, err
	}
	props, err := s.gw.GetDeviceProperties(ctx, creds, ref.ID)
	if err != nil {
		return nil, err
	}
	return translate.PropertiesToState(props), nil
}

func (s *Service) queryVirtual(ctx context.Context, id string) (map[string]any, error) {
	if s.states == nil {
		return nil, fmt.Errorf("no state store for virtual device %s", id)
	}
	rec, err := s.states.Get(ctx, id)
	if isNotFound(err) {
		return db.DeviceRecord{}.Flatten(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state of %s: %w", id, err)
	}
	return rec.Flatten(), nil
}
