package fulfillment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
	"github.com/urmzd/homai-bridge/pkg/translate"
)

// Execute applies every command set to its devices concurrently. Each
// device runs its executions in order and succeeds only if all of them do.
func (s *Service) Execute(ctx context.Context, requestID string, payload smarthome.ExecuteRequestPayload) *smarthome.Response {
	outcomes := smarthome.Outcomes(payload.Commands)

	g := s.group()
	var k int
	for _, set := range payload.Commands {
		for _, ref := range set.Devices {
			slot := &outcomes[k]
			k++
			g.Go(func() error {
				slot.Err = s.executeDevice(ctx, ref, set.Execution)
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn().Err(o.Err).Str("request_id", requestID).Str("device_id", o.ID).Msg("execute failed")
		}
	}

	return &smarthome.Response{
		RequestID: requestID,
		Payload:   smarthome.ExecutePayload{Commands: smarthome.GroupOutcomes(payload.Commands, outcomes)},
	}
}

func (s *Service) executeDevice(ctx context.Context, ref smarthome.DeviceRef, execs []smarthome.Execution) error {
	if len(execs) == 0 {
		return fmt.Errorf("no executions for %s: %w", ref.ID, smarthome.ErrInvalidRequest)
	}

	if _, ok := s.virtual[ref.ID]; ok {
		for _, e := range execs {
			if err := s.executeVirtual(ctx, ref.ID, e); err != nil {
				return err
			}
		}
		return nil
	}

	creds, err := s.credsFor(ref)
	if err != nil {
		return err
	}
	for _, e := range execs {
		cmd, err := smarthome.ParseExecution(e)
		if err != nil {
			return err
		}
		req, err := translate.CommandToGateway(cmd)
		if err != nil {
			return err
		}
		if err := s.gw.Send(ctx, creds, translate.ForDevice(ref.ID, req)); err != nil {
			return err
		}
	}
	return nil
}

// executeVirtual writes the command into the state store, which fires the
// change listeners.
func (s *Service) executeVirtual(ctx context.Context, id string, e smarthome.Execution) error {
	if s.states == nil {
		return fmt.Errorf("no state store for virtual device %s", id)
	}
	cmd, err := smarthome.ParseExecution(e)
	if err != nil {
		return err
	}

	var apply func(*db.DeviceRecord)
	switch c := cmd.(type) {
	case smarthome.OnOff:
		apply = func(r *db.DeviceRecord) { r.OnOff.On = c.On }
	case smarthome.StartStop:
		apply = func(r *db.DeviceRecord) { r.StartStop.IsRunning = c.Start }
	case smarthome.PauseUnpause:
		apply = func(r *db.DeviceRecord) { r.StartStop.IsPaused = c.Pause }
	default:
		return fmt.Errorf("%s on washer %s: %w", cmd.Verb(), id, smarthome.ErrUnsupportedCommand)
	}

	if _, err := s.states.Update(ctx, id, apply); err != nil {
		return fmt.Errorf("writing state of %s: %w", id, err)
	}
	return nil
}
