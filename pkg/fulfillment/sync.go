package fulfillment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/homai-bridge/pkg/smarthome"
	"github.com/urmzd/homai-bridge/pkg/translate"
)

// Sync lists gateway things, translates them and appends the virtual
// devices. Unparseable credentials and listing failures abort the intent.
func (s *Service) Sync(ctx context.Context, requestID, authorization string) (*smarthome.Response, error) {
	creds, err := smarthome.ParseAuthorization(authorization, s.opts.URLBaseOverride)
	if err != nil {
		return nil, smarthome.NewHandlerError(requestID, err)
	}

	things, err := s.gw.ListDevices(ctx, creds)
	if err != nil {
		return nil, smarthome.NewHandlerError(requestID, fmt.Errorf("listing things: %w", err))
	}

	devices := translate.ThingsToDevices(things, creds)
	log.Info().
		Str("request_id", requestID).
		Int("things", len(things)).
		Int("devices", len(devices)).
		Msg("sync translated gateway things")

	for _, v := range s.opts.VirtualDevices {
		devices = append(devices, virtualDescriptor(v, creds))
	}

	return &smarthome.Response{
		RequestID: requestID,
		Payload: smarthome.SyncPayload{
			AgentUserID: s.opts.AgentUserID,
			Devices:     devices,
		},
	}, nil
}

// virtualDescriptor carries creds like a gateway thing does, so the local
// agent can mirror commands for the device.
func virtualDescriptor(v VirtualDevice, creds smarthome.CustomData) smarthome.Device {
	name := v.Name
	if name == "" {
		name = "Washer"
	}
	d := smarthome.Device{
		ID:     v.ID,
		Type:   smarthome.TypeWasher,
		Traits: []string{smarthome.TraitOnOff, smarthome.TraitStartStop},
		Name: smarthome.DeviceName{
			DefaultNames: []string{name},
			Name:         name,
			Nicknames:    []string{name},
		},
		WillReportState: true,
		Attributes:      map[string]any{"pausable": true},
		CustomData:      &creds,
	}
	if v.VerificationID != "" {
		d.OtherDeviceIDs = []smarthome.OtherDeviceID{{DeviceID: v.VerificationID}}
	}
	return d
}
