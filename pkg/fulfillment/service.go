// Package fulfillment implements the cloud webhook intents over the
// gateway client, the schema translator and the virtual device store.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// Gateway is the subset of the gateway client the intents need.
type Gateway interface {
	ListDevices(ctx context.Context, creds smarthome.CustomData) ([]gateway.Thing, error)
	GetDeviceProperties(ctx context.Context, creds smarthome.CustomData, deviceID string) (gateway.Properties, error)
	Send(ctx context.Context, creds smarthome.CustomData, req gateway.Request) error
}

// VirtualDevice is a washer served from the state store.
type VirtualDevice struct {
	ID             string
	Name           string
	VerificationID string
}

// Options carries the single-tenant identifiers.
type Options struct {
	AgentUserID     string
	URLBaseOverride string
	VirtualDevices  []VirtualDevice
	// MaxConcurrency bounds per-batch fan-out; zero means unbounded.
	MaxConcurrency int
}

// Service dispatches fulfillment intents.
type Service struct {
	gw      Gateway
	states  db.StateStore
	opts    Options
	virtual map[string]VirtualDevice
}

// NewService creates a Service. states may be nil when no virtual devices
// are configured.
func NewService(gw Gateway, states db.StateStore, opts Options) *Service {
	virtual := make(map[string]VirtualDevice, len(opts.VirtualDevices))
	for _, v := range opts.VirtualDevices {
		virtual[v.ID] = v
	}
	return &Service{gw: gw, states: states, opts: opts, virtual: virtual}
}

// AgentUserID returns the configured agent user id.
func (s *Service) AgentUserID() string {
	return s.opts.AgentUserID
}

// Handle decodes the envelope's first input and runs its intent. Whole
// intent failures are returned as *smarthome.HandlerError.
func (s *Service) Handle(ctx context.Context, req smarthome.Request, authorization string) (any, error) {
	if len(req.Inputs) == 0 {
		return nil, smarthome.NewHandlerError(req.RequestID, fmt.Errorf("no inputs: %w", smarthome.ErrInvalidRequest))
	}

	input := req.Inputs[0]
	switch input.Intent {
	case smarthome.IntentSync:
		return s.Sync(ctx, req.RequestID, authorization)

	case smarthome.IntentQuery:
		var payload smarthome.QueryRequestPayload
		if err := decodePayload(input.Payload, &payload); err != nil {
			return nil, smarthome.NewHandlerError(req.RequestID, err)
		}
		return s.Query(ctx, req.RequestID, payload), nil

	case smarthome.IntentExecute:
		var payload smarthome.ExecuteRequestPayload
		if err := decodePayload(input.Payload, &payload); err != nil {
			return nil, smarthome.NewHandlerError(req.RequestID, err)
		}
		return s.Execute(ctx, req.RequestID, payload), nil

	case smarthome.IntentDisconnect:
		s.Disconnect(ctx, req.RequestID)
		return struct{}{}, nil

	default:
		return nil, smarthome.NewHandlerError(req.RequestID, fmt.Errorf("intent %q: %w", input.Intent, smarthome.ErrInvalidRequest))
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload: %w", smarthome.ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding payload: %v: %w", err, smarthome.ErrInvalidRequest)
	}
	return nil
}

// Disconnect acknowledges account unlinking. It has no side effects.
func (s *Service) Disconnect(_ context.Context, requestID string) {
	log.Info().Str("request_id", requestID).Str("agent_user_id", s.opts.AgentUserID).Msg("user account unlinked")
}

// credsFor validates the round-tripped custom data and fills a missing
// URL base from the override.
func (s *Service) credsFor(ref smarthome.DeviceRef) (smarthome.CustomData, error) {
	if err := ref.CustomData.Validate(); err != nil {
		return smarthome.CustomData{}, err
	}
	creds := *ref.CustomData
	if creds.URLBase == "" {
		creds.URLBase = s.opts.URLBaseOverride
	}
	return creds, nil
}

func (s *Service) group() *errgroup.Group {
	g := &errgroup.Group{}
	if s.opts.MaxConcurrency > 0 {
		g.SetLimit(s.opts.MaxConcurrency)
	}
	return g
}

func errorState(err error) map[string]any {
	return map[string]any{"status": smarthome.StatusError, "errorCode": smarthome.ErrorCode(err)}
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}
