// Package local implements the local execution agent: device
// identification from scan data, proxy reachability and LAN command
// delivery mirrored to the cloud gateway.
package local

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/urmzd/homai-bridge/pkg/discovery"
	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
	"github.com/urmzd/homai-bridge/pkg/translate"
)

// Mirror keeps the cloud gateway's state model in sync with LAN writes.
type Mirror interface {
	Send(ctx context.Context, creds smarthome.CustomData, req gateway.Request) error
}

// Scanner runs one UDP discovery round.
type Scanner interface {
	Scan(ctx context.Context) ([]discovery.ScanResult, error)
}

// Browser runs one mDNS browse.
type Browser func(ctx context.Context, service, domain string) ([]discovery.MDNSResult, error)

// Config holds the agent's single-tenant identifiers.
type Config struct {
	LeafDeviceID    string
	ProxyDeviceID   string
	ProxyPrefix     string
	MDNSService     string
	MDNSDomain      string
	LANPort         int
	URLBaseOverride string
	DeviceAliases   map[string]string
	ScanTimeout     time.Duration
	MaxConcurrency  int
}

// Agent handles IDENTIFY, REACHABLE_DEVICES and EXECUTE.
type Agent struct {
	cfg      Config
	lan      DeviceManager
	mirror   Mirror
	registry *Registry
	scanner  Scanner
	browse   Browser
}

// Option configures an Agent.
type Option func(*Agent)

// WithScanner enables UDP scanning.
func WithScanner(s Scanner) Option {
	return func(a *Agent) { a.scanner = s }
}

// WithBrowser enables mDNS browsing.
func WithBrowser(b Browser) Option {
	return func(a *Agent) { a.browse = b }
}

// NewAgent creates an agent. A nil mirror disables the cloud mirror.
func NewAgent(cfg Config, lan DeviceManager, mirror Mirror, registry *Registry, opts ...Option) *Agent {
	if registry == nil {
		registry = NewRegistry(nil)
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = 2 * time.Second
	}
	a := &Agent{cfg: cfg, lan: lan, mirror: mirror, registry: registry}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle dispatches a local envelope by its first intent.
func (a *Agent) Handle(ctx context.Context, req Request) (*Response, error) {
	if len(req.Inputs) == 0 {
		return nil, smarthome.NewHandlerError(req.RequestID, fmt.Errorf("no inputs: %w", smarthome.ErrInvalidRequest))
	}

	input := req.Inputs[0]
	switch input.Intent {
	case smarthome.IntentIdentify:
		var payload IdentifyPayload
		if err := decode(input.Payload, &payload); err != nil {
			return nil, smarthome.NewHandlerError(req.RequestID, err)
		}
		return a.Identify(req.RequestID, payload)

	case smarthome.IntentReachableDevices:
		var payload ReachablePayload
		if err := decode(input.Payload, &payload); err != nil {
			return nil, smarthome.NewHandlerError(req.RequestID, err)
		}
		return a.ReachableDevices(req.RequestID, payload.Device.ID, req.Devices), nil

	case smarthome.IntentExecute:
		var payload smarthome.ExecuteRequestPayload
		if err := decode(input.Payload, &payload); err != nil {
			return nil, smarthome.NewHandlerError(req.RequestID, err)
		}
		return a.Execute(ctx, req.RequestID, payload), nil

	default:
		return nil, smarthome.NewHandlerError(req.RequestID, fmt.Errorf("intent %q: %w", input.Intent, smarthome.ErrInvalidRequest))
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload: %w", smarthome.ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding payload: %v: %w", err, smarthome.ErrInvalidRequest)
	}
	return nil
}

// Identify turns UDP scan data into a leaf identity and matching mDNS scan
// data into a proxy identity.
func (a *Agent) Identify(requestID string, payload IdentifyPayload) (*Response, error) {
	udp, mdns := payload.Device.UDPScanData, payload.Device.MDNSScanData

	var device IdentifiedDevice
	switch {
	case udp != nil:
		raw, err := hex.DecodeString(udp.Data)
		if err != nil || len(raw) == 0 {
			return nil, &smarthome.HandlerError{
				RequestID: requestID,
				Code:      smarthome.CodeInvalidRequest,
				Err:       fmt.Errorf("invalid udp scan data %q: %w", udp.Data, smarthome.ErrInvalidRequest),
			}
		}
		device = IdentifiedDevice{ID: a.cfg.LeafDeviceID, VerificationID: string(raw)}
		a.registry.Set(a.cfg.LeafDeviceID, udp.Address)

	case mdns != nil && a.matchesService(mdns):
		device = IdentifiedDevice{ID: a.cfg.ProxyDeviceID, IsProxy: true, IsLocalOnly: true}
		a.registry.Set(a.cfg.ProxyDeviceID, mdns.Address)

	default:
		return nil, &smarthome.HandlerError{
			RequestID: requestID,
			Code:      smarthome.CodeInvalidRequest,
			Err:       fmt.Errorf("invalid scan data: %w", smarthome.ErrInvalidRequest),
		}
	}

	log.Debug().Str("request_id", requestID).Str("device_id", device.ID).Bool("proxy", device.IsProxy).Msg("identified device")
	return &Response{
		Intent:    smarthome.IntentIdentify,
		RequestID: requestID,
		Payload:   IdentifyResult{Device: device},
	}, nil
}

func (a *Agent) matchesService(m *MDNSScanData) bool {
	want := normalizeService(a.cfg.MDNSService)
	if want == "" {
		return false
	}
	for _, candidate := range []string{m.Type, m.ServiceName} {
		c := normalizeService(candidate)
		if c == want || strings.HasSuffix(c, "."+want) {
			return true
		}
	}
	return false
}

func normalizeService(s string) string {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
	return strings.TrimSuffix(s, ".local")
}

// ReachableDevices returns the candidates inside the gateway's id
// namespace as verification ids.
func (a *Agent) ReachableDevices(requestID, proxyID string, candidates []DeviceRef) *Response {
	if proxyID != a.cfg.ProxyDeviceID {
		log.Warn().Str("request_id", requestID).Str("proxy_id", proxyID).Msg("reachable devices requested for unknown proxy")
	}

	devices := []VerificationRef{}
	for _, d := range candidates {
		if strings.HasPrefix(d.ID, a.cfg.ProxyPrefix) {
			devices = append(devices, VerificationRef{VerificationID: d.ID})
		}
	}

	return &Response{
		Intent:    smarthome.IntentReachableDevices,
		RequestID: requestID,
		Payload:   ReachableResult{Devices: devices},
	}
}

// Execute delivers every command over the LAN and mirrors it to the cloud
// gateway concurrently. LAN delivery decides each device's outcome.
func (a *Agent) Execute(ctx context.Context, requestID string, payload smarthome.ExecuteRequestPayload) *Response {
	outcomes := smarthome.Outcomes(payload.Commands)

	var (
		mu             sync.Mutex
		mirrorFailures []string
	)

	g := &errgroup.Group{}
	if a.cfg.MaxConcurrency > 0 {
		g.SetLimit(a.cfg.MaxConcurrency)
	}
	var k int
	for _, set := range payload.Commands {
		for _, ref := range set.Devices {
			slot := &outcomes[k]
			k++
			g.Go(func() error {
				mirrorErr, err := a.executeDevice(ctx, requestID, ref, set.Execution)
				slot.Err = err
				if mirrorErr != nil {
					mu.Lock()
					mirrorFailures = append(mirrorFailures, fmt.Sprintf("%s: %v", ref.ID, mirrorErr))
					mu.Unlock()
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn().Err(o.Err).Str("request_id", requestID).Str("device_id", o.ID).Msg("an error occurred sending the command")
		}
	}

	result := smarthome.ExecutePayload{Commands: smarthome.GroupOutcomes(payload.Commands, outcomes)}
	if len(mirrorFailures) > 0 {
		result.DebugString = "gateway mirror failed: " + strings.Join(mirrorFailures, "; ")
	}

	return &Response{
		Intent:    smarthome.IntentExecute,
		RequestID: requestID,
		Payload:   result,
	}
}

func (a *Agent) executeDevice(ctx context.Context, requestID string, ref smarthome.DeviceRef, execs []smarthome.Execution) (mirrorErr, err error) {
	if err := ref.CustomData.Validate(); err != nil {
		return nil, err
	}
	if len(execs) == 0 {
		return nil, fmt.Errorf("no executions for %s: %w", ref.ID, smarthome.ErrInvalidRequest)
	}

	creds := *ref.CustomData
	if creds.URLBase == "" {
		creds.URLBase = a.cfg.URLBaseOverride
	}

	for _, e := range execs {
		cmd, err := smarthome.ParseExecution(e)
		if err != nil {
			return mirrorErr, err
		}
		req, err := translate.CommandToGateway(cmd)
		if err != nil {
			return mirrorErr, err
		}
		data, err := json.Marshal(translate.LocalPayload(cmd))
		if err != nil {
			return mirrorErr, fmt.Errorf("encoding local payload: %w", err)
		}

		var lanErr, cloudErr error
		var g errgroup.Group
		g.Go(func() error {
			lanErr = a.lan.Send(ctx, LANCommand{
				RequestID: requestID,
				DeviceID:  ref.ID,
				Port:      a.cfg.LANPort,
				Method:    "POST",
				Path:      "/",
				DataType:  "application/json",
				Data:      data,
			})
			return nil
		})
		if a.mirror != nil {
			href, hrefErr := a.gatewayID(ref.ID)
			if hrefErr != nil {
				cloudErr = hrefErr
			} else {
				g.Go(func() error {
					cloudErr = a.mirror.Send(ctx, creds, translate.ForDevice(href, req))
					return nil
				})
			}
		}
		_ = g.Wait()

		if cloudErr != nil {
			log.Warn().Err(cloudErr).Str("device_id", ref.ID).Msg("error calling gateway")
			mirrorErr = cloudErr
		}
		if lanErr != nil {
			return mirrorErr, lanErr
		}
		log.Debug().Str("device_id", ref.ID).Str("command", cmd.Verb()).Msg("command successfully sent")
	}
	return mirrorErr, nil
}

// gatewayID resolves a local id to its gateway href. Hrefs are absolute
// paths; anything else cannot be joined onto a URL base.
func (a *Agent) gatewayID(localID string) (string, error) {
	id := localID
	if alias, ok := a.cfg.DeviceAliases[localID]; ok {
		id = alias
	}
	if !strings.HasPrefix(id, "/") {
		return "", fmt.Errorf("no gateway href for %s (resolved %q): %w", localID, id, smarthome.ErrInvalidRequest)
	}
	return id, nil
}

// Scan runs the UDP scan and the mDNS browse concurrently and records
// discovered addresses.
func (a *Agent) Scan(ctx context.Context) (*ScanReport, error) {
	report := &ScanReport{UDP: []discovery.ScanResult{}, MDNS: []discovery.MDNSResult{}}

	g, gctx := errgroup.WithContext(ctx)
	if a.scanner != nil {
		g.Go(func() error {
			results, err := a.scanner.Scan(gctx)
			if err != nil {
				return fmt.Errorf("udp scan: %w", err)
			}
			report.UDP = results
			return nil
		})
	}
	if a.browse != nil {
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(gctx, a.cfg.ScanTimeout)
			defer cancel()
			results, err := a.browse(bctx, a.cfg.MDNSService, a.cfg.MDNSDomain)
			if err != nil {
				return fmt.Errorf("mdns browse: %w", err)
			}
			report.MDNS = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range report.UDP {
		a.registry.Set(a.cfg.LeafDeviceID, r.Address)
		if id, err := r.DeviceID(); err == nil {
			a.registry.Set(id, r.Address)
		}
	}
	for _, m := range report.MDNS {
		if len(m.Addresses) > 0 && a.matchesService(&MDNSScanData{Type: m.Service}) {
			a.registry.Set(a.cfg.ProxyDeviceID, m.Addresses[0])
		}
	}

	log.Info().Int("udp", len(report.UDP)).Int("mdns", len(report.MDNS)).Msg("scan complete")
	return report, nil
}
