package local

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// DeviceManager delivers commands to devices over the LAN.
type DeviceManager interface {
	Send(ctx context.Context, cmd LANCommand) error
}

// Registry maps local device ids to LAN addresses learned from scans,
// falling back to statically configured ones.
type Registry struct {
	mu     sync.RWMutex
	addrs  map[string]string
	static map[string]string
}

// NewRegistry creates a registry seeded with static addresses.
func NewRegistry(static map[string]string) *Registry {
	s := make(map[string]string, len(static))
	for k, v := range static {
		s[k] = v
	}
	return &Registry{addrs: make(map[string]string), static: s}
}

// Set records the address a device was discovered at.
func (r *Registry) Set(deviceID, addr string) {
	if deviceID == "" || addr == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addrs[deviceID] = addr
}

// Lookup returns the discovered address, then the static one.
func (r *Registry) Lookup(deviceID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.addrs[deviceID]; ok {
		return a, true
	}
	a, ok := r.static[deviceID]
	return a, ok
}

// HTTPDeviceManager posts commands to http://{addr}:{port}{path}.
type HTTPDeviceManager struct {
	registry *Registry
	client   *http.Client
}

// NewHTTPDeviceManager creates a device manager resolving through registry.
func NewHTTPDeviceManager(registry *Registry, client *http.Client) *HTTPDeviceManager {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPDeviceManager{registry: registry, client: client}
}

func (m *HTTPDeviceManager) Send(ctx context.Context, cmd LANCommand) error {
	addr, ok := m.registry.Lookup(cmd.DeviceID)
	if !ok {
		return fmt.Errorf("no LAN address for %s: %w", cmd.DeviceID, smarthome.ErrDeliveryFailed)
	}

	method := cmd.Method
	if method == "" {
		method = http.MethodPost
	}
	path := cmd.Path
	if path == "" {
		path = "/"
	}
	url := "http://" + net.JoinHostPort(addr, strconv.Itoa(cmd.Port)) + path

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(cmd.Data))
	if err != nil {
		return fmt.Errorf("creating LAN request: %v: %w", err, smarthome.ErrDeliveryFailed)
	}
	dataType := cmd.DataType
	if dataType == "" {
		dataType = "application/json"
	}
	req.Header.Set("Content-Type", dataType)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, url, err, smarthome.ErrDeliveryFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: device returned %d: %w", method, url, resp.StatusCode, smarthome.ErrDeliveryFailed)
	}
	return nil
}
