package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// Client talks to the gateway's REST "things" API. It holds no
// credentials; every call receives the per-request CustomData.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry replaces the retry policy applied to idempotent calls.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a gateway client bounding every upstream call by timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListDevices fetches GET {urlBase}/things.
func (c *Client) ListDevices(ctx context.Context, creds smarthome.CustomData) ([]Thing, error) {
	body, err := c.do(ctx, creds, http.MethodGet, "/things", nil, c.retry)
	if err != nil {
		return nil, err
	}

	var things []Thing
	if err := json.Unmarshal(body, &things); err != nil {
		return nil, fmt.Errorf("parsing things: %v: %w", err, smarthome.ErrUpstreamUnavailable)
	}
	return things, nil
}

// GetDeviceProperties fetches GET {urlBase}{deviceID}/properties.
func (c *Client) GetDeviceProperties(ctx context.Context, creds smarthome.CustomData, deviceID string) (Properties, error) {
	body, err := c.do(ctx, creds, http.MethodGet, deviceID+"/properties", nil, c.retry)
	if err != nil {
		return nil, err
	}

	var props Properties
	if err := json.Unmarshal(body, &props); err != nil {
		return nil, fmt.Errorf("parsing properties of %s: %v: %w", deviceID, err, smarthome.ErrUpstreamUnavailable)
	}
	return props, nil
}

// SetDeviceProperty issues PUT {urlBase}{deviceID}/properties/{name} with
// body {name: value}.
func (c *Client) SetDeviceProperty(ctx context.Context, creds smarthome.CustomData, deviceID, name string, value any) error {
	_, err := c.do(ctx, creds, http.MethodPut, deviceID+"/properties/"+name, map[string]any{name: value}, c.retry)
	return err
}

// InvokeAction issues POST {urlBase}{deviceID}/actions/{name} with body
// {name: {input: input}}. Actions are not idempotent and are never retried.
func (c *Client) InvokeAction(ctx context.Context, creds smarthome.CustomData, deviceID, name string, input map[string]any) error {
	if input == nil {
		input = map[string]any{}
	}
	body := map[string]any{name: map[string]any{"input": input}}
	_, err := c.do(ctx, creds, http.MethodPost, deviceID+"/actions/"+name, body, NoRetry())
	return err
}

// Send issues a translated request. PUTs are retried, POSTs are not.
func (c *Client) Send(ctx context.Context, creds smarthome.CustomData, req Request) error {
	policy := c.retry
	if req.Method == http.MethodPost {
		policy = NoRetry()
	}
	_, err := c.do(ctx, creds, req.Method, req.Path, req.Body, policy)
	return err
}

func (c *Client) do(ctx context.Context, creds smarthome.CustomData, method, path string, body any, policy RetryConfig) ([]byte, error) {
	if strings.TrimSpace(creds.Authorization) == "" {
		return nil, fmt.Errorf("no bearer token: %w", smarthome.ErrInvalidCredentials)
	}
	if creds.URLBase == "" {
		return nil, fmt.Errorf("no gateway url base: %w", smarthome.ErrInvalidCredentials)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
	}

	url := strings.TrimSuffix(creds.URLBase, "/") + path

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var respBody []byte
	err := withRetry(ctx, policy, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", creds.Authorization)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %v: %w", method, path, err, smarthome.ErrUpstreamUnavailable)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %v: %w", err, smarthome.ErrUpstreamUnavailable)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return permanent(fmt.Errorf("%s %s: gateway returned %d: %w", method, path, resp.StatusCode, smarthome.ErrInvalidCredentials))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err := fmt.Errorf("%s %s: gateway returned %d: %w", method, path, resp.StatusCode, smarthome.ErrUpstreamUnavailable)
			if isRetryableStatus(resp.StatusCode) {
				return err
			}
			return permanent(err)
		}
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("gateway call failed")
		return nil, err
	}

	return respBody, nil
}
