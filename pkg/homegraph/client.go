// Package homegraph pushes sync requests and device state to the
// platform's Home Graph API.
package homegraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
	hg "google.golang.org/api/homegraph/v1"
	"google.golang.org/api/option"
)

// ErrDisabled indicates no Home Graph credentials are configured.
var ErrDisabled = errors.New("home graph disabled")

// Client is the outbound Home Graph surface.
type Client interface {
	RequestSync(ctx context.Context, agentUserID string) error
	ReportState(ctx context.Context, agentUserID, requestID string, states map[string]map[string]any) error
}

// GoogleClient calls the Home Graph API with service account credentials.
type GoogleClient struct {
	svc *hg.Service
}

// NewGoogleClient creates a client. An empty credentialsFile falls back to
// application default credentials.
func NewGoogleClient(ctx context.Context, credentialsFile string) (*GoogleClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(hg.HomegraphScope))

	svc, err := hg.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating home graph service: %w", err)
	}
	return &GoogleClient{svc: svc}, nil
}

func (c *GoogleClient) RequestSync(ctx context.Context, agentUserID string) error {
	_, err := c.svc.Devices.RequestSync(&hg.RequestSyncDevicesRequest{
		AgentUserId: agentUserID,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("request sync for %s: %w", agentUserID, err)
	}
	return nil
}

func (c *GoogleClient) ReportState(ctx context.Context, agentUserID, requestID string, states map[string]map[string]any) error {
	raw, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("marshaling states: %w", err)
	}

	_, err = c.svc.Devices.ReportStateAndNotification(&hg.ReportStateAndNotificationRequest{
		AgentUserId: agentUserID,
		RequestId:   requestID,
		Payload: &hg.StateAndNotificationPayload{
			Devices: &hg.ReportStateAndNotificationDevice{
				States: googleapi.RawMessage(raw),
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("report state %s: %w", requestID, err)
	}
	return nil
}

// NullClient is used when Home Graph is not configured. Every call fails
// with ErrDisabled.
type NullClient struct{}

// NewNullClient creates a new NullClient.
func NewNullClient() *NullClient {
	return &NullClient{}
}

func (NullClient) RequestSync(ctx context.Context, agentUserID string) error {
	return ErrDisabled
}

func (NullClient) ReportState(ctx context.Context, agentUserID, requestID string, states map[string]map[string]any) error {
	return ErrDisabled
}
