package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPReporter posts the full state as JSON to a configured endpoint.
type HTTPReporter struct {
	url    string
	client *http.Client
}

// NewHTTPReporter creates a reporter posting to url.
func NewHTTPReporter(url string, client *http.Client) *HTTPReporter {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPReporter{url: url, client: client}
}

func (r *HTTPReporter) Report(ctx context.Context, s State) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("report endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// NullReporter is a no-op reporter used when no report endpoint is
// configured.
type NullReporter struct{}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() *NullReporter {
	return &NullReporter{}
}

func (NullReporter) Report(ctx context.Context, s State) error {
	return nil
}
