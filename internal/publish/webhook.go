package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// WebhookSink POSTs each snapshot as JSON to an HTTP endpoint.
type WebhookSink struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookSink creates a sink for url. A non-empty token is sent as a bearer token.
func NewWebhookSink(url, token string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Publish(ctx context.Context, snap *models.FleetSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	resp, err := s.authorizedPost(ctx, data)
	if err != nil {
		return fmt.Errorf("post snapshot: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post snapshot: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSink) authorizedPost(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return s.client.Do(req)
}

func (s *WebhookSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
