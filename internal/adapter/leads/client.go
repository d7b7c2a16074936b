// Package leads posts lead-capture and support payloads and probes the
// backend health endpoint.
package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// ErrNotConfigured is returned when the target webhook URL is empty.
var ErrNotConfigured = errors.New("webhook not configured")

type Client struct {
	leadURL    string
	supportURL string
	healthURL  string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(leadURL, supportURL, healthURL string, timeout time.Duration) *Client {
	return &Client{
		leadURL:    leadURL,
		supportURL: supportURL,
		healthURL:  healthURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// SubmitLead posts a lead or newsletter signup.
func (c *Client) SubmitLead(ctx context.Context, req domain.LeadRequest) error {
	if c.leadURL == "" {
		return ErrNotConfigured
	}
	if err := c.postJSON(ctx, c.leadURL, req); err != nil {
		return fmt.Errorf("failed to submit lead: %w", err)
	}
	return nil
}

// SubmitSupport posts a support request with the conversation transcript.
func (c *Client) SubmitSupport(ctx context.Context, req domain.SupportRequest) error {
	if c.supportURL == "" {
		return ErrNotConfigured
	}
	if err := c.postJSON(ctx, c.supportURL, req); err != nil {
		return fmt.Errorf("failed to submit support request: %w", err)
	}
	return nil
}

// CheckHealth issues a GET against the health endpoint. A missing URL counts
// as healthy; any transport error or non-2xx status does not.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	if c.healthURL == "" {
		return true, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &StatusError{StatusCode: resp.StatusCode}
	}
	return true, nil
}

// StatusError reports a non-2xx reply from a webhook.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
