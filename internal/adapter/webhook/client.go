// Package webhook provides the HTTP client for the chat webhook, with optional
// incremental (NDJSON) answer delivery.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/normalize"
)

// Mode selects how the response body is consumed.
type Mode string

const (
	// ModeStreaming reads the body incrementally and assembles NDJSON item events,
	// falling back to whole-body parsing when no envelope is found.
	ModeStreaming Mode = "streaming"
	// ModePlain reads the whole body and normalizes it.
	ModePlain Mode = "plain"
)

const (
	acceptStreaming = "application/x-ndjson, application/json, text/plain"
	acceptPlain     = "application/json, text/plain"
	readChunkSize   = 4096
)

// Client is an HTTP client for the chat webhook.
type Client struct {
	url        string
	timeout    time.Duration
	mode       Mode
	httpClient *http.Client
}

// NewClient creates a new webhook client. The timeout bounds the whole exchange,
// including reading the body.
func NewClient(url string, timeout time.Duration, mode Mode) *Client {
	if mode != ModePlain {
		mode = ModeStreaming
	}
	return &Client{
		url:        url,
		timeout:    timeout,
		mode:       mode,
		httpClient: &http.Client{},
	}
}

// Mode returns the configured delivery mode.
func (c *Client) Mode() Mode {
	return c.mode
}

// Send posts the user's text and returns the normalized answer. In streaming mode
// onIncrement is called with the accumulated answer after every item event and
// once more on the end event.
func (c *Client) Send(ctx context.Context, sessionID, text string, onIncrement IncrementFunc) (*domain.WebhookResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(domain.WebhookRequest{SessionID: sessionID, ChatInput: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewConnectionError(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.mode == ModeStreaming {
		httpReq.Header.Set("Accept", acceptStreaming)
	} else {
		httpReq.Header.Set("Accept", acceptPlain)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, domain.NewHTTPStatusError(resp.StatusCode)
	}

	if c.mode == ModePlain {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, classify(ctx, err)
		}
		return fallback(raw, sessionID)
	}

	asm := newAssembler(onIncrement)
	raw, readErr := readStream(resp.Body, asm)
	asm.Flush()

	if asm.Streamed() {
		if readErr != nil {
			log.Printf("WARN: webhook stream interrupted, keeping partial answer: %v", readErr)
		}
		return &domain.WebhookResponse{Output: asm.Answer(), SessionID: sessionID}, nil
	}
	if readErr != nil {
		return nil, classify(ctx, readErr)
	}
	return fallback(raw, sessionID)
}

// readStream copies the body into the assembler chunk by chunk and returns every
// byte received.
func readStream(body io.Reader, asm *assembler) ([]byte, error) {
	var raw bytes.Buffer
	buf := make([]byte, readChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			raw.Write(buf[:n])
			asm.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return raw.Bytes(), nil
		}
		if err != nil {
			return raw.Bytes(), err
		}
	}
}

// fallback interprets a complete body that carried no stream envelope.
func fallback(raw []byte, sessionID string) (*domain.WebhookResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if out, err := normalize.Bytes(trimmed); err == nil {
		return &domain.WebhookResponse{Output: out, SessionID: sessionID}, nil
	}
	if len(trimmed) > 0 {
		return &domain.WebhookResponse{Output: string(trimmed), SessionID: sessionID}, nil
	}
	return nil, domain.NewInvalidResponseError(fmt.Errorf("empty response body"))
}

// classify maps a request or read failure to a transport error kind. Expiry of
// the request budget is reported as a timeout whatever the underlying error is.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTimeoutError(err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewTimeoutError(err)
	}
	return domain.NewConnectionError(err)
}
