package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

func flushLines(w http.ResponseWriter, lines ...string) {
	flusher, _ := w.(http.Flusher)
	for _, line := range lines {
		fmt.Fprint(w, line)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func TestClientSendStreamsIncrements(t *testing.T) {
	var gotReq domain.WebhookRequest
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		w.Header().Set("Content-Type", "application/x-ndjson")
		flushLines(w,
			`{"type":"item","content":"Hel"}`+"\n",
			`{"type":"item","content":"lo"}`+"\n",
			`{"type":"end"}`+"\n",
		)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, ModeStreaming)

	var increments []string
	resp, err := client.Send(context.Background(), "session_1", "hi", func(answer string) {
		increments = append(increments, answer)
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", resp.Output)
	assert.Equal(t, "session_1", resp.SessionID)
	assert.Equal(t, []string{"Hel", "Hello", "Hello"}, increments)
	assert.Equal(t, domain.WebhookRequest{SessionID: "session_1", ChatInput: "hi"}, gotReq)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Contains(t, gotHeaders.Get("Accept"), "application/x-ndjson")
}

func TestClientSendFallbackShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "object output", body: `{"output":"Hi"}`, want: "Hi"},
		{name: "array of objects", body: `[{"output":"Hi"}]`, want: "Hi"},
		{name: "nested data", body: `{"data":{"response":"Hey"}}`, want: "Hey"},
		{name: "bare string", body: `"plain"`, want: "plain"},
		{name: "unrecognized object", body: `{"foo":1}`, want: `{"foo":1}`},
		{name: "plain text", body: "  just text \n", want: "just text"},
		{name: "non-envelope json lines", body: "{\"a\":1}\n{\"b\":2}\n", want: "{\"a\":1}\n{\"b\":2}"},
	}

	for _, mode := range []Mode{ModeStreaming, ModePlain} {
		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, tt.body)
				}))
				defer server.Close()

				var increments int
				client := NewClient(server.URL, time.Second, mode)
				resp, err := client.Send(context.Background(), "s", "q", func(string) { increments++ })
				require.NoError(t, err)
				assert.Equal(t, tt.want, resp.Output)
				assert.Zero(t, increments)
			})
		}
	}
}

func TestClientSendEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "   \n")
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, ModeStreaming)
	_, err := client.Send(context.Background(), "s", "q", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestClientSendHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"output":"ignored"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, ModeStreaming)
	_, err := client.Send(context.Background(), "s", "q", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHTTPStatus)

	var transportErr *domain.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
}

func TestClientSendTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond, ModeStreaming)
	_, err := client.Send(context.Background(), "s", "q", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestClientSendTimeoutDuringBodyRead(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flushLines(w, `{"type":"item",`)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 100*time.Millisecond, ModeStreaming)
	_, err := client.Send(context.Background(), "s", "q", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestClientSendKeepsPartialAnswerOnInterruptedStream(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flushLines(w, `{"type":"item","content":"partial"}`+"\n")
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	var last string
	client := NewClient(server.URL, 100*time.Millisecond, ModeStreaming)
	resp, err := client.Send(context.Background(), "s", "q", func(answer string) { last = answer })
	require.NoError(t, err)
	assert.Equal(t, "partial", resp.Output)
	assert.Equal(t, "partial", last)
}

func TestClientSendConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := NewClient("http://"+addr, time.Second, ModeStreaming)
	_, err = client.Send(context.Background(), "s", "q", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnection)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
}

func TestClientPlainModeSkipsStreamAssembly(t *testing.T) {
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, `{"type":"item","content":"x"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, ModePlain)
	resp, err := client.Send(context.Background(), "s", "q", nil)
	require.NoError(t, err)
	assert.NotContains(t, gotAccept, "ndjson")
	// Read as an ordinary object whose content field is the answer.
	assert.Equal(t, "x", resp.Output)
}
