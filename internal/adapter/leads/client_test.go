package leads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

func TestSubmitLeadPostsPayload(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "", time.Second)
	err := client.SubmitLead(context.Background(), domain.LeadRequest{
		Email:     "ana@example.com",
		SessionID: "session_1",
		Type:      domain.LeadTypeNewsletter,
		TableName: "x001",
		Timestamp: "2026-01-01T00:00:00.000Z",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"email":     "ana@example.com",
		"sessionId": "session_1",
		"type":      "newsletter",
		"tableName": "x001",
		"timestamp": "2026-01-01T00:00:00.000Z",
	}, got)
}

func TestSubmitSupportStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("", server.URL, "", time.Second)
	err := client.SubmitSupport(context.Background(), domain.SupportRequest{Name: "Ana"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestNotConfigured(t *testing.T) {
	client := NewClient("", "", "", time.Second)

	assert.ErrorIs(t, client.SubmitLead(context.Background(), domain.LeadRequest{}), ErrNotConfigured)
	assert.ErrorIs(t, client.SubmitSupport(context.Background(), domain.SupportRequest{}), ErrNotConfigured)

	ok, err := client.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckHealth(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	client := NewClient("", "", server.URL, time.Second)

	ok, err := client.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	status.Store(http.StatusServiceUnavailable)
	ok, err = client.CheckHealth(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
}

func TestCheckHealthTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("", "", server.URL, 50*time.Millisecond)
	ok, err := client.CheckHealth(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
}
