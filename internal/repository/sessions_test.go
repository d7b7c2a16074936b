package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/repository"
	"github.com/gapii-backup/smart-assistant-widget/tests/helpers"
)

const sessionsKey = "bm_sessions_x001"

var start = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newSessionStore(t *testing.T) (*repository.SessionStore, repository.KV, *helpers.FakeClock) {
	t.Helper()
	kv := helpers.NewTestSQLiteStore(t)
	clk := helpers.NewFakeClock(start)
	return repository.NewSessionStore(kv, sessionsKey, clk, "New chat"), kv, clk
}

func userMessage(id, content string) domain.Message {
	return domain.Message{ID: id, Role: domain.RoleUser, Content: content, Timestamp: start}
}

func TestSessionStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store, _, clk := newSessionStore(t)

	_, err := store.Save(ctx, domain.Session{ID: "a", Messages: []domain.Message{userMessage("1", "first")}})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = store.Save(ctx, domain.Session{ID: "b", Messages: []domain.Message{userMessage("2", "other")}})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	saved, err := store.Save(ctx, domain.Session{ID: "a", Messages: []domain.Message{
		userMessage("1", "first"),
		{ID: "3", Role: domain.RoleBot, Content: "reply", Timestamp: start},
	}})
	require.NoError(t, err)
	assert.True(t, saved.CreatedAt.Equal(start.Add(2*time.Minute)))

	sessions, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "a", sessions[0].ID)
	assert.True(t, sessions[0].CreatedAt.Equal(start.Add(2*time.Minute)))
	assert.Len(t, sessions[0].Messages, 2)
	assert.Equal(t, "b", sessions[1].ID)
}

func TestSessionStoreRoundTripsTimestamps(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newSessionStore(t)

	ts := time.Date(2026, 2, 14, 8, 30, 15, 123000000, time.UTC)
	_, err := store.Save(ctx, domain.Session{ID: "a", Messages: []domain.Message{
		{ID: "1", Role: domain.RoleUser, Content: "hi", Timestamp: ts},
	}})
	require.NoError(t, err)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Messages[0].Timestamp.Equal(ts))

	missing, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionStorePreview(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newSessionStore(t)

	long := strings.Repeat("ž", 60)
	saved, err := store.Save(ctx, domain.Session{ID: "a", Messages: []domain.Message{
		{ID: "1", Role: domain.RoleBot, Content: "welcome"},
		userMessage("2", long),
	}})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ž", 50), saved.Preview)

	saved, err = store.Save(ctx, domain.Session{ID: "b", Messages: []domain.Message{
		{ID: "1", Role: domain.RoleBot, Content: "welcome"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "New chat", saved.Preview)
}

func TestSessionStoreDropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newSessionStore(t)

	doc := `[
		{"id":"good","messages":[{"id":1700000000000,"role":"user","content":"hi","timestamp":1700000000000}],"createdAt":"2026-03-01T09:00:00Z","preview":"hi"},
		{"id":"bad-time","messages":[],"createdAt":"yesterday","preview":""},
		{"messages":[]},
		"garbage",
		{"id":"good","messages":[],"createdAt":"2026-03-01T08:00:00Z","preview":"dup"}
	]`
	require.NoError(t, kv.Set(ctx, sessionsKey, doc))

	sessions, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "good", sessions[0].ID)
	assert.Equal(t, "1700000000000", sessions[0].Messages[0].ID)
	assert.True(t, sessions[0].Messages[0].Timestamp.Equal(time.UnixMilli(1700000000000)))
}

func TestSessionStoreUnreadableDocument(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newSessionStore(t)

	require.NoError(t, kv.Set(ctx, sessionsKey, "{not json"))

	sessions, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Saving replaces the unreadable document.
	_, err = store.Save(ctx, domain.Session{ID: "a", Messages: []domain.Message{userMessage("1", "hi")}})
	require.NoError(t, err)
	sessions, err = store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionStoreRequiresID(t *testing.T) {
	store, _, _ := newSessionStore(t)
	_, err := store.Save(context.Background(), domain.Session{})
	require.Error(t, err)
}
