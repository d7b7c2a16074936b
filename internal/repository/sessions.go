package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/clock"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

const previewLength = 50

// SessionStore persists the session history as one JSON array under a single
// key, most recently used first.
type SessionStore struct {
	mu              sync.Mutex
	kv              KV
	key             string
	clock           clock.Clock
	previewFallback string
}

// NewSessionStore creates a session store. previewFallback is used as the
// preview of sessions without a user message.
func NewSessionStore(kv KV, key string, clk clock.Clock, previewFallback string) *SessionStore {
	return &SessionStore{
		kv:              kv,
		key:             key,
		clock:           clk,
		previewFallback: previewFallback,
	}
}

// LoadAll returns every stored session, most recently used first. Entries that
// cannot be decoded are dropped.
func (s *SessionStore) LoadAll(ctx context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the session with the given id, or nil.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	sessions, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// Save upserts the session by id, stamps it with the current time and moves
// it to the front of the history.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) (domain.Session, error) {
	if session.ID == "" {
		return domain.Session{}, fmt.Errorf("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	saved := session.Clone()
	saved.CreatedAt = s.clock.Now()
	saved.Preview = Preview(saved.Messages, s.previewFallback)

	out := make([]domain.Session, 0, len(sessions)+1)
	out = append(out, saved)
	for _, existing := range sessions {
		if existing.ID != saved.ID {
			out = append(out, existing)
		}
	}

	data, err := json.Marshal(toStored(out))
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return domain.Session{}, fmt.Errorf("failed to save sessions: %w", err)
	}
	return saved, nil
}

func (s *SessionStore) load(ctx context.Context) ([]domain.Session, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if !ok || raw == "" {
		return []domain.Session{}, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("WARN: discarding unreadable session history %s: %v", s.key, err)
		return []domain.Session{}, nil
	}

	sessions := make([]domain.Session, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		session, err := decodeSession(entry)
		if err != nil {
			log.Printf("WARN: dropping session entry %d: %v", i, err)
			continue
		}
		if seen[session.ID] {
			continue
		}
		seen[session.ID] = true
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Preview returns the first previewLength characters of the first user
// message, or fallback.
func Preview(messages []domain.Message, fallback string) string {
	for _, m := range messages {
		if m.Role != domain.RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > previewLength {
			runes = runes[:previewLength]
		}
		if len(runes) == 0 {
			break
		}
		return string(runes)
	}
	return fallback
}

// Stored form. Instants are written as RFC 3339 strings; epoch milliseconds
// are also accepted on read.
type storedSession struct {
	ID        string          `json:"id"`
	Messages  []storedMessage `json:"messages"`
	CreatedAt json.RawMessage `json:"createdAt"`
	Preview   string          `json:"preview"`
}

type storedMessage struct {
	ID        json.RawMessage `json:"id"`
	Role      domain.Role     `json:"role"`
	Content   string          `json:"content"`
	Timestamp json.RawMessage `json:"timestamp"`
}

func toStored(sessions []domain.Session) []storedSession {
	out := make([]storedSession, 0, len(sessions))
	for _, s := range sessions {
		msgs := make([]storedMessage, 0, len(s.Messages))
		for _, m := range s.Messages {
			id, _ := json.Marshal(m.ID)
			msgs = append(msgs, storedMessage{
				ID:        id,
				Role:      m.Role,
				Content:   m.Content,
				Timestamp: formatInstant(m.Timestamp),
			})
		}
		out = append(out, storedSession{
			ID:        s.ID,
			Messages:  msgs,
			CreatedAt: formatInstant(s.CreatedAt),
			Preview:   s.Preview,
		})
	}
	return out
}

func decodeSession(entry json.RawMessage) (domain.Session, error) {
	var st storedSession
	if err := json.Unmarshal(entry, &st); err != nil {
		return domain.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if st.ID == "" {
		return domain.Session{}, fmt.Errorf("session has no id")
	}

	createdAt, err := parseInstant(st.CreatedAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session %s: %w", st.ID, err)
	}

	session := domain.Session{
		ID:        st.ID,
		Messages:  make([]domain.Message, 0, len(st.Messages)),
		CreatedAt: createdAt,
		Preview:   st.Preview,
	}
	for _, m := range st.Messages {
		ts, err := parseInstant(m.Timestamp)
		if err != nil {
			return domain.Session{}, fmt.Errorf("session %s: %w", st.ID, err)
		}
		id, err := parseID(m.ID)
		if err != nil {
			return domain.Session{}, fmt.Errorf("session %s: %w", st.ID, err)
		}
		session.Messages = append(session.Messages, domain.Message{
			ID:        id,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: ts,
		})
	}
	return session, nil
}

func formatInstant(t time.Time) json.RawMessage {
	b, _ := json.Marshal(t.UTC().Format(time.RFC3339Nano))
	return b
}

func parseInstant(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		return t, nil
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s", raw)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// parseID accepts ids written as strings or numbers.
func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("invalid message id %s", raw)
}
