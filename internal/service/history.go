package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// SessionSummary is one row of the history view.
type SessionSummary struct {
	ID           string    `json:"id"`
	Preview      string    `json:"preview"`
	LastActive   time.Time `json:"lastActive"`
	Label        string    `json:"label"`
	MessageCount int       `json:"messageCount"`
	Current      bool      `json:"current"`
}

// ListSessions returns the stored sessions, most recently used first.
func (s *Service) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := s.sessions.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	current := s.conversation.Snapshot().SessionID
	out := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionSummary{
			ID:           sess.ID,
			Preview:      sess.Preview,
			LastActive:   sess.CreatedAt,
			Label:        RelativeTime(s.config.Profile.RelativeTime, now, sess.CreatedAt),
			MessageCount: len(sess.Messages),
			Current:      sess.ID == current,
		})
	}
	return out, nil
}

// NewChat starts a fresh session and shows the home view.
func (s *Service) NewChat(ctx context.Context) (Snapshot, error) {
	snap, err := s.conversation.NewSession()
	if err != nil {
		return Snapshot{}, err
	}
	s.setView(domain.ViewHome)
	return snap, nil
}

// OpenSession resumes a stored session in the chat view.
func (s *Service) OpenSession(ctx context.Context, id string) (Snapshot, error) {
	snap, err := s.conversation.LoadSession(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	s.setView(domain.ViewChat)
	return snap, nil
}

// RelativeTime labels t relative to now for the history list.
func RelativeTime(labels config.RelativeTimeCopy, now, t time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case seconds < 60:
		return labels.JustNow
	case minutes < 60:
		return fmt.Sprintf(labels.Minutes, minutes)
	case hours < 24:
		return fmt.Sprintf(labels.Hours, hours)
	case days == 1:
		return labels.Yesterday
	case days < 7:
		return fmt.Sprintf(labels.Days, days)
	default:
		return t.In(now.Location()).Format(labels.DateLayout)
	}
}
