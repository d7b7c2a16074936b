package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/adapter/webhook"
	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/markup"
	"github.com/gapii-backup/smart-assistant-widget/internal/repository"
	"github.com/gapii-backup/smart-assistant-widget/tests/helpers"
)

var testStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type sendFunc func(ctx context.Context, sessionID, text string, onIncrement webhook.IncrementFunc) (*domain.WebhookResponse, error)

type fakeTransport struct {
	mu    sync.Mutex
	calls []domain.WebhookRequest
	send  sendFunc
}

func (f *fakeTransport) Send(ctx context.Context, sessionID, text string, onIncrement webhook.IncrementFunc) (*domain.WebhookResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, domain.WebhookRequest{SessionID: sessionID, ChatInput: text})
	f.mu.Unlock()
	return f.send(ctx, sessionID, text, onIncrement)
}

func replyWith(output string) sendFunc {
	return func(_ context.Context, sessionID, _ string, _ webhook.IncrementFunc) (*domain.WebhookResponse, error) {
		return &domain.WebhookResponse{Output: output, SessionID: sessionID}, nil
	}
}

type fakeLeads struct {
	mu         sync.Mutex
	leads      []domain.LeadRequest
	support    []domain.SupportRequest
	supportErr error
}

func (f *fakeLeads) SubmitLead(_ context.Context, req domain.LeadRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, req)
	return nil
}

func (f *fakeLeads) SubmitSupport(_ context.Context, req domain.SupportRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.support = append(f.support, req)
	return f.supportErr
}

type fakeChecker struct {
	mu  sync.Mutex
	ok  bool
	err error
}

func (f *fakeChecker) set(ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ok, f.err = ok, err
}

func (f *fakeChecker) CheckHealth(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ok, f.err
}

type fixture struct {
	svc       *Service
	conv      *Conversation
	transport *fakeTransport
	leads     *fakeLeads
	checker   *fakeChecker
	sessions  *repository.SessionStore
	prefs     *repository.Preferences
	clock     *helpers.FakeClock
	cfg       *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		TableName:        "x001",
		ChatWebhookURL:   "http://agent.test/chat",
		BookingEnabled:   true,
		BookingURL:       "https://cal.test/15min",
		SupportEnabled:   true,
		TypingIntervalMS: 2500,
		Profile:          config.DefaultProfile(),
	}
}

func newFixture(t *testing.T, send sendFunc) *fixture {
	t.Helper()

	cfg := testConfig()
	clk := helpers.NewFakeClock(testStart)
	kv := helpers.NewTestSQLiteStore(t)
	sessions := repository.NewSessionStore(kv, cfg.SessionsKey(), clk, cfg.Profile.NewSessionPreview)
	prefs := repository.NewPreferences(kv, repository.NewMemoryKV(), cfg.TableName)

	transport := &fakeTransport{send: send}
	conv := NewConversation(transport, sessions, clk, ConversationOptions{
		TypingMessages: cfg.Profile.TypingMessages,
		TypingInterval: cfg.TypingInterval(),
		Errors:         cfg.Profile.Errors,
	})

	checker := &fakeChecker{ok: true}
	health := NewHealthMonitor(checker, 0)
	leads := &fakeLeads{}
	parser := markup.NewParser(markup.Gates{
		markup.MarkerContact:    true,
		markup.MarkerBooking:    true,
		markup.MarkerNewsletter: true,
		markup.MarkerProducts:   true,
	}, false)

	svc := New(cfg, conv, sessions, prefs, leads, health, parser, clk)
	return &fixture{
		svc:       svc,
		conv:      conv,
		transport: transport,
		leads:     leads,
		checker:   checker,
		sessions:  sessions,
		prefs:     prefs,
		clock:     clk,
		cfg:       cfg,
	}
}

// recorder collects published snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}
