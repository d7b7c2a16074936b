// Package fixtures wires a complete widget service against test webhooks.
package fixtures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/adapter/leads"
	"github.com/gapii-backup/smart-assistant-widget/internal/adapter/webhook"
	"github.com/gapii-backup/smart-assistant-widget/internal/clock"
	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/policy"
	"github.com/gapii-backup/smart-assistant-widget/internal/repository"
	"github.com/gapii-backup/smart-assistant-widget/internal/service"
	"github.com/gapii-backup/smart-assistant-widget/tests/helpers"
)

// Options selects the webhook endpoints the service talks to. Empty URLs
// leave the corresponding feature unconfigured.
type Options struct {
	AgentURL   string
	LeadURL    string
	SupportURL string
	HealthURL  string
	Plain      bool
}

// Widget is a wired service plus the pieces tests inspect.
type Widget struct {
	Config   *config.Config
	Service  *service.Service
	Health   *service.HealthMonitor
	Sessions *repository.SessionStore
}

// Config returns a host configuration with every feature enabled.
func Config(opts Options) *config.Config {
	return &config.Config{
		TableName:         "test",
		ChatWebhookURL:    opts.AgentURL,
		LeadWebhookURL:    opts.LeadURL,
		SupportWebhookURL: opts.SupportURL,
		HealthCheckURL:    opts.HealthURL,
		WebhookTimeoutMS:  5000,
		WebhookStreaming:  !opts.Plain,
		AuxTimeoutMS:      5000,
		BookingEnabled:    true,
		BookingURL:        "https://cal.test/15min",
		SupportEnabled:    opts.SupportURL != "",
		TypingIntervalMS:  2500,
		WSPingIntervalMS:  30000,
		WSWriteTimeoutMS:  10000,
		WSReadTimeoutMS:   60000,
		WSMaxMessageSize:  65536,
		Profile:           config.DefaultProfile(),
	}
}

// NewService builds the service the way the host does, on an in-memory store.
func NewService(t *testing.T, opts Options) *Widget {
	t.Helper()

	cfg := Config(opts)
	ctx := context.Background()

	kv := helpers.NewTestSQLiteStore(t)
	clk := clock.Real{}
	sessions := repository.NewSessionStore(kv, cfg.SessionsKey(), clk, cfg.Profile.NewSessionPreview)
	prefs := repository.NewPreferences(kv, repository.NewMemoryKV(), cfg.TableName)

	mode := webhook.ModeStreaming
	if opts.Plain {
		mode = webhook.ModePlain
	}
	transport := webhook.NewClient(cfg.ChatWebhookURL, cfg.WebhookTimeout(), mode)
	leadClient := leads.NewClient(cfg.LeadWebhookURL, cfg.SupportWebhookURL, cfg.HealthCheckURL, cfg.AuxTimeout())

	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}
	parser, err := policy.NewParser(ctx, engine, cfg)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	conv := service.NewConversation(transport, sessions, clk, service.ConversationOptions{
		TypingMessages: cfg.Profile.TypingMessages,
		TypingInterval: cfg.TypingInterval(),
		Errors:         cfg.Profile.Errors,
	})
	health := service.NewHealthMonitor(leadClient, 0)
	svc := service.New(cfg, conv, sessions, prefs, leadClient, health, parser, clk)
	t.Cleanup(svc.Wait)

	return &Widget{Config: cfg, Service: svc, Health: health, Sessions: sessions}
}

// NewAgent starts a test webhook server.
func NewAgent(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// Eventually polls cond until it holds or a second has passed.
func Eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
