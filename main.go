package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gapii-backup/smart-assistant-widget/internal/adapter/leads"
	"github.com/gapii-backup/smart-assistant-widget/internal/adapter/webhook"
	"github.com/gapii-backup/smart-assistant-widget/internal/clock"
	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/hub"
	"github.com/gapii-backup/smart-assistant-widget/internal/policy"
	"github.com/gapii-backup/smart-assistant-widget/internal/repository"
	"github.com/gapii-backup/smart-assistant-widget/internal/service"
	server "github.com/gapii-backup/smart-assistant-widget/internal/transport/http"
	"github.com/gapii-backup/smart-assistant-widget/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting widget host...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Chat webhook: %s (streaming: %v)", cfg.ChatWebhookURL, cfg.WebhookStreaming)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	clk := clock.Real{}
	sessions := repository.NewSessionStore(db, cfg.SessionsKey(), clk, cfg.Profile.NewSessionPreview)
	prefs := repository.NewPreferences(db, repository.NewMemoryKV(), cfg.TableName)

	// Initialize policy engine and content parser
	policyContent, err := policy.LoadPolicy(cfg.MarkerPolicyPath)
	if err != nil {
		log.Fatalf("Failed to load marker policy: %v", err)
	}
	policyEngine, err := policy.NewEngine(ctx, policyContent)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}
	parser, err := policy.NewParser(ctx, policyEngine, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize content parser: %v", err)
	}

	// Initialize webhook clients
	mode := webhook.ModePlain
	if cfg.WebhookStreaming {
		mode = webhook.ModeStreaming
	}
	chatClient := webhook.NewClient(cfg.ChatWebhookURL, cfg.WebhookTimeout(), mode)
	leadClient := leads.NewClient(cfg.LeadWebhookURL, cfg.SupportWebhookURL, cfg.HealthCheckURL, cfg.AuxTimeout())

	// Initialize service
	conversation := service.NewConversation(chatClient, sessions, clk, service.ConversationOptions{
		TypingMessages: cfg.Profile.TypingMessages,
		TypingInterval: cfg.TypingInterval(),
		Errors:         cfg.Profile.Errors,
	})
	health := service.NewHealthMonitor(leadClient, cfg.HealthCheckInterval)
	svc := service.New(cfg, conversation, sessions, prefs, leadClient, health, parser, clk)
	if err := svc.Restore(ctx); err != nil {
		log.Printf("WARN: failed to restore widget state: %v", err)
	}

	// Initialize websocket feed
	connectionHub := hub.NewHub()
	feed := ws.NewServer(cfg, connectionHub, svc)
	unwatch := feed.Watch(health)
	defer unwatch()

	if err := health.Start(ctx); err != nil {
		log.Fatalf("Failed to start health monitor: %v", err)
	}

	e := server.NewServer(svc, feed, !strings.EqualFold(cfg.LogLevel, "warn") && !strings.EqualFold(cfg.LogLevel, "error"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		connectionHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		log.Printf("Widget API started on port %d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down widget host...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		health.Stop()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
		}
		return nil
	})

	err = g.Wait()

	// Let background lead submissions finish before closing the store.
	svc.Wait()
	if err != nil {
		log.Fatalf("Widget host failed: %v", err)
	}
	log.Println("Widget host stopped")
}
