// Package service implements the widget core: the conversation controller,
// widget UI state, forms, booking and the backend health gate.
package service

import (
	"context"
	"log"
	"sync"

	"github.com/gapii-backup/smart-assistant-widget/internal/clock"
	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/markup"
	"github.com/gapii-backup/smart-assistant-widget/internal/repository"
)

// LeadSink receives lead, newsletter and support submissions.
type LeadSink interface {
	SubmitLead(ctx context.Context, req domain.LeadRequest) error
	SubmitSupport(ctx context.Context, req domain.SupportRequest) error
}

type Service struct {
	config       *config.Config
	conversation *Conversation
	sessions     *repository.SessionStore
	prefs        *repository.Preferences
	leads        LeadSink
	health       *HealthMonitor
	parser       *markup.Parser
	clock        clock.Clock

	mu sync.Mutex
	ui uiState

	bg sync.WaitGroup
}

func New(cfg *config.Config, conversation *Conversation, sessions *repository.SessionStore, prefs *repository.Preferences, leads LeadSink, health *HealthMonitor, parser *markup.Parser, clk clock.Clock) *Service {
	return &Service{
		config:       cfg,
		conversation: conversation,
		sessions:     sessions,
		prefs:        prefs,
		leads:        leads,
		health:       health,
		parser:       parser,
		clock:        clk,
		ui:           uiState{view: domain.ViewHome},
	}
}

// Conversation returns the conversation controller.
func (s *Service) Conversation() *Conversation {
	return s.conversation
}

// Restore reloads the remembered open state of the panel.
func (s *Service) Restore(ctx context.Context) error {
	open, err := s.prefs.WidgetOpen(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ui.open = open
	s.mu.Unlock()
	if open {
		s.conversation.EnsureSession()
	}
	return nil
}

// Wait blocks until background submissions have finished.
func (s *Service) Wait() {
	s.bg.Wait()
}

// ConversationView is the conversation with every message rendered to blocks.
type ConversationView struct {
	Snapshot
	Rendered []domain.RenderedMessage `json:"rendered"`
}

// View returns the current conversation with rendered messages.
func (s *Service) View() ConversationView {
	return s.Render(s.conversation.Snapshot())
}

// Render attaches rendered blocks to a snapshot. Partial streamed text is
// parsed like any other; an incomplete marker stays literal.
func (s *Service) Render(snap Snapshot) ConversationView {
	return ConversationView{Snapshot: snap, Rendered: s.parser.RenderAll(snap.Messages)}
}

// Send sends a message typed in the chat view.
func (s *Service) Send(ctx context.Context, text string) (*domain.Message, error) {
	s.setView(domain.ViewChat)
	return s.conversation.Send(ctx, text)
}

// background runs fn detached from the caller's cancellation. Errors are logged.
func (s *Service) background(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if err := fn(ctx); err != nil {
			log.Printf("WARN: %s failed: %v", name, err)
		}
	}()
}
