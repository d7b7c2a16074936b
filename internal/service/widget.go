package service

import (
	"context"
	"errors"
	"log"

	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// ErrInvalidView is returned for an unknown view name.
var ErrInvalidView = errors.New("invalid view")

type uiState struct {
	open             bool
	view             domain.View
	modal            domain.Modal
	bookingCompleted bool
}

// WidgetState is what the host page needs to render the widget shell.
type WidgetState struct {
	Visible          bool            `json:"visible"`
	Open             bool            `json:"open"`
	View             domain.View     `json:"view"`
	Modal            domain.Modal    `json:"modal"`
	WelcomeVisible   bool            `json:"welcomeVisible"`
	BookingEnabled   bool            `json:"bookingEnabled"`
	BookingURL       string          `json:"bookingUrl,omitempty"`
	BookingCompleted bool            `json:"bookingCompleted"`
	SupportEnabled   bool            `json:"supportEnabled"`
	LastEmail        string          `json:"lastEmail,omitempty"`
	Profile          *config.Profile `json:"profile"`
}

// Widget returns the current widget state.
func (s *Service) Widget(ctx context.Context) (WidgetState, error) {
	dismissed, err := s.prefs.WelcomeDismissed(ctx)
	if err != nil {
		return WidgetState{}, err
	}
	email, err := s.prefs.LastEmail(ctx)
	if err != nil {
		return WidgetState{}, err
	}

	s.mu.Lock()
	ui := s.ui
	s.mu.Unlock()

	visible := s.health.Visible()
	state := WidgetState{
		Visible:          visible,
		Open:             ui.open,
		View:             ui.view,
		Modal:            ui.modal,
		WelcomeVisible:   visible && !ui.open && !dismissed,
		BookingEnabled:   s.config.BookingEnabled,
		BookingCompleted: ui.bookingCompleted,
		SupportEnabled:   s.config.SupportEnabled,
		LastEmail:        email,
		Profile:          s.config.Profile,
	}
	if s.config.BookingEnabled {
		state.BookingURL = s.config.BookingURL
	}
	return state, nil
}

// OpenWidget opens the panel. The open state is remembered only for wide
// viewports.
func (s *Service) OpenWidget(ctx context.Context, wide bool) (WidgetState, error) {
	s.mu.Lock()
	s.ui.open = true
	s.mu.Unlock()

	if s.conversation.Snapshot().SessionID == "" {
		if _, err := s.conversation.NewSession(); err != nil {
			return WidgetState{}, err
		}
		s.setView(domain.ViewHome)
	}
	if wide {
		s.rememberOpen(ctx, true)
	}
	return s.Widget(ctx)
}

// CloseWidget closes the panel and any open modal.
func (s *Service) CloseWidget(ctx context.Context, wide bool) (WidgetState, error) {
	s.mu.Lock()
	s.ui.open = false
	s.ui.modal = domain.ModalNone
	s.mu.Unlock()

	if wide {
		s.rememberOpen(ctx, false)
	}
	return s.Widget(ctx)
}

// SetView switches the panel view.
func (s *Service) SetView(ctx context.Context, view domain.View) (WidgetState, error) {
	switch view {
	case domain.ViewHome, domain.ViewChat, domain.ViewHistory:
	default:
		return WidgetState{}, ErrInvalidView
	}
	s.setView(view)
	return s.Widget(ctx)
}

// DismissWelcome hides the welcome bubble for the rest of the process lifetime.
func (s *Service) DismissWelcome(ctx context.Context) (WidgetState, error) {
	if err := s.prefs.DismissWelcome(ctx); err != nil {
		return WidgetState{}, err
	}
	return s.Widget(ctx)
}

func (s *Service) setView(view domain.View) {
	s.mu.Lock()
	s.ui.view = view
	s.mu.Unlock()
}

func (s *Service) rememberOpen(ctx context.Context, open bool) {
	if err := s.prefs.SetWidgetOpen(ctx, open); err != nil {
		log.Printf("WARN: failed to remember widget state: %v", err)
	}
}
