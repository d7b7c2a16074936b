package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

var (
	// ErrInvalidEmail is returned when an email address fails validation.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrSupportDisabled is returned when the contact form is turned off.
	ErrSupportDisabled = errors.New("contact form is disabled")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError reports an invalid form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StartRequest is the home-view form that opens a conversation.
type StartRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// StartConversation records the visitor as a lead when a name or email was
// given, then sends the first message in the chat view. The lead is submitted
// in the background and its failure is only logged.
func (s *Service) StartConversation(ctx context.Context, req StartRequest) (*domain.Message, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyInput
	}

	sessionID := s.conversation.EnsureSession()

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name != "" || email != "" {
		lead := domain.LeadRequest{
			Name:      name,
			Email:     email,
			SessionID: sessionID,
			TableName: s.config.TableName,
			Timestamp: isoTimestamp(s.clock.Now()),
		}
		s.background(ctx, "lead submission", func(ctx context.Context) error {
			return s.leads.SubmitLead(ctx, lead)
		})
	}
	if email != "" {
		if err := s.prefs.SetLastEmail(ctx, email); err != nil {
			log.Printf("WARN: failed to remember email: %v", err)
		}
	}

	s.setView(domain.ViewChat)
	return s.conversation.Send(ctx, req.Message)
}

// AskQuickQuestion sends a suggested question: it opens the widget in the
// chat view and hides the welcome bubble.
func (s *Service) AskQuickQuestion(ctx context.Context, question string) (*domain.Message, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyInput
	}

	if err := s.prefs.DismissWelcome(ctx); err != nil {
		log.Printf("WARN: failed to dismiss welcome bubble: %v", err)
	}
	s.mu.Lock()
	s.ui.open = true
	s.ui.view = domain.ViewChat
	s.mu.Unlock()

	s.conversation.EnsureSession()
	return s.conversation.Send(ctx, question)
}

// SubmitContact posts the contact form with the conversation transcript. The
// call is awaited and its error returned to the form; it never reaches the
// chat transcript.
func (s *Service) SubmitContact(ctx context.Context, form domain.ContactForm) error {
	if !s.config.SupportEnabled {
		return ErrSupportDisabled
	}

	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Message = strings.TrimSpace(form.Message)
	switch {
	case form.Name == "":
		return &ValidationError{Field: "name", Message: "is required"}
	case !emailPattern.MatchString(form.Email):
		return &ValidationError{Field: "email", Message: ErrInvalidEmail.Error()}
	case form.Message == "":
		return &ValidationError{Field: "message", Message: "is required"}
	}

	snap := s.conversation.Snapshot()
	req := domain.SupportRequest{
		Name:        form.Name,
		Email:       form.Email,
		Phone:       form.Phone,
		Message:     form.Message,
		SessionID:   snap.SessionID,
		ChatHistory: Transcript(snap.Messages, s.config.Profile.EmptyTranscript),
		TableName:   s.config.TableName,
		Timestamp:   isoTimestamp(s.clock.Now()),
	}
	if err := s.leads.SubmitSupport(ctx, req); err != nil {
		return fmt.Errorf("failed to submit contact form: %w", err)
	}

	if err := s.prefs.SetLastEmail(ctx, form.Email); err != nil {
		log.Printf("WARN: failed to remember email: %v", err)
	}
	s.mu.Lock()
	if s.ui.modal == domain.ModalContact {
		s.ui.modal = domain.ModalNone
	}
	s.mu.Unlock()
	return nil
}

// SubscribeNewsletter validates the address and submits it in the background.
func (s *Service) SubscribeNewsletter(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}

	if err := s.prefs.SetLastEmail(ctx, email); err != nil {
		log.Printf("WARN: failed to remember email: %v", err)
	}

	lead := domain.LeadRequest{
		Email:     email,
		SessionID: s.conversation.Snapshot().SessionID,
		Type:      domain.LeadTypeNewsletter,
		TableName: s.config.TableName,
		Timestamp: isoTimestamp(s.clock.Now()),
	}
	s.background(ctx, "newsletter signup", func(ctx context.Context) error {
		return s.leads.SubmitLead(ctx, lead)
	})
	return nil
}

// Transcript renders user and bot messages as role-tagged paragraphs.
func Transcript(messages []domain.Message, empty string) string {
	if len(messages) == 0 {
		return empty
	}

	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleUser:
			parts = append(parts, "USER: "+m.Content)
		case domain.RoleBot:
			parts = append(parts, "AI: "+m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
