package service

import (
	"context"
	"errors"
	"log"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// ErrBookingDisabled is returned when booking is turned off.
var ErrBookingDisabled = errors.New("booking is disabled")

// OpenBooking shows the scheduling modal. It stays open until the visitor
// closes it or a completion event arrives; there is no timeout.
func (s *Service) OpenBooking(ctx context.Context) (WidgetState, error) {
	if !s.config.BookingEnabled {
		return WidgetState{}, ErrBookingDisabled
	}
	s.mu.Lock()
	s.ui.modal = domain.ModalBooking
	s.ui.bookingCompleted = false
	s.mu.Unlock()
	return s.Widget(ctx)
}

// OpenContact shows the contact form modal.
func (s *Service) OpenContact(ctx context.Context) (WidgetState, error) {
	if !s.config.SupportEnabled {
		return WidgetState{}, ErrSupportDisabled
	}
	s.mu.Lock()
	s.ui.modal = domain.ModalContact
	s.mu.Unlock()
	return s.Widget(ctx)
}

// CloseModal hides whichever modal is open.
func (s *Service) CloseModal(ctx context.Context) (WidgetState, error) {
	s.mu.Lock()
	s.ui.modal = domain.ModalNone
	s.mu.Unlock()
	return s.Widget(ctx)
}

// BookingEvent handles a message from the scheduling frame. Only completion
// events received while the booking modal is open are accepted.
func (s *Service) BookingEvent(ev domain.BookingEvent) bool {
	if !ev.IsCompletion() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ui.modal != domain.ModalBooking {
		return false
	}
	s.ui.bookingCompleted = true
	log.Printf("INFO: booking completed (%s)", ev.Type)
	return true
}
