// Package v1 provides the widget API handlers.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gapii-backup/smart-assistant-widget/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the widget routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Widget shell
	e.GET("/v1/widget", h.GetWidget)
	e.POST("/v1/widget/open", h.OpenWidget)
	e.POST("/v1/widget/close", h.CloseWidget)
	e.POST("/v1/widget/view", h.SetView)
	e.POST("/v1/widget/welcome/dismiss", h.DismissWelcome)

	// Session history
	e.GET("/v1/sessions", h.ListSessions)
	e.POST("/v1/sessions", h.NewChat)
	e.POST("/v1/sessions/:session_id/load", h.LoadSession)

	// Conversation
	e.GET("/v1/conversation", h.GetConversation)
	e.POST("/v1/conversation/messages", h.SendMessage)
	e.POST("/v1/conversation/start", h.StartConversation)
	e.POST("/v1/conversation/quick", h.AskQuickQuestion)

	// Forms and modals
	e.POST("/v1/contact", h.SubmitContact)
	e.POST("/v1/contact/open", h.OpenContact)
	e.POST("/v1/newsletter", h.SubscribeNewsletter)
	e.POST("/v1/booking/open", h.OpenBooking)
	e.POST("/v1/booking/events", h.BookingEvent)
	e.POST("/v1/modal/close", h.CloseModal)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	snap := h.service.Conversation().Snapshot()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"state":  snap.State,
	})
}

// errorResponse maps service errors to status codes.
func errorResponse(c echo.Context, err error) error {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": validation.Error(),
			"field": validation.Field,
		})
	case errors.Is(err, service.ErrEmptyInput),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidView):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrBusy):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSupportDisabled),
		errors.Is(err, service.ErrBookingDisabled):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
