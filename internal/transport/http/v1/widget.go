package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/service"
)

type toggleRequest struct {
	Wide bool `json:"wide"`
}

type viewRequest struct {
	View domain.View `json:"view"`
}

// GetWidget returns the widget shell state.
// GET /v1/widget
func (h *Handler) GetWidget(c echo.Context) error {
	return h.widgetResponse(c)(h.service.Widget(c.Request().Context()))
}

// OpenWidget opens the panel.
// POST /v1/widget/open
func (h *Handler) OpenWidget(c echo.Context) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.widgetResponse(c)(h.service.OpenWidget(c.Request().Context(), req.Wide))
}

// CloseWidget closes the panel.
// POST /v1/widget/close
func (h *Handler) CloseWidget(c echo.Context) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.widgetResponse(c)(h.service.CloseWidget(c.Request().Context(), req.Wide))
}

// SetView switches between home, chat and history.
// POST /v1/widget/view
func (h *Handler) SetView(c echo.Context) error {
	var req viewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.widgetResponse(c)(h.service.SetView(c.Request().Context(), req.View))
}

// DismissWelcome hides the welcome bubble.
// POST /v1/widget/welcome/dismiss
func (h *Handler) DismissWelcome(c echo.Context) error {
	return h.widgetResponse(c)(h.service.DismissWelcome(c.Request().Context()))
}

// OpenContact shows the contact form.
// POST /v1/contact/open
func (h *Handler) OpenContact(c echo.Context) error {
	return h.widgetResponse(c)(h.service.OpenContact(c.Request().Context()))
}

// OpenBooking shows the scheduling modal.
// POST /v1/booking/open
func (h *Handler) OpenBooking(c echo.Context) error {
	return h.widgetResponse(c)(h.service.OpenBooking(c.Request().Context()))
}

// CloseModal hides the open modal.
// POST /v1/modal/close
func (h *Handler) CloseModal(c echo.Context) error {
	return h.widgetResponse(c)(h.service.CloseModal(c.Request().Context()))
}

// BookingEvent relays a message posted by the scheduling frame.
// POST /v1/booking/events
func (h *Handler) BookingEvent(c echo.Context) error {
	var ev domain.BookingEvent
	if err := c.Bind(&ev); err != nil {
		return badRequest(c, "invalid request body")
	}
	accepted := h.service.BookingEvent(ev)
	return c.JSON(http.StatusOK, map[string]bool{"accepted": accepted})
}

func (h *Handler) widgetResponse(c echo.Context) func(service.WidgetState, error) error {
	return func(state service.WidgetState, err error) error {
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, state)
	}
}
