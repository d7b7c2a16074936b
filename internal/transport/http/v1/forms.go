package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/service"
)

type newsletterRequest struct {
	Email string `json:"email"`
}

// SubmitContact posts the contact form. Webhook failures are reported as 502
// so the form can show its own error.
// POST /v1/contact
func (h *Handler) SubmitContact(c echo.Context) error {
	var form domain.ContactForm
	if err := c.Bind(&form); err != nil {
		return badRequest(c, "invalid request body")
	}

	err := h.service.SubmitContact(c.Request().Context(), form)
	if err == nil {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}
	var validation *service.ValidationError
	if errors.As(err, &validation) || errors.Is(err, service.ErrSupportDisabled) {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
}

// SubscribeNewsletter registers an email for the newsletter.
// POST /v1/newsletter
func (h *Handler) SubscribeNewsletter(c echo.Context) error {
	var req newsletterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.service.SubscribeNewsletter(c.Request().Context(), req.Email); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]bool{"ok": true})
}
