package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListSessions returns the session history, most recent first.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.service.ListSessions(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// NewChat starts an empty session.
// POST /v1/sessions
func (h *Handler) NewChat(c echo.Context) error {
	snap, err := h.service.NewChat(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, h.service.Render(snap))
}

// LoadSession resumes a stored session.
// POST /v1/sessions/:session_id/load
func (h *Handler) LoadSession(c echo.Context) error {
	snap, err := h.service.OpenSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, h.service.Render(snap))
}
