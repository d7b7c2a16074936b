// Package http provides the HTTP server of the widget host.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gapii-backup/smart-assistant-widget/internal/service"
	v1 "github.com/gapii-backup/smart-assistant-widget/internal/transport/http/v1"
	"github.com/gapii-backup/smart-assistant-widget/internal/transport/ws"
)

// NewServer creates the host-page facing server: the v1 widget API and the
// websocket event feed.
func NewServer(svc *service.Service, feed *ws.Server, logRequests bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	if logRequests {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1.NewHandler(svc).RegisterRoutes(e)
	if feed != nil {
		feed.RegisterRoutes(e)
	}

	return e
}
