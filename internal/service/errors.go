package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// errorText maps a transport failure to the configured chat copy.
func (c *Conversation) errorText(err error) string {
	msgs := c.opts.Errors

	var transportErr *domain.TransportError
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return orDefault(msgs.Timeout, msgs.Generic)
	case errors.Is(err, domain.ErrConnection):
		return orDefault(msgs.Connection, msgs.Generic)
	case errors.Is(err, domain.ErrInvalidResponse):
		return orDefault(msgs.InvalidResponse, msgs.Generic)
	case errors.As(err, &transportErr) && transportErr.Kind == domain.ErrHTTPStatus:
		if strings.Contains(msgs.HTTPStatus, "%d") {
			return fmt.Sprintf(msgs.HTTPStatus, transportErr.StatusCode)
		}
		return orDefault(msgs.HTTPStatus, msgs.Generic)
	default:
		return msgs.Generic
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
