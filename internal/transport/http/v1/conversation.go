package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/service"
)

// Stream line types of POST /v1/conversation/messages.
const (
	streamUpdate = "update"
	streamDone   = "done"
)

type sendRequest struct {
	Content string `json:"content"`
}

type quickRequest struct {
	Question string `json:"question"`
}

// streamLine is one NDJSON record of a turn.
type streamLine struct {
	Type         string                    `json:"type"`
	Conversation *service.ConversationView `json:"conversation"`
	Message      *domain.Message           `json:"message,omitempty"`
}

// GetConversation returns the active session with rendered messages.
// GET /v1/conversation
func (h *Handler) GetConversation(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.View())
}

// SendMessage runs one turn and streams conversation updates as NDJSON until
// the turn settles. The turn is not cancelled when the client goes away.
// POST /v1/conversation/messages
func (h *Handler) SendMessage(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.streamTurn(c, func(ctx context.Context) (*domain.Message, error) {
		return h.service.Send(ctx, req.Content)
	})
}

// StartConversation submits the home-view form and streams the first turn.
// POST /v1/conversation/start
func (h *Handler) StartConversation(c echo.Context) error {
	var req service.StartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.streamTurn(c, func(ctx context.Context) (*domain.Message, error) {
		return h.service.StartConversation(ctx, req)
	})
}

// AskQuickQuestion sends a suggested question and streams the turn.
// POST /v1/conversation/quick
func (h *Handler) AskQuickQuestion(c echo.Context) error {
	var req quickRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.streamTurn(c, func(ctx context.Context) (*domain.Message, error) {
		return h.service.AskQuickQuestion(ctx, req.Question)
	})
}

type turnResult struct {
	msg *domain.Message
	err error
}

// streamTurn runs send and writes published snapshots as update lines, then a
// done line with the settled conversation. Errors raised before anything was
// written are returned as plain JSON errors. A client that cannot keep up
// only sees the latest snapshot; the done line is always written.
func (h *Handler) streamTurn(c echo.Context, send func(ctx context.Context) (*domain.Message, error)) error {
	if h.service.Conversation().Snapshot().State != domain.StateIdle {
		return errorResponse(c, service.ErrBusy)
	}

	latest := newLatestSnapshot()
	unsubscribe := h.service.Conversation().Subscribe(latest.put)
	defer unsubscribe()

	ctx := context.WithoutCancel(c.Request().Context())
	done := make(chan turnResult, 1)
	go func() {
		msg, err := send(ctx)
		done <- turnResult{msg: msg, err: err}
	}()

	w := &lineWriter{c: c}
	drain := func() {
		if snap, ok := latest.take(); ok {
			view := h.service.Render(snap)
			w.write(streamLine{Type: streamUpdate, Conversation: &view})
		}
	}

	for {
		select {
		case <-latest.wake:
			drain()
		case res := <-done:
			if res.err != nil && !w.started {
				return errorResponse(c, res.err)
			}
			drain()
			view := h.service.View()
			w.write(streamLine{Type: streamDone, Conversation: &view, Message: res.msg})
			if res.err != nil {
				log.Printf("WARN: turn failed after streaming started: %v", res.err)
			}
			return nil
		}
	}
}

// latestSnapshot holds the most recent unsent snapshot. put replaces it and
// signals wake.
type latestSnapshot struct {
	mu   sync.Mutex
	snap *service.Snapshot
	wake chan struct{}
}

func newLatestSnapshot() *latestSnapshot {
	return &latestSnapshot{wake: make(chan struct{}, 1)}
}

func (l *latestSnapshot) put(snap service.Snapshot) {
	l.mu.Lock()
	l.snap = &snap
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *latestSnapshot) take() (service.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap == nil {
		return service.Snapshot{}, false
	}
	snap := *l.snap
	l.snap = nil
	return snap, true
}

// lineWriter writes NDJSON lines, committing the response on first use.
// Write errors mean the client left; the turn still runs to completion.
type lineWriter struct {
	c       echo.Context
	started bool
	broken  bool
}

func (w *lineWriter) write(line streamLine) {
	if w.broken {
		return
	}
	resp := w.c.Response()
	if !w.started {
		resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
		resp.Header().Set("Cache-Control", "no-cache")
		resp.WriteHeader(http.StatusOK)
		w.started = true
	}
	if err := json.NewEncoder(resp).Encode(line); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("WARN: failed to write stream line: %v", err)
		}
		w.broken = true
		return
	}
	if flusher, ok := resp.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
}
