// Package ws provides the WebSocket event feed of the widget host.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/hub"
	"github.com/gapii-backup/smart-assistant-widget/internal/protocol"
	"github.com/gapii-backup/smart-assistant-widget/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	svc      *service.Service
	upgrader websocket.Upgrader

	mu   sync.Mutex
	last service.Snapshot
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, svc *service.Service) *Server {
	return &Server{
		cfg: cfg,
		hub: h,
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The widget is embedded in arbitrary host pages.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the websocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// Watch forwards conversation and visibility changes to connected clients
// until the returned function is called.
func (s *Server) Watch(health *service.HealthMonitor) func() {
	if health != nil {
		health.OnChange(s.publishVisibility)
	}
	return s.svc.Conversation().Subscribe(s.publish)
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WARN: failed to upgrade websocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.WSMaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout()))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout()))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: websocket error: %v", err)
			}
			return
		}
		s.handleMessage(conn, message)
	}
}

func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval())
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout()))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WARN: failed to write websocket message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout()))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case protocol.TypeHello:
		s.handleHello(conn, data)
	case protocol.TypeSend:
		s.handleSend(conn, data)
	default:
		s.sendError(conn, base.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

// handleHello acknowledges the client and sends the current transcript.
func (s *Server) handleHello(conn *hub.Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	view := s.svc.View()
	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.NewBase(protocol.TypeHelloAck, view.SessionID),
		State:       view.State,
	}
	ack.RequestID = msg.RequestID
	s.hub.SendJSONToConnection(conn, ack)
	s.hub.SendJSONToConnection(conn, messagesEvent(view))
	conn.MarkReady()

	log.Printf("INFO: websocket client %s ready", conn.ID)
}

func (s *Server) handleSend(conn *hub.Connection, data []byte) {
	var msg protocol.SendMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid send message")
		return
	}
	if !conn.Ready() {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeHelloRequired, "must send hello first")
		return
	}

	// The reply arrives through the broadcast feed.
	go func() {
		_, err := s.svc.Send(context.Background(), msg.Content)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrBusy):
			s.sendError(conn, msg.RequestID, protocol.ErrorCodeBusy, err.Error())
		case errors.Is(err, service.ErrEmptyInput):
			s.sendError(conn, msg.RequestID, protocol.ErrorCodeEmptyMessage, err.Error())
		default:
			log.Printf("ERROR: websocket send failed: %v", err)
			s.sendError(conn, msg.RequestID, protocol.ErrorCodeInternalError, err.Error())
		}
	}()
}

// publish broadcasts what changed between the previous snapshot and snap.
func (s *Server) publish(snap service.Snapshot) {
	s.mu.Lock()
	messagesChanged := snap.SessionID != s.last.SessionID || !sameMessages(s.last.Messages, snap.Messages)
	statusChanged := snap.State != s.last.State || snap.Status != s.last.Status
	s.last = snap
	s.mu.Unlock()

	if messagesChanged {
		if err := s.hub.BroadcastJSON(messagesEvent(s.svc.Render(snap))); err != nil {
			log.Printf("ERROR: failed to broadcast messages: %v", err)
		}
	}
	if statusChanged {
		ev := protocol.StatusEvent{
			BaseMessage: protocol.NewBase(protocol.TypeStatus, snap.SessionID),
			State:       snap.State,
			Status:      snap.Status,
		}
		if err := s.hub.BroadcastJSON(ev); err != nil {
			log.Printf("ERROR: failed to broadcast status: %v", err)
		}
	}
}

func (s *Server) publishVisibility(visible bool) {
	ev := protocol.WidgetEvent{
		BaseMessage: protocol.NewBase(protocol.TypeWidget, ""),
		Visible:     visible,
	}
	if err := s.hub.BroadcastJSON(ev); err != nil {
		log.Printf("ERROR: failed to broadcast visibility: %v", err)
	}
}

func (s *Server) sendError(conn *hub.Connection, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.NewBase(protocol.TypeError, ""),
		Code:        code,
		Message:     message,
	}
	errMsg.RequestID = requestID
	s.hub.SendJSONToConnection(conn, errMsg)
}

func messagesEvent(view service.ConversationView) protocol.MessagesEvent {
	return protocol.MessagesEvent{
		BaseMessage: protocol.NewBase(protocol.TypeMessages, view.SessionID),
		State:       view.State,
		Messages:    view.Rendered,
	}
}

func sameMessages(a, b []domain.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content {
			return false
		}
	}
	return true
}
