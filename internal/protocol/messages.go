// Package protocol defines the WebSocket message protocol between the widget
// host and its clients.
package protocol

import (
	"time"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// Message types from client to host
const (
	TypeHello = "hello"
	TypeSend  = "send"
)

// Message types from host to client
const (
	TypeHelloAck = "hello_ack"
	TypeMessages = "messages"
	TypeStatus   = "status"
	TypeWidget   = "widget"
	TypeError    = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewBase stamps a message header with the current time.
func NewBase(msgType, sessionID string) BaseMessage {
	return BaseMessage{Type: msgType, Ts: time.Now().UnixMilli(), SessionID: sessionID}
}

// HelloMessage is sent by the client to start receiving events.
type HelloMessage struct {
	BaseMessage
	ClientMeta map[string]string `json:"client_meta,omitempty"`
}

// HelloAckMessage is sent by the host after a successful hello.
type HelloAckMessage struct {
	BaseMessage
	State domain.ConversationState `json:"state"`
}

// SendMessage carries a user message typed in the client.
type SendMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// MessagesEvent carries the full, rendered transcript of the active session.
type MessagesEvent struct {
	BaseMessage
	State    domain.ConversationState `json:"state"`
	Messages []domain.RenderedMessage `json:"messages"`
}

// StatusEvent reports the turn state and the rotating typing phrase.
type StatusEvent struct {
	BaseMessage
	State  domain.ConversationState `json:"state"`
	Status string                   `json:"status,omitempty"`
}

// WidgetEvent reports a change of widget visibility.
type WidgetEvent struct {
	BaseMessage
	Visible bool `json:"visible"`
}

// ErrorMessage is sent by the host when a client message cannot be handled.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeHelloRequired  = "hello_required"
	ErrorCodeBusy           = "busy"
	ErrorCodeEmptyMessage   = "empty_message"
	ErrorCodeInternalError  = "internal_error"
)
