// Package domain defines the core domain models for the chat widget.
package domain

// Role represents the author of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// ConversationState represents the turn-taking state of the conversation.
type ConversationState string

const (
	StateIdle             ConversationState = "idle"
	StateAwaitingResponse ConversationState = "awaiting_response"
	StateStreaming        ConversationState = "streaming"
)

// View represents the active panel view of the widget.
type View string

const (
	ViewHome    View = "home"
	ViewChat    View = "chat"
	ViewHistory View = "history"
)

// Modal represents the in-widget modal currently shown, if any.
type Modal string

const (
	ModalNone    Modal = ""
	ModalContact Modal = "contact"
	ModalBooking Modal = "booking"
)

// StreamEventType is the type discriminator of an NDJSON stream record.
type StreamEventType string

const (
	StreamEventItem StreamEventType = "item"
	StreamEventEnd  StreamEventType = "end"
)

// LeadType discriminates lead-capture payloads.
type LeadType string

const (
	LeadTypeGeneral    LeadType = ""
	LeadTypeNewsletter LeadType = "newsletter"
)

// Booking completion message constants sent by the scheduling iframe.
const (
	BookingOriginator   = "CAL"
	BookingSuccessful   = "bookingSuccessful"
	BookingSuccessfulV2 = "bookingSuccessfulV2"
)
