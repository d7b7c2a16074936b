package domain

// WebhookRequest is the outbound chat request body.
type WebhookRequest struct {
	SessionID string `json:"sessionId"`
	ChatInput string `json:"chatInput"`
}

// WebhookResponse is the canonical shape every backend reply is reduced to.
type WebhookResponse struct {
	Output    string `json:"output"`
	SessionID string `json:"sessionId"`
}

// StreamEvent is one NDJSON record of a streamed answer.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Content *string         `json:"content,omitempty"`
}

// LeadRequest is posted to the lead-capture webhook.
type LeadRequest struct {
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	SessionID string   `json:"sessionId"`
	Type      LeadType `json:"type,omitempty"`
	TableName string   `json:"tableName"`
	Timestamp string   `json:"timestamp"`
}

// SupportRequest is posted to the support webhook.
type SupportRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Message     string `json:"message"`
	SessionID   string `json:"sessionId"`
	ChatHistory string `json:"chatHistory"`
	TableName   string `json:"tableName"`
	Timestamp   string `json:"timestamp"`
}

// BookingEvent is the cross-origin message emitted by the scheduling iframe.
type BookingEvent struct {
	Originator string `json:"originator"`
	Type       string `json:"type"`
}

// IsCompletion reports whether the event signals a successful booking.
func (e BookingEvent) IsCompletion() bool {
	if e.Originator != BookingOriginator {
		return false
	}
	return e.Type == BookingSuccessful || e.Type == BookingSuccessfulV2
}
