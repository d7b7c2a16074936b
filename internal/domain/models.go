package domain

import "time"

// Message is a single chat message. Content may contain unprocessed markers.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one persisted conversation thread.
//
// CreatedAt is restamped on every save, so it holds the time of last activity;
// the field keeps its historical name for storage compatibility.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	Preview   string    `json:"preview"`
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.Messages = CloneMessages(s.Messages)
	return out
}

// CloneMessages returns a copy of msgs that shares no backing array.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Product is a single product card parsed from a product-cards block.
type Product struct {
	Name             string `json:"name"`
	ShortDescription string `json:"shortDescription,omitempty"`
	URL              string `json:"url"`
	ImageURL         string `json:"imageUrl,omitempty"`
}

// ContactForm is the data contract of the support form.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}
