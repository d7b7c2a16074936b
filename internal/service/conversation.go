package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gapii-backup/smart-assistant-widget/internal/adapter/webhook"
	"github.com/gapii-backup/smart-assistant-widget/internal/clock"
	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

var (
	// ErrBusy is returned while a reply is awaited or streaming.
	ErrBusy = errors.New("a reply is already in progress")
	// ErrEmptyInput is returned for blank messages.
	ErrEmptyInput = errors.New("message is empty")
	// ErrSessionNotFound is returned when loading an unknown session.
	ErrSessionNotFound = errors.New("session not found")
)

// ChatTransport delivers a user message to the agent webhook.
type ChatTransport interface {
	Send(ctx context.Context, sessionID, text string, onIncrement webhook.IncrementFunc) (*domain.WebhookResponse, error)
}

// SessionRepository persists conversations.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session domain.Session) (domain.Session, error)
}

// Snapshot is a consistent copy of the conversation state.
type Snapshot struct {
	SessionID string                   `json:"sessionId"`
	State     domain.ConversationState `json:"state"`
	Status    string                   `json:"status,omitempty"`
	Messages  []domain.Message         `json:"messages"`

	// Seq orders snapshots; listeners never see a lower Seq after a higher one.
	Seq uint64 `json:"-"`
}

// Listener is notified with a snapshot after every state change.
type Listener func(Snapshot)

// ConversationOptions configures the status rotation and error copy.
type ConversationOptions struct {
	TypingMessages []string
	TypingInterval time.Duration
	Errors         config.ErrorCopy
}

// Conversation owns the working copy of the active session and drives one
// request/response turn at a time.
type Conversation struct {
	transport ChatTransport
	store     SessionRepository
	clock     clock.Clock
	opts      ConversationOptions

	mu        sync.Mutex
	sessionID string
	messages  []domain.Message
	state     domain.ConversationState
	status    string
	lastID    int64
	seq       uint64

	publishMu sync.Mutex
	published uint64

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

func NewConversation(transport ChatTransport, store SessionRepository, clk clock.Clock, opts ConversationOptions) *Conversation {
	return &Conversation{
		transport: transport,
		store:     store,
		clock:     clk,
		opts:      opts,
		state:     domain.StateIdle,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (c *Conversation) Subscribe(fn Listener) func() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, id)
	}
}

// Snapshot returns the current state.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// EnsureSession starts a session if none is active and returns its id.
func (c *Conversation) EnsureSession() string {
	c.mu.Lock()
	if c.sessionID != "" {
		id := c.sessionID
		c.mu.Unlock()
		return id
	}
	c.sessionID = c.newSessionID()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return snap.SessionID
}

// NewSession discards the working copy and starts an empty session.
func (c *Conversation) NewSession() (Snapshot, error) {
	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return Snapshot{}, ErrBusy
	}
	c.sessionID = c.newSessionID()
	c.messages = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return snap, nil
}

// LoadSession makes a stored session the active one.
func (c *Conversation) LoadSession(ctx context.Context, id string) (Snapshot, error) {
	session, err := c.store.Get(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return Snapshot{}, ErrSessionNotFound
	}

	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return Snapshot{}, ErrBusy
	}
	c.sessionID = session.ID
	c.messages = domain.CloneMessages(session.Messages)
	for _, m := range c.messages {
		if n, err := strconv.ParseInt(m.ID, 10, 64); err == nil && n > c.lastID {
			c.lastID = n
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return snap, nil
}

// Send runs one turn. Transport failures do not return an error: they end the
// turn with a system message, which is returned. Otherwise the final bot
// message is returned.
func (c *Conversation) Send(ctx context.Context, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.sessionID == "" {
		c.sessionID = c.newSessionID()
	}
	sessionID := c.sessionID
	c.messages = append(c.messages, domain.Message{
		ID:        c.nextID(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: c.clock.Now(),
	})
	botID := c.nextID()
	c.state = domain.StateAwaitingResponse
	c.status = ""
	if len(c.opts.TypingMessages) > 0 {
		c.status = c.opts.TypingMessages[0]
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	// Persistence outlives a cancelled caller.
	saveCtx := context.WithoutCancel(ctx)
	c.persist(saveCtx, snap)
	c.publish(snap)

	stopStatus := c.startStatusRotation()
	defer stopStatus()

	onIncrement := func(answer string) {
		stopStatus()

		c.mu.Lock()
		c.state = domain.StateStreaming
		c.status = ""
		c.upsertLocked(botID, answer)
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.persist(saveCtx, snap)
		c.publish(snap)
	}

	resp, err := c.transport.Send(ctx, sessionID, text, onIncrement)
	stopStatus()

	c.mu.Lock()
	var result domain.Message
	if err != nil {
		log.Printf("ERROR: chat webhook failed for session %s: %v", sessionID, err)
		result = domain.Message{
			ID:        c.nextID(),
			Role:      domain.RoleSystem,
			Content:   c.errorText(err),
			Timestamp: c.clock.Now(),
		}
		c.messages = append(c.messages, result)
	} else {
		result = c.upsertLocked(botID, resp.Output)
	}
	c.state = domain.StateIdle
	c.status = ""
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.persist(saveCtx, snap)
	c.publish(snap)
	return &result, nil
}

// upsertLocked sets the content of the bot message with the given id,
// appending it on first use.
func (c *Conversation) upsertLocked(id, content string) domain.Message {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Content = content
			return c.messages[i]
		}
	}
	msg := domain.Message{
		ID:        id,
		Role:      domain.RoleBot,
		Content:   content,
		Timestamp: c.clock.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

func (c *Conversation) snapshotLocked() Snapshot {
	c.seq++
	msgs := domain.CloneMessages(c.messages)
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return Snapshot{
		SessionID: c.sessionID,
		State:     c.state,
		Status:    c.status,
		Messages:  msgs,
		Seq:       c.seq,
	}
}

func (c *Conversation) persist(ctx context.Context, snap Snapshot) {
	if len(snap.Messages) == 0 || snap.SessionID == "" {
		return
	}
	if _, err := c.store.Save(ctx, domain.Session{ID: snap.SessionID, Messages: snap.Messages}); err != nil {
		log.Printf("ERROR: failed to save session %s: %v", snap.SessionID, err)
	}
}

// publish delivers snap to every listener unless a newer snapshot has
// already been delivered.
func (c *Conversation) publish(snap Snapshot) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if snap.Seq <= c.published {
		return
	}
	c.published = snap.Seq

	c.listenersMu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenersMu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// nextID returns a millisecond timestamp id that is strictly greater than
// every id handed out before.
func (c *Conversation) nextID() string {
	id := c.clock.Now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return strconv.FormatInt(id, 10)
}

func (c *Conversation) newSessionID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
	return "session_" + strconv.FormatInt(c.clock.Now().UnixMilli(), 10) + "_" + suffix
}
