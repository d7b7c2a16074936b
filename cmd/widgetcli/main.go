// Package main provides a terminal client for the widget host's WebSocket feed.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/protocol"
)

// Client represents a WebSocket client.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	done      chan struct{}

	writeMu sync.Mutex

	mu      sync.Mutex
	printed map[string]string
	latest  []domain.RenderedMessage
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn:    conn,
		done:    make(chan struct{}),
		printed: make(map[string]string),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// SendHello sends a hello message and waits for hello_ack.
func (c *Client) SendHello() error {
	msg := protocol.HelloMessage{
		BaseMessage: protocol.NewBase(protocol.TypeHello, ""),
		ClientMeta:  map[string]string{"client": "widgetcli"},
	}
	if err := c.writeJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}
	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}
	if base.Type != protocol.TypeHelloAck {
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}

	c.sessionID = base.SessionID
	return nil
}

// SendMessage sends a user message.
func (c *Client) SendMessage(content string) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	msg := protocol.SendMessage{
		BaseMessage: protocol.NewBase(protocol.TypeSend, sessionID),
		Content:     content,
	}
	msg.RequestID = fmt.Sprintf("req_%d", time.Now().UnixNano())
	return c.writeJSON(msg)
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// ReadMessages reads events from the server and prints settled messages.
func (c *Client) ReadMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("Read error: %v", err)
			}
			return
		}

		var base protocol.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			log.Printf("Unmarshal error: %v", err)
			continue
		}

		switch base.Type {
		case protocol.TypeMessages:
			var ev protocol.MessagesEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				log.Printf("Unmarshal error: %v", err)
				continue
			}
			c.mu.Lock()
			c.sessionID = ev.SessionID
			c.latest = ev.Messages
			c.mu.Unlock()
			if ev.State == domain.StateIdle {
				c.flush()
			}

		case protocol.TypeStatus:
			var ev protocol.StatusEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				log.Printf("Unmarshal error: %v", err)
				continue
			}
			switch {
			case ev.State == domain.StateIdle:
				c.flush()
			case ev.Status != "":
				fmt.Printf("  … %s\n", ev.Status)
			}

		case protocol.TypeWidget:
			var ev protocol.WidgetEvent
			json.Unmarshal(data, &ev)
			if !ev.Visible {
				fmt.Println("[widget hidden: backend unavailable]")
			}

		case protocol.TypeError:
			var ev protocol.ErrorMessage
			json.Unmarshal(data, &ev)
			fmt.Printf("[error] %s: %s\n", ev.Code, ev.Message)
		}
	}
}

// flush prints messages that are new or changed since the last flush.
func (c *Client) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.latest {
		if prev, ok := c.printed[m.ID]; ok && prev == m.Content {
			continue
		}
		c.printed[m.ID] = m.Content
		fmt.Printf("%s: %s\n", speaker(m.Role), plainText(m.Blocks))
	}
}

func speaker(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return "you"
	case domain.RoleBot:
		return "bot"
	default:
		return "!"
	}
}

// plainText flattens rendered blocks for the terminal.
func plainText(blocks []domain.Block) string {
	var b strings.Builder
	for _, block := range blocks {
		switch block.Type {
		case domain.BlockText, domain.BlockBold, domain.BlockItalic:
			b.WriteString(block.Text)
		case domain.BlockLink:
			fmt.Fprintf(&b, "%s <%s>", block.Text, block.URL)
		case domain.BlockLineBreak:
			b.WriteString("\n")
		case domain.BlockList:
			for i, item := range block.Items {
				if block.Ordered {
					fmt.Fprintf(&b, "\n  %d. %s", i+1, plainText(item))
				} else {
					fmt.Fprintf(&b, "\n  - %s", plainText(item))
				}
			}
			b.WriteString("\n")
		case domain.BlockAction:
			fmt.Fprintf(&b, "[%s]", block.Action)
		case domain.BlockNewsletter:
			b.WriteString("[newsletter signup]")
		case domain.BlockProducts:
			for _, p := range block.Products {
				fmt.Fprintf(&b, "\n  * %s <%s>", p.Name, p.URL)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket server address")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := client.SendHello(); err != nil {
		log.Fatalf("Hello failed: %v", err)
	}

	if client.sessionID != "" {
		fmt.Printf("Resuming session %s\n", client.sessionID)
	}
	fmt.Println("Type a message and press Enter to send. /quit to exit.")

	go client.ReadMessages()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			if input == "/quit" {
				fmt.Println("Bye!")
				return
			}
			if err := client.SendMessage(input); err != nil {
				log.Printf("Send error: %v", err)
			}
		}
	}
}
