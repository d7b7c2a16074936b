// Package markup turns raw bot text into renderable content blocks: action
// markers, product cards, lists and inline formatting.
package markup

import (
	"strings"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// Marker names a control token the parser can expand.
type Marker string

const (
	MarkerContact    Marker = "contact_form"
	MarkerBooking    Marker = "booking"
	MarkerNewsletter Marker = "newsletter"
	MarkerProducts   Marker = "product_cards"
)

// Gates is the table of markers that are expanded. A marker that is absent or
// false stays in the text as a literal token.
type Gates map[Marker]bool

// Enabled reports whether m is expanded.
func (g Gates) Enabled(m Marker) bool {
	return g[m]
}

// rule resolves one marker. Rules run in slice order against the text left
// over by the previous rule, and each consumes only its first occurrence.
type rule struct {
	marker Marker
	open   string
	close  string
	build  func(inner string) (domain.Block, bool)
}

var rules = []rule{
	{
		marker: MarkerContact,
		open:   "[CONTACT_FORM]",
		build:  func(string) (domain.Block, bool) { return domain.ActionButton(domain.ActionContact), true },
	},
	{
		marker: MarkerBooking,
		open:   "[BOOKING]",
		build:  func(string) (domain.Block, bool) { return domain.ActionButton(domain.ActionBooking), true },
	},
	{
		marker: MarkerNewsletter,
		open:   "[NEWSLETTER]",
		build:  func(string) (domain.Block, bool) { return domain.NewsletterPrompt(), true },
	},
	{
		marker: MarkerProducts,
		open:   "[PRODUCT_CARDS]",
		close:  "[/PRODUCT_CARDS]",
		build: func(inner string) (domain.Block, bool) {
			products := parseProducts(inner)
			if len(products) == 0 {
				return domain.Block{}, false
			}
			return domain.ProductCarousel(products), true
		},
	},
}

// Parser converts message text to blocks. It is safe for concurrent use.
type Parser struct {
	gates  Gates
	italic bool
}

// NewParser creates a parser. When italic is set, *x* and _x_ are rendered as
// italic on lines that contain no bold span.
func NewParser(gates Gates, italic bool) *Parser {
	table := make(Gates, len(gates))
	for k, v := range gates {
		table[k] = v
	}
	return &Parser{gates: table, italic: italic}
}

// Parse never fails; malformed product payloads only drop the carousel.
func (p *Parser) Parse(text string) []domain.Block {
	var blocks []domain.Block
	remaining := text

	for _, r := range rules {
		if !p.gates.Enabled(r.marker) {
			continue
		}
		start := strings.Index(remaining, r.open)
		if start < 0 {
			continue
		}
		before := remaining[:start]
		after := remaining[start+len(r.open):]

		var inner string
		if r.close != "" {
			end := strings.Index(after, r.close)
			if end < 0 {
				continue
			}
			inner = after[:end]
			after = after[end+len(r.close):]
		}

		blocks = append(blocks, p.formatText(before)...)
		if block, ok := r.build(inner); ok {
			blocks = append(blocks, block)
		}
		remaining = after
	}

	return append(blocks, p.formatText(remaining)...)
}

// Render attaches blocks to a message. Only bot messages carry markup; other
// roles render as a single text run.
func (p *Parser) Render(msg domain.Message) domain.RenderedMessage {
	if msg.Role != domain.RoleBot {
		return domain.RenderedMessage{Message: msg, Blocks: []domain.Block{domain.TextRun(msg.Content)}}
	}
	blocks := p.Parse(msg.Content)
	if blocks == nil {
		blocks = []domain.Block{}
	}
	return domain.RenderedMessage{Message: msg, Blocks: blocks}
}

// RenderAll renders msgs in order.
func (p *Parser) RenderAll(msgs []domain.Message) []domain.RenderedMessage {
	out := make([]domain.RenderedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, p.Render(m))
	}
	return out
}
