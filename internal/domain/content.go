package domain

// BlockType discriminates renderable content blocks.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockBold       BlockType = "bold"
	BlockItalic     BlockType = "italic"
	BlockLink       BlockType = "link"
	BlockList       BlockType = "list"
	BlockAction     BlockType = "action"
	BlockNewsletter BlockType = "newsletter"
	BlockProducts   BlockType = "products"
	BlockLineBreak  BlockType = "line_break"
)

// ActionKind identifies the target of an action button.
type ActionKind string

const (
	ActionContact ActionKind = "contact"
	ActionBooking ActionKind = "booking"
)

// Block is one renderable unit of a parsed message. Only the fields relevant
// to Type are set.
type Block struct {
	Type     BlockType  `json:"type"`
	Text     string     `json:"text,omitempty"`
	URL      string     `json:"url,omitempty"`
	Ordered  bool       `json:"ordered,omitempty"`
	Items    [][]Block  `json:"items,omitempty"`
	Action   ActionKind `json:"action,omitempty"`
	Products []Product  `json:"products,omitempty"`
}

func TextRun(s string) Block { return Block{Type: BlockText, Text: s} }

func BoldRun(s string) Block { return Block{Type: BlockBold, Text: s} }

func ItalicRun(s string) Block { return Block{Type: BlockItalic, Text: s} }

func Link(label, url string) Block { return Block{Type: BlockLink, Text: label, URL: url} }

func LineBreak() Block { return Block{Type: BlockLineBreak} }

func ActionButton(kind ActionKind) Block { return Block{Type: BlockAction, Action: kind} }

func NewsletterPrompt() Block { return Block{Type: BlockNewsletter} }

func ProductCarousel(products []Product) Block {
	return Block{Type: BlockProducts, Products: products}
}

func List(ordered bool, items [][]Block) Block {
	return Block{Type: BlockList, Ordered: ordered, Items: items}
}

// RenderedMessage pairs a message with its parsed blocks.
type RenderedMessage struct {
	Message
	Blocks []Block `json:"blocks"`
}
