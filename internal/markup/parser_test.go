package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

func allGates() Gates {
	return Gates{
		MarkerContact:    true,
		MarkerBooking:    true,
		MarkerNewsletter: true,
		MarkerProducts:   true,
	}
}

func text(s string) domain.Block { return domain.TextRun(s) }

func TestParseMarkerPrecedence(t *testing.T) {
	p := NewParser(allGates(), false)

	got := p.Parse("Hi [CONTACT_FORM] bye [BOOKING]")
	assert.Equal(t, []domain.Block{
		text("Hi "),
		domain.ActionButton(domain.ActionContact),
		text(" bye "),
		domain.ActionButton(domain.ActionBooking),
	}, got)
}

func TestParseMarkersResolveInPriorityOrder(t *testing.T) {
	p := NewParser(allGates(), false)

	// Booking appears first in the text but contact is resolved first, so the
	// booking token is searched only in the text after the contact marker.
	got := p.Parse("[BOOKING] a [CONTACT_FORM] b")
	assert.Equal(t, []domain.Block{
		text("[BOOKING] a "),
		domain.ActionButton(domain.ActionContact),
		text(" b"),
	}, got)
}

func TestParseOnlyFirstOccurrenceConsumed(t *testing.T) {
	p := NewParser(allGates(), false)

	got := p.Parse("[CONTACT_FORM] x [CONTACT_FORM]")
	assert.Equal(t, []domain.Block{
		domain.ActionButton(domain.ActionContact),
		text(" x [CONTACT_FORM]"),
	}, got)
}

func TestParseDisabledMarkerPassthrough(t *testing.T) {
	gates := allGates()
	gates[MarkerBooking] = false
	p := NewParser(gates, false)

	got := p.Parse("Book here [BOOKING] please")
	require.Len(t, got, 1)
	assert.Equal(t, domain.BlockText, got[0].Type)
	assert.Contains(t, got[0].Text, "[BOOKING]")

	p = NewParser(nil, false)
	got = p.Parse("Talk to us [CONTACT_FORM]")
	assert.Equal(t, []domain.Block{text("Talk to us [CONTACT_FORM]")}, got)
}

func TestParseNewsletter(t *testing.T) {
	p := NewParser(allGates(), false)

	got := p.Parse("Subscribe:\n[NEWSLETTER]")
	assert.Equal(t, []domain.Block{
		text("Subscribe:"),
		domain.LineBreak(),
		domain.NewsletterPrompt(),
	}, got)
}

func TestParseListMerging(t *testing.T) {
	p := NewParser(allGates(), false)

	got := p.Parse("- a\n- b\n1. c")
	assert.Equal(t, []domain.Block{
		domain.List(false, [][]domain.Block{{text("a")}, {text("b")}}),
		domain.List(true, [][]domain.Block{{text("c")}}),
	}, got)
}

func TestParseListsAndParagraphs(t *testing.T) {
	p := NewParser(allGates(), false)

	got := p.Parse("Options:\n• one\n* two\n\n2) three\n3. four\nDone")
	assert.Equal(t, []domain.Block{
		text("Options:"),
		domain.LineBreak(),
		domain.List(false, [][]domain.Block{{text("one")}, {text("two")}}),
		domain.LineBreak(),
		domain.List(true, [][]domain.Block{{text("three")}, {text("four")}}),
		text("Done"),
	}, got)
}

func TestParseLineBreaks(t *testing.T) {
	p := NewParser(allGates(), false)

	assert.Equal(t, []domain.Block{text("a"), domain.LineBreak(), text("b")}, p.Parse("a\r\nb"))
	assert.Equal(t, []domain.Block{text("a"), domain.LineBreak()}, p.Parse("a\n"))
	assert.Nil(t, p.Parse(""))
}

func TestParseProducts(t *testing.T) {
	p := NewParser(allGates(), false)

	input := `Look: [PRODUCT_CARDS] [
		{"ime_izdelka":"Chair","kratek_opis":"Oak","url":"https://shop.test/chair","image_url":"https://shop.test/chair.png"},
		{"name":"Desk","shortDescription":"Pine","url":"https://shop.test/desk"},
		42
	] [/PRODUCT_CARDS] enjoy`

	got := p.Parse(input)
	assert.Equal(t, []domain.Block{
		text("Look: "),
		domain.ProductCarousel([]domain.Product{
			{Name: "Chair", ShortDescription: "Oak", URL: "https://shop.test/chair", ImageURL: "https://shop.test/chair.png"},
			{Name: "Desk", ShortDescription: "Pine", URL: "https://shop.test/desk"},
		}),
		text(" enjoy"),
	}, got)
}

func TestParseMalformedProducts(t *testing.T) {
	p := NewParser(allGates(), false)

	assert.Empty(t, p.Parse("[PRODUCT_CARDS]not json[/PRODUCT_CARDS]"))

	got := p.Parse("a [PRODUCT_CARDS]{}[/PRODUCT_CARDS] b")
	assert.Equal(t, []domain.Block{text("a "), text(" b")}, got)

	got = p.Parse("a [PRODUCT_CARDS][][/PRODUCT_CARDS]")
	assert.Equal(t, []domain.Block{text("a ")}, got)
}

func TestParseUnclosedProducts(t *testing.T) {
	p := NewParser(allGates(), false)

	got := p.Parse("[PRODUCT_CARDS][]")
	assert.Equal(t, []domain.Block{text("[PRODUCT_CARDS][]")}, got)
}

func TestParseIsDeterministic(t *testing.T) {
	p := NewParser(allGates(), true)
	input := "**Hi** [x](https://a.test) [NEWSLETTER]\n- _one_\n1. two [CONTACT_FORM]"

	first := p.Parse(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Parse(input))
	}
}

func TestRender(t *testing.T) {
	p := NewParser(allGates(), false)

	user := p.Render(domain.Message{ID: "1", Role: domain.RoleUser, Content: "**not bold** [CONTACT_FORM]"})
	assert.Equal(t, []domain.Block{text("**not bold** [CONTACT_FORM]")}, user.Blocks)

	bot := p.Render(domain.Message{ID: "2", Role: domain.RoleBot, Content: "**yes**"})
	assert.Equal(t, []domain.Block{domain.BoldRun("yes")}, bot.Blocks)

	empty := p.Render(domain.Message{ID: "3", Role: domain.RoleBot})
	assert.NotNil(t, empty.Blocks)
	assert.Empty(t, empty.Blocks)
}
