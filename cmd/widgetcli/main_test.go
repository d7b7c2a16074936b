package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

func TestPlainText(t *testing.T) {
	blocks := []domain.Block{
		domain.TextRun("See "),
		domain.Link("docs", "https://example.com"),
		domain.LineBreak(),
		domain.List(true, [][]domain.Block{{domain.BoldRun("one")}, {domain.TextRun("two")}}),
		domain.ActionButton(domain.ActionBooking),
		domain.ProductCarousel([]domain.Product{{Name: "Lamp", URL: "https://shop.test/lamp"}}),
	}

	want := "See docs <https://example.com>\n" +
		"\n  1. one\n  2. two\n" +
		"[booking]" +
		"\n  * Lamp <https://shop.test/lamp>\n"
	assert.Equal(t, want, plainText(blocks))
}
