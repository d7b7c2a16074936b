package markup

import (
	"regexp"
	"strings"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

var (
	bulletItemRe   = regexp.MustCompile(`^[-*•]\s+(.+)$`)
	numberedItemRe = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)
)

// formatText applies line formatting to a plain segment: consecutive list items
// of the same kind merge into one list block, other lines are inline-formatted
// and separated by line breaks.
func (p *Parser) formatText(text string) []domain.Block {
	if text == "" {
		return nil
	}

	var (
		out     []domain.Block
		items   [][]domain.Block
		ordered bool
	)
	flush := func() {
		if len(items) > 0 {
			out = append(out, domain.List(ordered, items))
			items = nil
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		last := i == len(lines)-1

		if m := bulletItemRe.FindStringSubmatch(line); m != nil {
			if ordered {
				flush()
			}
			ordered = false
			items = append(items, p.formatInline(m[1]))
			continue
		}
		if m := numberedItemRe.FindStringSubmatch(line); m != nil {
			if !ordered {
				flush()
			}
			ordered = true
			items = append(items, p.formatInline(m[1]))
			continue
		}

		flush()
		if strings.TrimSpace(line) != "" {
			out = append(out, p.formatInline(line)...)
		}
		if !last {
			out = append(out, domain.LineBreak())
		}
	}
	flush()

	return out
}
