package markup

import (
	"regexp"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

var (
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)]+)\)`)
	urlRe    = regexp.MustCompile(`https?://[^\s)\]"'<>]+`)
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	italicRe = regexp.MustCompile(`\*(.+?)\*|_(.+?)_`)
)

type tokenKind int

const (
	tokenLink tokenKind = iota
	tokenURL
	tokenBold
	tokenItalic
)

type token struct {
	kind tokenKind
	re   *regexp.Regexp
}

// Candidates are listed by precedence; on equal start offsets the first wins.
var (
	inlineTokens       = []token{{tokenLink, linkRe}, {tokenURL, urlRe}, {tokenBold, boldRe}}
	inlineTokensItalic = []token{{tokenLink, linkRe}, {tokenURL, urlRe}, {tokenItalic, italicRe}}
)

// formatInline scans s once from left to right, always taking the earliest
// matching token. Text between tokens becomes plain runs.
func (p *Parser) formatInline(s string) []domain.Block {
	tokens := inlineTokens
	if p.italic && !boldRe.MatchString(s) {
		tokens = inlineTokensItalic
	}

	var out []domain.Block
	for len(s) > 0 {
		var (
			best    token
			bestLoc []int
		)
		for _, tok := range tokens {
			loc := tok.re.FindStringSubmatchIndex(s)
			if loc != nil && (bestLoc == nil || loc[0] < bestLoc[0]) {
				best, bestLoc = tok, loc
			}
		}
		if bestLoc == nil {
			out = append(out, domain.TextRun(s))
			break
		}

		if bestLoc[0] > 0 {
			out = append(out, domain.TextRun(s[:bestLoc[0]]))
		}
		out = append(out, tokenBlock(best.kind, s, bestLoc))
		s = s[bestLoc[1]:]
	}
	return out
}

func tokenBlock(kind tokenKind, s string, loc []int) domain.Block {
	switch kind {
	case tokenLink:
		return domain.Link(s[loc[2]:loc[3]], s[loc[4]:loc[5]])
	case tokenURL:
		u := s[loc[0]:loc[1]]
		return domain.Link(u, u)
	case tokenBold:
		return domain.BoldRun(alternative(s, loc))
	default:
		return domain.ItalicRun(alternative(s, loc))
	}
}

// alternative returns whichever of the two capture groups participated.
func alternative(s string, loc []int) string {
	if loc[2] >= 0 {
		return s[loc[2]:loc[3]]
	}
	return s[loc[4]:loc[5]]
}
