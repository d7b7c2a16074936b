package webhook

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// IncrementFunc receives the full answer accumulated so far.
type IncrementFunc func(answer string)

// assembler reassembles an NDJSON answer stream. Complete lines are processed as
// soon as they arrive; a trailing partial line is buffered until the next chunk,
// so the result does not depend on where chunk boundaries fall.
type assembler struct {
	buf         []byte
	answer      strings.Builder
	sawItem     bool
	onIncrement IncrementFunc
}

func newAssembler(onIncrement IncrementFunc) *assembler {
	return &assembler{onIncrement: onIncrement}
}

// Feed appends a chunk and processes every complete line in the buffer.
func (a *assembler) Feed(chunk []byte) {
	a.buf = append(a.buf, chunk...)

	start := 0
	for {
		i := bytes.IndexByte(a.buf[start:], '\n')
		if i < 0 {
			break
		}
		a.handleLine(a.buf[start : start+i])
		start += i + 1
	}
	if start > 0 {
		a.buf = append(a.buf[:0:0], a.buf[start:]...)
	}
}

// Flush processes whatever partial line is left once the stream has ended.
func (a *assembler) Flush() {
	if len(a.buf) == 0 {
		return
	}
	line := a.buf
	a.buf = nil
	a.handleLine(line)
}

func (a *assembler) handleLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var evt domain.StreamEvent
	if err := json.Unmarshal(line, &evt); err != nil {
		// Not an envelope line.
		return
	}

	switch evt.Type {
	case domain.StreamEventItem:
		if evt.Content == nil {
			return
		}
		a.sawItem = true
		a.answer.WriteString(*evt.Content)
		a.notify()
	case domain.StreamEventEnd:
		a.notify()
	}
}

func (a *assembler) notify() {
	if a.onIncrement != nil {
		a.onIncrement(a.answer.String())
	}
}

// Answer returns the text accumulated so far.
func (a *assembler) Answer() string {
	return a.answer.String()
}

// Streamed reports whether the body was recognized as a non-empty answer stream.
func (a *assembler) Streamed() bool {
	return a.sawItem && a.answer.Len() > 0
}
