package service

import (
	"sync"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// startStatusRotation cycles the typing status while the turn is awaiting a
// response. The returned stop function is idempotent.
func (c *Conversation) startStatusRotation() func() {
	phrases := c.opts.TypingMessages
	if len(phrases) < 2 || c.opts.TypingInterval <= 0 {
		return func() {}
	}

	ticker := c.clock.NewTicker(c.opts.TypingInterval)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}

	go func() {
		idx := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
			}

			c.mu.Lock()
			if c.state != domain.StateAwaitingResponse {
				c.mu.Unlock()
				return
			}
			idx = (idx + 1) % len(phrases)
			c.status = phrases[idx]
			snap := c.snapshotLocked()
			c.mu.Unlock()

			c.publish(snap)
		}
	}()

	return stop
}
