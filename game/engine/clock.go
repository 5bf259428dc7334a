package engine

import (
	"sync"
	"time"
)

// TurnClock schedules the single pending timeout for a game's current mover.
// At most one timer is live per clock at any instant: Arm cancels whatever
// was armed before, and a timer that fires after Disarm (or after a later
// Arm) never invokes its callback.
//
// The generation counter is what makes the disarm race safe: Stop on a
// time.Timer does not guarantee the function is not already running, so the
// fire path re-checks the generation it was armed under before calling out.
// The state machine re-validates phase and turn again under its own lock.
type TurnClock struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewTurnClock returns a disarmed clock.
func NewTurnClock() *TurnClock {
	return &TurnClock{}
}

// Arm cancels any pending timer and schedules onFire after d. onFire runs on
// the timer goroutine; callers are expected to serialize it against their
// other inputs.
func (c *TurnClock) Arm(d time.Duration, onFire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	gen := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		live := c.gen == gen
		c.mu.Unlock()
		if live {
			onFire()
		}
	})
}

// Disarm cancels the pending timer if any. It is idempotent and safe to call
// when nothing is armed.
func (c *TurnClock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
