package scheduler

import (
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEBOUNCER
// Coalesces rapid repeated triggers into a single action fired after a quiet
// period. Used to bound refresh call volume under focus/visibility churn.
// ══════════════════════════════════════════════════════════════════════════════

// Debouncer fires its action once per burst of Trigger calls, on the
// trailing edge: each call restarts the quiet-period timer, and the action
// runs only after the timer elapses with no further triggers. Safe for
// concurrent use.
type Debouncer struct {
	mu     sync.Mutex
	quiet  time.Duration
	action func()
	timer  *time.Timer
	closed bool
}

// NewDebouncer creates a Debouncer that invokes action after quiet has
// elapsed since the last Trigger. A non-positive quiet period defaults to
// 300ms.
func NewDebouncer(quiet time.Duration, action func()) *Debouncer {
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	return &Debouncer{
		quiet:  quiet,
		action: action,
	}
}

// Trigger requests the action. Calls arriving within the quiet period
// collapse into one invocation fired after the period elapses.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fire)
}

// fire runs the action unless the debouncer was stopped in the meantime.
func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	action := d.action
	d.mu.Unlock()

	action()
}

// Flush fires a pending action immediately, if any. Returns true if an
// action was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.closed || d.timer == nil || !d.timer.Stop() {
		d.mu.Unlock()
		return false
	}
	d.timer = nil
	action := d.action
	d.mu.Unlock()

	action()
	return true
}

// Stop cancels any pending action and rejects future triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
