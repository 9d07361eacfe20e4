package daemon

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single call fired once the
// quiet window has elapsed since the last trigger.
type Debouncer struct {
	window time.Duration
	fire   func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a Debouncer calling fire after window of quiet.
func NewDebouncer(window time.Duration, fire func()) *Debouncer {
	return &Debouncer{window: window, fire: fire}
}

// Trigger starts or restarts the quiet window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Stop cancels any pending call. Triggers after Stop are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
