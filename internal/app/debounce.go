package app

import (
	"sync"
	"time"
)

// DefaultDebounce is the coalescing delay used when none is configured.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer coalesces bursts of Trigger calls into a single tick on C,
// delivered once no trigger has arrived for the configured delay.
type Debouncer struct {
	delay time.Duration
	c     chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer returns a debouncer; non-positive delays use DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, c: make(chan struct{}, 1)}
}

// C delivers one value per settled burst.
func (d *Debouncer) C() <-chan struct{} { return d.c }

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Stop cancels a pending tick.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	select {
	case d.c <- struct{}{}:
	default: // a tick is already pending
	}
}
