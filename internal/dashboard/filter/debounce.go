package filter

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid filter submissions into one application per
// quiet period. A single long-lived timer is reset on every accepted
// submission, so keystroke bursts never pile up timers and only the last
// criteria in a burst is applied.
//
// Invalid submissions are rejected immediately: the previous filter stays
// in force and a hint is offered on a non-blocking channel for the caller
// to surface.
type Debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	current Criteria
	pending Criteria
	apply   func(Criteria)
	hints   chan string
	closed  bool
}

// NewDebouncer builds a debouncer that calls apply with the settled
// criteria after each quiet period.
func NewDebouncer(delay time.Duration, apply func(Criteria)) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	if apply == nil {
		apply = func(Criteria) {}
	}
	d := &Debouncer{
		delay: delay,
		apply: apply,
		hints: make(chan string, 1),
	}
	d.timer = time.AfterFunc(delay, d.fire)
	d.timer.Stop()
	return d
}

// Submit validates and schedules the criteria. Returns the validation
// error, if any; the caller may also watch Hints for the same signal.
func (d *Debouncer) Submit(category, query string) error {
	criteria := Criteria{Category: category, Query: query}
	if err := Validate(criteria); err != nil {
		d.offerHint("filter ignored: " + err.Error())
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.pending = criteria
	d.timer.Reset(d.delay)
	return nil
}

// Current returns the criteria most recently applied.
func (d *Debouncer) Current() Criteria {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Hints delivers one message per rejected submission. The channel never
// blocks producers; unread hints are replaced by newer ones.
func (d *Debouncer) Hints() <-chan string {
	return d.hints
}

// Close stops the timer. Pending criteria are dropped.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.timer.Stop()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.current = d.pending
	applied := d.current
	apply := d.apply
	d.mu.Unlock()

	apply(applied)
}

func (d *Debouncer) offerHint(hint string) {
	for {
		select {
		case d.hints <- hint:
			return
		default:
			select {
			case <-d.hints:
			default:
			}
		}
	}
}
