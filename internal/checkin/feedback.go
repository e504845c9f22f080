package checkin

import (
	"sync"
	"time"
)

// Feedback holds the single visible outcome. Show replaces whatever is
// on display and re-arms the auto-hide timer; a hide scheduled for an
// older outcome can never wipe a newer one.
type Feedback struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *Outcome
	timer   *time.Timer
	gen     uint64
}

// NewFeedback creates a signal that hides outcomes after ttl.
func NewFeedback(ttl time.Duration) *Feedback {
	if ttl <= 0 {
		ttl = 2500 * time.Millisecond
	}
	return &Feedback{ttl: ttl}
}

// Show replaces the visible outcome and schedules its auto-hide.
func (f *Feedback) Show(o Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	f.current = &o
	f.timer = time.AfterFunc(f.ttl, func() {
		f.hide(gen)
	})
}

// Current returns the visible outcome, if any.
func (f *Feedback) Current() (Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return Outcome{}, false
	}
	return *f.current, true
}

// Hide clears the display immediately.
func (f *Feedback) Hide() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.current = nil
}

func (f *Feedback) hide(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// A newer Show superseded this timer.
	if gen != f.gen {
		return
	}
	f.current = nil
	f.timer = nil
}
