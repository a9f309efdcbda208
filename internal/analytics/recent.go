package analytics

import (
	"sync"
	"time"
)

// Recent keeps the last N events in memory for the in-app activity panel.
// It is a Tracker, so it can sit beside a Service behind Multi.
type Recent struct {
	mu     sync.Mutex
	events []Event
	next   int // slot the next event is written to
	full   bool
}

// NewRecent returns a Recent holding up to n events.
func NewRecent(n int) *Recent {
	if n <= 0 {
		n = 256
	}
	return &Recent{events: make([]Event, n)}
}

// Track records e, evicting the oldest event when full.
func (r *Recent) Track(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Extra = copyExtra(e.Extra)

	r.mu.Lock()
	r.events[r.next] = e
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
}

// Last returns up to n of the newest events, oldest first.
func (r *Recent) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.lenLocked()
	if n > size {
		n = size
	}
	if n <= 0 {
		return nil
	}

	out := make([]Event, n)
	start := r.next - n
	for i := range out {
		out[i] = r.events[(start+i+len(r.events))%len(r.events)]
	}
	return out
}

// Len returns how many events are held.
func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

// Cap returns the capacity.
func (r *Recent) Cap() int {
	return len(r.events)
}

// Counts tallies held events by kind.
func (r *Recent) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range r.Last(r.Cap()) {
		counts[e.Kind]++
	}
	return counts
}

func (r *Recent) lenLocked() int {
	if r.full {
		return len(r.events)
	}
	return r.next
}

// Multi fans each event out to every non-nil tracker.
func Multi(trackers ...Tracker) Tracker {
	var out multi
	for _, t := range trackers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

type multi []Tracker

func (m multi) Track(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	for _, t := range m {
		t.Track(e)
	}
}

func copyExtra(extra map[string]any) map[string]any {
	if extra == nil {
		return nil
	}
	cp := make(map[string]any, len(extra))
	for k, v := range extra {
		cp[k] = v
	}
	return cp
}
