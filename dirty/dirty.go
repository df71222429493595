// Package dirty tracks which grid rows changed since the last repaint
// and coalesces that into a single interval plus a repaint flag, the
// unit of work the renderer consumes each frame.
package dirty

import "sync"

// Interval is an inclusive [Smallest, Largest] row range. A nil field
// means no row has been marked on that side; Empty reports the
// all-clear case.
type Interval struct {
	Smallest *int
	Largest  *int
}

// Empty reports whether the interval has no rows marked.
func (iv Interval) Empty() bool {
	return iv.Smallest == nil || iv.Largest == nil
}

// Tracker widens a dirty-row interval as cells mutate and coalesces
// repeated widenings into one pending-render flag, vt10x-style (see
// anydirty in the session-manager pack reference) but collapsed to an
// interval rather than a per-line bitmap, since over-marking extra
// rows inside the span is explicitly permitted.
type Tracker struct {
	mu          sync.Mutex
	smallest    int
	largest     int
	hasRange    bool
	needsRender bool
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// Widen records that row changed, growing the tracked interval to
// include it and setting the pending-render flag.
func (t *Tracker) Widen(row int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasRange {
		t.smallest = row
		t.largest = row
		t.hasRange = true
	} else {
		if row < t.smallest {
			t.smallest = row
		}
		if row > t.largest {
			t.largest = row
		}
	}
	t.needsRender = true
}

// Consume returns the current interval and resets it to empty. It
// does not clear NeedsRender; call ClearNeedsRender once the repaint
// triggered by this interval has actually happened.
func (t *Tracker) Consume() Interval {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasRange {
		return Interval{}
	}
	lo, hi := t.smallest, t.largest
	t.hasRange = false
	return Interval{Smallest: &lo, Largest: &hi}
}

// NeedsRender reports whether any mutation is pending a repaint.
func (t *Tracker) NeedsRender() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.needsRender
}

// ClearNeedsRender coalesces all widenings observed up to this call
// into a single consumed frame.
func (t *Tracker) ClearNeedsRender() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.needsRender = false
}
