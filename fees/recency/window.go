// Package recency keeps the address sets of the most recently admitted work units
package recency

import (
	"feeEmulator/utils"
)

// Window is a bounded FIFO of address sets.
// It is not safe for concurrent use; the owning tracker serializes access.
type Window struct {
	capacity int
	entries  [][]utils.Address // oldest first
}

// NewWindow creates a recency window holding at most capacity entries
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 5 // default window size
	}
	return &Window{
		capacity: capacity,
		entries:  make([][]utils.Address, 0, capacity+1),
	}
}

// Push appends a copy of addrs. When the window overflows the oldest entry
// is removed and returned with evicted=true.
func (w *Window) Push(addrs []utils.Address) (oldest []utils.Address, evicted bool) {
	entry := make([]utils.Address, len(addrs))
	copy(entry, addrs)
	w.entries = append(w.entries, entry)

	if len(w.entries) <= w.capacity {
		return nil, false
	}

	oldest = w.entries[0]
	w.entries[0] = nil
	w.entries = w.entries[1:]
	return oldest, true
}

// Len returns the number of entries currently held
func (w *Window) Len() int {
	return len(w.entries)
}

// Capacity returns the maximum number of entries
func (w *Window) Capacity() int {
	return w.capacity
}

// Entries returns a snapshot of the window, oldest first
func (w *Window) Entries() [][]utils.Address {
	snapshot := make([][]utils.Address, len(w.entries))
	for i, entry := range w.entries {
		snapshot[i] = make([]utils.Address, len(entry))
		copy(snapshot[i], entry)
	}
	return snapshot
}

// Reset clears the window
func (w *Window) Reset() {
	w.entries = make([][]utils.Address, 0, w.capacity+1)
}
