// Package ledger keeps the bounded, newest-first list of synthetic requests
// shown on the Requests and Reports views.
package ledger

import "github.com/retro-admin/dashboard/types"

// Capacity is the maximum number of entries a ledger retains.
const Capacity = 50

// SeedSize is the number of entries generated when the dashboard mounts.
const SeedSize = 15

// Ledger is a most-recent-N list of request entries ordered newest first.
// It is not safe for concurrent use; owners serialise access.
type Ledger struct {
	entries  []types.RequestEntry
	capacity int
}

// New returns an empty ledger with the default capacity.
func New() *Ledger {
	return NewWithCapacity(Capacity)
}

// NewWithCapacity returns an empty ledger retaining at most capacity entries.
func NewWithCapacity(capacity int) *Ledger {
	if capacity < 1 {
		capacity = Capacity
	}
	return &Ledger{
		entries:  make([]types.RequestEntry, 0, capacity),
		capacity: capacity,
	}
}

// Append inserts entry at the front and evicts the oldest entries beyond capacity.
func (l *Ledger) Append(entry types.RequestEntry) {
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, types.RequestEntry{})
	}
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
}

// Entries returns a copy of the ledger, newest first.
func (l *Ledger) Entries() []types.RequestEntry {
	out := make([]types.RequestEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Cap returns the retention limit.
func (l *Ledger) Cap() int {
	return l.capacity
}

// Reset drops every entry.
func (l *Ledger) Reset() {
	l.entries = l.entries[:0]
}

// Seed appends n entries produced by source without a type override.
func Seed(l *Ledger, source Source, n int) {
	for i := 0; i < n; i++ {
		l.Append(source.Generate(""))
	}
}
