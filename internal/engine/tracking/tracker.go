package tracking

import (
	"sync"
)

// DefaultMaxChanges is the default maximum number of changes to track.
const DefaultMaxChanges = 1024

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithMaxChanges sets the maximum number of changes to track.
// IMPORTANT: This option must only be used during Tracker creation via NewTracker.
// Applying it to an existing Tracker with recorded changes will discard those changes.
func WithMaxChanges(maxChanges int) TrackerOption {
	return func(t *Tracker) {
		if maxChanges <= 0 {
			return
		}
		t.maxChanges = maxChanges
		t.changes = make([]trackedChange, maxChanges)
		t.head, t.count = 0, 0
	}
}

// Tracker records changes so consumers can ask "what changed since
// revision X?". It maintains a bounded ring of changes.
// All operations are thread-safe.
type Tracker struct {
	mu sync.RWMutex

	// Recent changes in a ring buffer
	changes    []trackedChange
	head       int // Index of oldest entry
	count      int // Number of entries
	maxChanges int

	latest RevisionID
}

// NewTracker creates a new change tracker with default settings.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		maxChanges: DefaultMaxChanges,
		changes:    make([]trackedChange, DefaultMaxChanges),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RecordChange records a single change.
func (t *Tracker) RecordChange(change Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.recordChangeLocked(change)
}

// recordChangeLocked adds a change to the ring buffer (must hold lock).
func (t *Tracker) recordChangeLocked(change Change) {
	idx := (t.head + t.count) % t.maxChanges
	if t.count < t.maxChanges {
		t.count++
	} else {
		// Ring buffer is full, advance head
		t.head = (t.head + 1) % t.maxChanges
	}

	t.changes[idx] = trackedChange{
		revision: change.RevisionID,
		change:   change,
	}
	if change.RevisionID > t.latest {
		t.latest = change.RevisionID
	}
}

// ChangesSince returns all changes since a revision.
// Returns changes in chronological order.
func (t *Tracker) ChangesSince(rev RevisionID) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []Change
	for i := 0; i < t.count; i++ {
		idx := (t.head + i) % t.maxChanges
		tc := t.changes[idx]
		if tc.revision > rev {
			result = append(result, tc.change)
		}
	}

	return result
}

// LatestChanges returns up to the n most recent changes, oldest first.
func (t *Tracker) LatestChanges(n int) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > t.count {
		n = t.count
	}
	if n <= 0 {
		return nil
	}
	result := make([]Change, 0, n)
	for i := t.count - n; i < t.count; i++ {
		result = append(result, t.changes[(t.head+i)%t.maxChanges].change)
	}
	return result
}

// BuildChangeSet collects every change after sinceRev.
func (t *Tracker) BuildChangeSet(sinceRev RevisionID) *ChangeSet {
	cs := NewChangeSet(sinceRev)
	for _, c := range t.ChangesSince(sinceRev) {
		cs.Add(c)
	}
	return cs
}

// LatestRevision returns the revision of the newest recorded change.
func (t *Tracker) LatestRevision() RevisionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest
}

// ChangeCount returns the number of retained changes.
func (t *Tracker) ChangeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Clear discards all recorded changes.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.head = 0
	t.count = 0
	for i := range t.changes {
		t.changes[i] = trackedChange{}
	}
}
