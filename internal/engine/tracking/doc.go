// Package tracking provides change tracking for the editor engine.
//
// Every edit applied through the engine is recorded as a [Change] that
// carries the replaced range in old coordinates, the resulting range in new
// coordinates and both texts. Consumers that hold positions into the
// document (snippet regions in particular) query the changes made since the
// revision they last saw and follow them explicitly, instead of guessing what
// happened from cursor movement.
//
// # Usage
//
//	tracker := tracking.NewTracker()
//	tracker.RecordChange(change)
//
//	// Query changes since a revision
//	changes := tracker.ChangesSince(oldRevisionID)
//
// # Thread Safety
//
// All Tracker operations are thread-safe through internal locking.
//
// # Performance
//
// Change history is bounded by a configurable maximum and stored in a ring
// buffer, so recording never allocates after construction.
package tracking
