package tracking

import (
	"fmt"
	"strings"

	"github.com/dshills/snipstorm/internal/engine/buffer"
)

// RevisionID is an alias to buffer.RevisionID for convenience.
type RevisionID = buffer.RevisionID

// ChangeType categorizes the type of a change.
type ChangeType uint8

const (
	// ChangeInsert indicates text was inserted (OldText is empty).
	ChangeInsert ChangeType = iota

	// ChangeDelete indicates text was deleted (NewText is empty).
	ChangeDelete

	// ChangeReplace indicates text was replaced (both OldText and NewText present).
	ChangeReplace
)

// String returns a human-readable representation of the change type.
func (ct ChangeType) String() string {
	switch ct {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Change represents a single change to the buffer.
// It captures both what changed and where, so a consumer holding
// positions in the old text can follow the edit.
type Change struct {
	// Type indicates whether this is an insert, delete, or replace.
	Type ChangeType

	// Range is the affected range in the OLD text (before the change).
	// For inserts, Start == End (point insertion).
	Range buffer.PointRange

	// NewRange is the affected range in the NEW text (after the change).
	// For deletes, Start == End.
	NewRange buffer.PointRange

	// OldText is the text that was removed (empty for inserts).
	OldText string

	// NewText is the text that was added (empty for deletes).
	NewText string

	// RevisionID is the revision after this change was applied.
	RevisionID RevisionID
}

// NewChange classifies an applied edit and builds the matching change.
func NewChange(result buffer.EditResult, newText string, revID RevisionID) Change {
	ct := ChangeReplace
	switch {
	case result.OldText == "":
		ct = ChangeInsert
	case newText == "":
		ct = ChangeDelete
	}
	return Change{
		Type:       ct,
		Range:      result.OldRange,
		NewRange:   result.NewRange,
		OldText:    result.OldText,
		NewText:    newText,
		RevisionID: revID,
	}
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	switch c.Type {
	case ChangeInsert:
		return fmt.Sprintf("Insert %q at %s", abbreviate(c.NewText, 20), c.Range.Start)
	case ChangeDelete:
		return fmt.Sprintf("Delete %q at %s", abbreviate(c.OldText, 20), c.Range)
	case ChangeReplace:
		return fmt.Sprintf("Replace %q with %q at %s", abbreviate(c.OldText, 10), abbreviate(c.NewText, 10), c.Range)
	default:
		return "Unknown change"
	}
}

func abbreviate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// Edit converts the change back to the edit that produced it.
func (c Change) Edit() buffer.Edit {
	return buffer.NewEdit(c.Range, c.NewText)
}

// Invert returns a change that undoes this change.
func (c Change) Invert() Change {
	return Change{
		Type:       c.invertedType(),
		Range:      c.NewRange,
		NewRange:   c.Range,
		OldText:    c.NewText,
		NewText:    c.OldText,
		RevisionID: c.RevisionID,
	}
}

func (c Change) invertedType() ChangeType {
	switch c.Type {
	case ChangeInsert:
		return ChangeDelete
	case ChangeDelete:
		return ChangeInsert
	default:
		return ChangeReplace
	}
}

// ChangeSet represents a collection of related changes.
// Changes are stored in the order they should be applied.
type ChangeSet struct {
	Changes       []Change
	StartRevision RevisionID
	EndRevision   RevisionID
}

// NewChangeSet creates an empty change set starting at the given revision.
func NewChangeSet(startRevision RevisionID) *ChangeSet {
	return &ChangeSet{
		StartRevision: startRevision,
		EndRevision:   startRevision,
	}
}

// Add adds a change to the set.
func (cs *ChangeSet) Add(c Change) {
	cs.Changes = append(cs.Changes, c)
	cs.EndRevision = c.RevisionID
}

// Len returns the number of changes.
func (cs *ChangeSet) Len() int {
	return len(cs.Changes)
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Changes) == 0
}

// Summary returns a human-readable summary of the changes.
func (cs *ChangeSet) Summary() string {
	if cs.IsEmpty() {
		return "no changes"
	}

	var inserts, deletes, replaces int
	for _, c := range cs.Changes {
		switch c.Type {
		case ChangeInsert:
			inserts++
		case ChangeDelete:
			deletes++
		case ChangeReplace:
			replaces++
		}
	}

	var parts []string
	if inserts > 0 {
		parts = append(parts, fmt.Sprintf("%d inserts", inserts))
	}
	if deletes > 0 {
		parts = append(parts, fmt.Sprintf("%d deletes", deletes))
	}
	if replaces > 0 {
		parts = append(parts, fmt.Sprintf("%d replaces", replaces))
	}

	return strings.Join(parts, ", ")
}

// trackedChange pairs a change with its revision for internal storage.
type trackedChange struct {
	revision RevisionID
	change   Change
}
