package buffer

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInvalidPosition indicates a position with a negative line or column.
var ErrInvalidPosition = errors.New("invalid position")

// Point represents a line and column position.
// Both Line and Column are 0-indexed.
// Column is measured in runes from the start of the line.
//
// Point is a value type; arithmetic returns new points.
type Point struct {
	Line   int // 0-indexed line number
	Column int // 0-indexed column (rune offset within line)
}

// NewPoint creates a point, rejecting negative components.
func NewPoint(line, column int) (Point, error) {
	if line < 0 {
		return Point{}, fmt.Errorf("%w: line %d", ErrInvalidPosition, line)
	}
	if column < 0 {
		return Point{}, fmt.Errorf("%w: column %d", ErrInvalidPosition, column)
	}
	return Point{Line: line, Column: column}, nil
}

// MustPoint is like NewPoint but panics on invalid input.
// Intended for literals in tests and tables.
func MustPoint(line, column int) Point {
	p, err := NewPoint(line, column)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Add returns the component-wise sum of p and other.
func (p Point) Add(other Point) (Point, error) {
	return NewPoint(p.Line+other.Line, p.Column+other.Column)
}

// Sub returns the component-wise difference p - other.
// A negative component is an error, never clamped.
func (p Point) Sub(other Point) (Point, error) {
	return NewPoint(p.Line-other.Line, p.Column-other.Column)
}

// Valid reports whether both components are non-negative.
func (p Point) Valid() bool {
	return p.Line >= 0 && p.Column >= 0
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	if p.Line < other.Line {
		return -1
	}
	if p.Line > other.Line {
		return 1
	}
	if p.Column < other.Column {
		return -1
	}
	if p.Column > other.Column {
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Point) Before(other Point) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// IsZero returns true if this is the zero point (0:0).
func (p Point) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

// RevisionID uniquely identifies a buffer revision.
// Each modification to the buffer creates a new revision.
type RevisionID uint64

// revisionCounter is used to generate unique revision IDs.
var revisionCounter uint64

// NewRevisionID generates a new unique revision ID.
// This is thread-safe using atomic operations.
func NewRevisionID() RevisionID {
	return RevisionID(atomic.AddUint64(&revisionCounter, 1))
}
