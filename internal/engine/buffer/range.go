package buffer

import "fmt"

// PointRange represents a range using line/column positions.
// Start is inclusive, End is exclusive: [Start, End).
type PointRange struct {
	Start Point // Inclusive start position
	End   Point // Exclusive end position
}

// NewPointRange creates a new PointRange from start and end points.
func NewPointRange(start, end Point) PointRange {
	return PointRange{Start: start, End: end}
}

// String returns a human-readable representation of the range.
func (r PointRange) String() string {
	return fmt.Sprintf("[%s:%s)", r.Start.String(), r.End.String())
}

// IsEmpty returns true if start equals end.
func (r PointRange) IsEmpty() bool {
	return r.Start.Compare(r.End) == 0
}

// IsValid returns true if start <= end and both points are valid.
func (r PointRange) IsValid() bool {
	return r.Start.Valid() && r.End.Valid() && r.Start.Compare(r.End) <= 0
}

// Contains returns true if the given point is within the range.
func (r PointRange) Contains(p Point) bool {
	return p.Compare(r.Start) >= 0 && p.Compare(r.End) < 0
}

// ContainsInclusive is like Contains but also accepts the end point.
// Insertions at the end of a region belong to the region.
func (r PointRange) ContainsInclusive(p Point) bool {
	return p.Compare(r.Start) >= 0 && p.Compare(r.End) <= 0
}

// ContainsRange returns true if other lies entirely within r.
func (r PointRange) ContainsRange(other PointRange) bool {
	return other.Start.Compare(r.Start) >= 0 && other.End.Compare(r.End) <= 0
}

// Overlaps returns true if the two ranges share at least one position.
// Empty ranges never overlap anything.
func (r PointRange) Overlaps(other PointRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// IsSingleLine returns true if the range spans only one line.
func (r PointRange) IsSingleLine() bool {
	return r.Start.Line == r.End.Line
}
