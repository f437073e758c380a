package buffer

// Snapshot is a read-only view of the buffer at a specific revision.
// Safe for concurrent access; it shares nothing mutable with the buffer.
type Snapshot struct {
	lines      []string
	revisionID RevisionID
}

// Snapshot returns a read-only snapshot of the current buffer state.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lines := make([]string, len(b.lines))
	copy(lines, b.lines)
	return &Snapshot{lines: lines, revisionID: b.revisionID}
}

// Text returns the snapshot content joined with '\n'.
func (s *Snapshot) Text() string {
	return JoinLines(s.lines)
}

// LineCount returns the number of lines in the snapshot.
func (s *Snapshot) LineCount() int {
	return len(s.lines)
}

// LineText returns a line, or "" when out of range.
func (s *Snapshot) LineText(line int) string {
	if line < 0 || line >= len(s.lines) {
		return ""
	}
	return s.lines[line]
}

// RevisionID returns the revision the snapshot was taken at.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revisionID
}
