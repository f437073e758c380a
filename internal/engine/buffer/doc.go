// Package buffer provides the position types and the line-oriented text
// model used by the editor engine and by snippet regions.
//
// The buffer package provides:
//
//   - Point and PointRange, 0-indexed with rune columns
//   - Point arithmetic that rejects negative components (ErrInvalidPosition)
//   - A thread-safe line buffer with range reads and range replacement
//   - Edit values describing a single substitution
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//
//	// Replace "World" with two lines
//	end, _ := buf.Replace(buffer.MustPoint(0, 7), buffer.MustPoint(0, 12),
//	    []string{"Go", "pher"})
//	// buf.Text() == "Hello, Go\npher!", end == (1:4)
//
// Replace keeps the untouched head of the first affected line and the
// untouched tail of the last one, so multi-line substitutions stitch
// correctly into partial lines.
package buffer
