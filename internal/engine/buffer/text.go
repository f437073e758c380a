package buffer

import "unicode/utf8"

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// RuneSlice returns the runes of s in [from, to).
// Bounds are clamped to the string.
func RuneSlice(s string, from, to int) string {
	if from < 0 {
		from = 0
	}
	start := byteIndex(s, from)
	if to < 0 {
		return s[start:]
	}
	end := byteIndex(s, to)
	if end < start {
		return ""
	}
	return s[start:end]
}

// RuneHead returns the first n runes of s.
func RuneHead(s string, n int) string {
	return s[:byteIndex(s, n)]
}

// RuneTail returns s without its first n runes.
func RuneTail(s string, n int) string {
	return s[byteIndex(s, n):]
}

// byteIndex converts a rune column to a byte index, clamped to len(s).
func byteIndex(s string, col int) int {
	if col <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == col {
			return i
		}
		n++
	}
	return len(s)
}
