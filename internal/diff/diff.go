// Package diff provides the word-level highlighting used by the branch
// compare view.
package diff

import (
	"strings"
)

// Segment is one highlighted position in the right-hand text.
type Segment struct {
	Word    string `json:"word"`
	Changed bool   `json:"changed"`
}

// Words compares two texts position by position after splitting on
// whitespace, up to the length of the longer side. A position present
// only in b, or whose words differ, is marked changed.
//
// This is deliberately a positional diff, not an edit-distance or LCS
// alignment: an insertion near the start of b shifts every later
// position and over-reports changes. The compare view's contract is
// built on this behavior; do not silently upgrade it.
func Words(a, b string) []Segment {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)

	maxLen := len(wordsA)
	if len(wordsB) > maxLen {
		maxLen = len(wordsB)
	}

	result := make([]Segment, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		switch {
		case i < len(wordsA) && i < len(wordsB):
			result = append(result, Segment{Word: wordsB[i], Changed: wordsA[i] != wordsB[i]})
		case i < len(wordsB):
			result = append(result, Segment{Word: wordsB[i], Changed: true})
		}
	}
	return result
}

// Changed reports how many positions Words marked as changed.
func Changed(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Changed {
			n++
		}
	}
	return n
}
