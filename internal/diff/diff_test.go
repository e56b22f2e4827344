package diff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWordsIdentical(t *testing.T) {
	segments := Words("the quick brown fox", "the quick brown fox")
	require.Len(t, segments, 4)
	require.Zero(t, Changed(segments))
}

func TestWordsSingleSubstitution(t *testing.T) {
	segments := Words("the quick brown fox", "the quick red fox")
	require.Equal(t, []Segment{
		{Word: "the"},
		{Word: "quick"},
		{Word: "red", Changed: true},
		{Word: "fox"},
	}, segments)
	require.Equal(t, 1, Changed(segments))
}

func TestWordsRightSideLonger(t *testing.T) {
	segments := Words("hello", "hello there world")
	require.Equal(t, []Segment{
		{Word: "hello"},
		{Word: "there", Changed: true},
		{Word: "world", Changed: true},
	}, segments)
}

func TestWordsRightSideShorter(t *testing.T) {
	// Positions beyond the right side produce no segments; the result
	// only carries the right side's words.
	segments := Words("one two three", "one")
	require.Equal(t, []Segment{{Word: "one"}}, segments)
}

func TestWordsPositionalShift(t *testing.T) {
	// A leading insertion shifts every later position. This is the
	// documented positional behavior, not an alignment bug.
	segments := Words("b c", "a b c")
	require.Equal(t, 3, Changed(segments))
}

func TestWordsEmptyInputs(t *testing.T) {
	require.Empty(t, Words("", ""))
	require.Empty(t, Words("something", ""))

	segments := Words("", "all new")
	require.Len(t, segments, 2)
	require.Equal(t, 2, Changed(segments))
}

func TestWordsCollapsesWhitespace(t *testing.T) {
	segments := Words("a  b", "a\tb")
	require.Zero(t, Changed(segments))
}
