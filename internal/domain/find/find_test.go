package find

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buffer = []string{
	"starting build",
	"ERROR: missing file",
	"\x1b[31merror\x1b[0m: exit status 2",
	"done",
}

func TestSearchNewTermForward(t *testing.T) {
	s := NewState()

	m, ok := s.Search(buffer, "error", Forward)
	require.True(t, ok)
	assert.Equal(t, Match{Line: 1, Column: 0, Length: 5}, m)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 0, s.Cursor())
}

func TestSearchNewTermBackward(t *testing.T) {
	s := NewState()

	m, ok := s.Search(buffer, "error", Backward)
	require.True(t, ok)
	assert.Equal(t, Match{Line: 2, Column: 0, Length: 5}, m, "escape sequences are not counted as columns")
}

func TestSearchRepeatStepsAndWraps(t *testing.T) {
	s := NewState()

	first, _ := s.Search(buffer, "error", Forward)
	second, _ := s.Search(buffer, "error", Forward)
	third, _ := s.Search(buffer, "error", Forward)

	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 2, second.Line)
	assert.Equal(t, first, third, "forward search wraps to the first match")

	back, _ := s.Search(buffer, "error", Backward)
	assert.Equal(t, 2, back.Line, "backward from the first match wraps to the last")
}

func TestSearchNoMatch(t *testing.T) {
	s := NewState()

	_, ok := s.Search(buffer, "panic", Forward)
	assert.False(t, ok)
	assert.Equal(t, -1, s.Cursor())

	_, ok = s.Current()
	assert.False(t, ok)
}

func TestSearchEmptyTerm(t *testing.T) {
	_, ok := NewState().Search(buffer, "", Forward)
	assert.False(t, ok)
}

func TestSearchMultipleMatchesPerLine(t *testing.T) {
	s := NewState()
	lines := []string{"abcabcab"}

	s.Search(lines, "ab", Forward)
	assert.Equal(t, 3, s.Count())

	m, _ := s.Search(lines, "ab", Forward)
	assert.Equal(t, 3, m.Column)
}

func TestSearchUnicodeColumns(t *testing.T) {
	m, ok := NewState().Search([]string{"héllo wörld"}, "WÖR", Forward)
	require.True(t, ok)
	assert.Equal(t, 6, m.Column)
	assert.Equal(t, 3, m.Length)
}

func TestSearchSnapshotIsolation(t *testing.T) {
	lines := []string{"warn one"}
	snapshot := append([]string(nil), lines...)

	s := NewState()
	s.Search(snapshot, "warn", Forward)

	lines = append(lines, "warn two")
	assert.Equal(t, 1, s.Count(), "results describe the snapshot given to the call")
	assert.Len(t, lines, 2)
}

func TestResetKeepsVisibility(t *testing.T) {
	s := NewState()
	s.Show()
	s.Search(buffer, "done", Forward)

	s.Reset()
	assert.Empty(t, s.Term())
	assert.Zero(t, s.Count())
	assert.True(t, s.Visible())

	s.Hide()
	assert.False(t, s.Visible())
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("previous")
	assert.True(t, ok)
	assert.Equal(t, Backward, d)

	d, ok = ParseDirection("")
	assert.True(t, ok)
	assert.Equal(t, Forward, d)

	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}

func TestHistoryPreviousReturnsOlderTerm(t *testing.T) {
	h := NewHistory(10)
	h.Push("error")
	h.Push("warn")

	term, ok := h.Previous()
	require.True(t, ok)
	assert.Equal(t, "error", term)
	assert.Equal(t, []string{"warn", "error"}, h.Terms(), "navigation does not reorder history")
}

func TestHistoryDedupAndCap(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 50; i++ {
		h.Push(fmt.Sprintf("term-%d", i))
		assert.LessOrEqual(t, h.Len(), 3)
	}

	h.Push("term-48")
	assert.Equal(t, []string{"term-48", "term-49", "term-47"}, h.Terms())
}

func TestHistoryCycles(t *testing.T) {
	h := NewHistory(0)
	_, ok := h.Next()
	assert.False(t, ok)

	h.Push("a")
	h.Push("b")
	h.Push("c")

	var older []string
	for i := 0; i < 3; i++ {
		term, _ := h.Previous()
		older = append(older, term)
	}
	assert.Equal(t, []string{"b", "a", "c"}, older)

	term, _ := h.Next()
	assert.Equal(t, "a", term)
	assert.Equal(t, []string{"c", "b", "a"}, h.Terms())
}

func TestHistoryIgnoresEmpty(t *testing.T) {
	h := NewHistory(5)
	h.Push("")
	assert.Zero(t, h.Len())
}
