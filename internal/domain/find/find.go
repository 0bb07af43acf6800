// Package find implements incremental search over terminal scrollback.
//
// Searches run over a caller-provided snapshot of lines, so output arriving
// during a search never changes its result. Matching ignores case and any
// ANSI escape sequences embedded in the output.
package find

import (
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Direction selects which way a search moves through the buffer
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection accepts "forward"/"next" and "backward"/"previous"
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "", "forward", "next":
		return Forward, true
	case "backward", "previous", "prev":
		return Backward, true
	default:
		return Forward, false
	}
}

// Match locates one occurrence. Column and Length count visible runes.
type Match struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Length int `json:"length"`
}

// State is the per-session find state. It is not safe for concurrent use;
// the owning session serializes access.
type State struct {
	term    string
	matches []Match
	cursor  int // -1 when there is no current match
	visible bool
}

// NewState creates an empty find state
func NewState() *State {
	return &State{cursor: -1}
}

// Search finds term in lines.
//
// A new term selects the first match (Forward) or the last match (Backward).
// Repeating the current term steps from the current match in the requested
// direction, wrapping at either end. The match set is always recomputed from
// lines, so the result reflects the snapshot given to this call.
func (s *State) Search(lines []string, term string, dir Direction) (Match, bool) {
	previous, hadPrevious := s.Current()
	sameTerm := term == s.term

	s.term = term
	s.matches = findAll(lines, term)
	s.cursor = -1

	if len(s.matches) == 0 {
		return Match{}, false
	}

	switch {
	case sameTerm && hadPrevious:
		s.cursor = step(s.matches, previous, dir)
	case dir == Backward:
		s.cursor = len(s.matches) - 1
	default:
		s.cursor = 0
	}

	return s.matches[s.cursor], true
}

// Current returns the selected match, if any
func (s *State) Current() (Match, bool) {
	if s.cursor < 0 || s.cursor >= len(s.matches) {
		return Match{}, false
	}
	return s.matches[s.cursor], true
}

// Term returns the current search term
func (s *State) Term() string {
	return s.term
}

// Count returns the size of the current match set
func (s *State) Count() int {
	return len(s.matches)
}

// Cursor returns the index of the selected match, or -1
func (s *State) Cursor() int {
	return s.cursor
}

// Show marks the find widget as visible
func (s *State) Show() {
	s.visible = true
}

// Hide hides the find widget and drops the current match set
func (s *State) Hide() {
	s.visible = false
	s.matches = nil
	s.cursor = -1
}

// Visible reports whether the find widget is shown
func (s *State) Visible() bool {
	return s.visible
}

// Reset forgets the term and matches; visibility is kept
func (s *State) Reset() {
	s.term = ""
	s.matches = nil
	s.cursor = -1
}

// step picks the match after (or before) prev, wrapping around
func step(matches []Match, prev Match, dir Direction) int {
	if dir == Backward {
		for i := len(matches) - 1; i >= 0; i-- {
			if before(matches[i], prev) {
				return i
			}
		}
		return len(matches) - 1
	}

	for i, m := range matches {
		if before(prev, m) {
			return i
		}
	}
	return 0
}

func before(a, b Match) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

func findAll(lines []string, term string) []Match {
	needle := foldRunes(term)
	if len(needle) == 0 {
		return nil
	}

	var matches []Match
	for i, line := range lines {
		hay := foldRunes(ansi.Strip(line))
		for col := 0; col+len(needle) <= len(hay); col++ {
			if equalRunes(hay[col:col+len(needle)], needle) {
				matches = append(matches, Match{Line: i, Column: col, Length: len(needle)})
				col += len(needle) - 1
			}
		}
	}
	return matches
}

func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
