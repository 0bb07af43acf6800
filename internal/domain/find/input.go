package find

import "unicode"

// Input is the single-line editor behind the find widget.
// The cursor is a rune offset into the text.
type Input struct {
	text   []rune
	cursor int
}

// NewInput creates an editor holding text with the cursor at the end
func NewInput(text string) *Input {
	r := []rune(text)
	return &Input{text: r, cursor: len(r)}
}

// String returns the current text
func (in *Input) String() string {
	return string(in.text)
}

// Cursor returns the cursor position in runes
func (in *Input) Cursor() int {
	return in.cursor
}

// Set replaces the text and moves the cursor to the end
func (in *Input) Set(text string) {
	in.text = []rune(text)
	in.cursor = len(in.text)
}

// Insert types s at the cursor
func (in *Input) Insert(s string) {
	ins := []rune(s)
	text := make([]rune, 0, len(in.text)+len(ins))
	text = append(text, in.text[:in.cursor]...)
	text = append(text, ins...)
	text = append(text, in.text[in.cursor:]...)
	in.text = text
	in.cursor += len(ins)
}

// MoveTo places the cursor, clamped to the text bounds
func (in *Input) MoveTo(pos int) {
	in.cursor = max(0, min(pos, len(in.text)))
}

// Left moves the cursor one rune left
func (in *Input) Left() {
	in.MoveTo(in.cursor - 1)
}

// Right moves the cursor one rune right
func (in *Input) Right() {
	in.MoveTo(in.cursor + 1)
}

// Backspace deletes the rune before the cursor
func (in *Input) Backspace() {
	if in.cursor == 0 {
		return
	}
	in.text = append(in.text[:in.cursor-1], in.text[in.cursor:]...)
	in.cursor--
}

// DeleteWordLeft removes the word before the cursor along with any
// whitespace between it and the cursor
func (in *Input) DeleteWordLeft() {
	start := in.cursor
	for start > 0 && unicode.IsSpace(in.text[start-1]) {
		start--
	}
	for start > 0 && !unicode.IsSpace(in.text[start-1]) {
		start--
	}

	in.text = append(in.text[:start], in.text[in.cursor:]...)
	in.cursor = start
}

// DeleteWordRight removes the word after the cursor along with any
// whitespace before it
func (in *Input) DeleteWordRight() {
	end := in.cursor
	for end < len(in.text) && unicode.IsSpace(in.text[end]) {
		end++
	}
	for end < len(in.text) && !unicode.IsSpace(in.text[end]) {
		end++
	}

	in.text = append(in.text[:in.cursor], in.text[end:]...)
}
