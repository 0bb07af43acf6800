package find

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputDeleteWordLeft(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   string
		pos    int
	}{
		{"end of text", "exit status", 11, "exit ", 5},
		{"trailing space", "exit status  ", 13, "exit ", 5},
		{"middle of word", "exit status", 8, "exit tus", 5},
		{"at start", "exit", 0, "exit", 0},
		{"single word", "panic", 5, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInput(tt.text)
			in.MoveTo(tt.cursor)
			in.DeleteWordLeft()

			assert.Equal(t, tt.want, in.String())
			assert.Equal(t, tt.pos, in.Cursor())
		})
	}
}

func TestInputDeleteWordRight(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   string
	}{
		{"start of text", "exit status", 0, " status"},
		{"before space", "exit status", 4, "exit"},
		{"middle of word", "exit status", 2, "ex status"},
		{"at end", "exit", 4, "exit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInput(tt.text)
			in.MoveTo(tt.cursor)
			in.DeleteWordRight()

			assert.Equal(t, tt.want, in.String())
			assert.Equal(t, tt.cursor, in.Cursor())
		})
	}
}

func TestInputInsertAndMove(t *testing.T) {
	in := NewInput("")
	in.Insert("wrn")
	in.Left()
	in.Left()
	in.Insert("a")
	assert.Equal(t, "warn", in.String())
	assert.Equal(t, 2, in.Cursor())

	in.MoveTo(100)
	assert.Equal(t, 4, in.Cursor())
	in.Backspace()
	assert.Equal(t, "war", in.String())

	in.MoveTo(-3)
	in.Backspace()
	assert.Equal(t, "war", in.String())

	in.Right()
	in.Insert("ö")
	assert.Equal(t, "wöar", in.String())

	in.Set("reset")
	assert.Equal(t, 5, in.Cursor())
}
