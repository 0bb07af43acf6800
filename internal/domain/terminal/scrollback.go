package terminal

import (
	"strings"
	"sync"
)

// DefaultScrollback is the line capacity used when none is configured
const DefaultScrollback = 1000

// Scrollback is a thread-safe circular buffer of output lines.
// The newest line stays open until a newline arrives, so output split across
// reads lands on the same line.
type Scrollback struct {
	lines []string
	size  int
	head  int  // index of the oldest line
	count int  // number of stored lines
	open  bool // last line has not been terminated yet
	mu    sync.RWMutex
}

// NewScrollback creates a buffer retaining at most size lines
func NewScrollback(size int) *Scrollback {
	if size <= 0 {
		size = DefaultScrollback
	}
	return &Scrollback{
		lines: make([]string, size),
		size:  size,
	}
}

// Write appends raw output. Lines beyond capacity evict the oldest first.
func (b *Scrollback) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	text := string(p)
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		b.appendText(text[:i])
		b.terminate()
		text = text[i+1:]
	}
	if text != "" {
		b.appendText(text)
	}

	return len(p), nil
}

func (b *Scrollback) appendText(s string) {
	if b.open {
		last := (b.head + b.count - 1) % b.size
		b.lines[last] += s
		return
	}

	if b.count < b.size {
		b.lines[(b.head+b.count)%b.size] = s
		b.count++
	} else {
		// Buffer is full, overwrite the oldest line
		b.lines[b.head] = s
		b.head = (b.head + 1) % b.size
	}
	b.open = true
}

func (b *Scrollback) terminate() {
	if !b.open {
		b.appendText("")
	}
	last := (b.head + b.count - 1) % b.size
	b.lines[last] = strings.TrimSuffix(b.lines[last], "\r")
	b.open = false
}

// Snapshot returns a copy of all lines, oldest first
func (b *Scrollback) Snapshot() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]string, b.count)
	for i := 0; i < b.count; i++ {
		result[i] = b.lines[(b.head+i)%b.size]
	}
	return result
}

// Len returns the number of stored lines
func (b *Scrollback) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.count
}

// Capacity returns the maximum number of lines retained
func (b *Scrollback) Capacity() int {
	return b.size
}

// Clear drops every line
func (b *Scrollback) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.lines {
		b.lines[i] = ""
	}
	b.head = 0
	b.count = 0
	b.open = false
}
