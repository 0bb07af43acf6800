package terminal

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollbackPartialLines(t *testing.T) {
	b := NewScrollback(10)

	b.Write([]byte("abc"))
	b.Write([]byte("def\r"))
	assert.Equal(t, []string{"abcdef\r"}, b.Snapshot(), "open line keeps its carriage return")

	b.Write([]byte("\n\nnext"))
	assert.Equal(t, []string{"abcdef", "", "next"}, b.Snapshot())
}

func TestScrollbackEvictsOldest(t *testing.T) {
	b := NewScrollback(3)
	for i := 0; i < 10; i++ {
		b.Write([]byte(fmt.Sprintf("line %d\n", i)))
		assert.LessOrEqual(t, b.Len(), 3)
	}

	assert.Equal(t, []string{"line 7", "line 8", "line 9"}, b.Snapshot())
}

func TestScrollbackClear(t *testing.T) {
	b := NewScrollback(0)
	assert.Equal(t, DefaultScrollback, b.Capacity())

	b.Write([]byte("x\ny"))
	b.Clear()
	assert.Zero(t, b.Len())

	b.Write([]byte("z"))
	assert.Equal(t, []string{"z"}, b.Snapshot())
}

func TestScrollbackConcurrentReaders(t *testing.T) {
	b := NewScrollback(50)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			b.Write([]byte(fmt.Sprintf("%d\n", i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := b.Snapshot()
			assert.LessOrEqual(t, len(snap), 50)
		}
	}()
	wg.Wait()

	snap := b.Snapshot()
	assert.Len(t, snap, 50)
	assert.Equal(t, "499", snap[49], "appends keep arrival order")
}
