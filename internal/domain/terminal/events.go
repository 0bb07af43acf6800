package terminal

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

// EventKind names a notification for the rendering side
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventOutput        EventKind = "output"
	EventTitle         EventKind = "title"
	EventBell          EventKind = "bell"
	EventResize        EventKind = "resize"
	EventExit          EventKind = "exit"
	EventRemoved       EventKind = "removed"
	EventFocus         EventKind = "focus"
	EventCopy          EventKind = "copy"
	EventTrustRequired EventKind = "trust_required"
)

// Event is one notification. Data holds raw output bytes and is encoded as
// base64 in JSON.
type Event struct {
	Kind        EventKind      `json:"kind"`
	TerminalID  id.TerminalID  `json:"terminal_id,omitempty"`
	WorkspaceID id.WorkspaceID `json:"workspace_id,omitempty"`
	Data        []byte         `json:"data,omitempty"`
	Title       string         `json:"title,omitempty"`
	Text        string         `json:"text,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	ExitCode    *int           `json:"exit_code,omitempty"`
	Cols        int            `json:"cols,omitempty"`
	Rows        int            `json:"rows,omitempty"`
	Time        time.Time      `json:"time"`
}

// Bus fans events out to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	metrics *monitoring.Metrics
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// WithMetrics counts dropped events
func (b *Bus) WithMetrics(metrics *monitoring.Metrics) *Bus {
	b.metrics = metrics
	return b
}

// Subscribe registers a receiver with the given buffer size. The returned
// function unsubscribes and closes the channel; it is safe to call twice.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 256
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	key := b.next
	b.next++
	b.subs[key] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, key)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber that has room
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			if b.metrics != nil {
				b.metrics.IncEventsDropped(string(e.Kind))
			}
		}
	}
}

// Subscribers returns the number of active subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}
