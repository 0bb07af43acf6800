package terminal

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe(4)
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	bus.Publish(Event{Kind: EventFocus, TerminalID: "term_1"})

	assert.Equal(t, EventFocus, (<-a).Kind)
	e := <-b
	assert.Equal(t, EventFocus, e.Kind)
	assert.False(t, e.Time.IsZero())

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, bus.Subscribers())
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	bus := NewBus().WithMetrics(metrics)

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(Event{Kind: EventOutput})
	bus.Publish(Event{Kind: EventOutput})
	bus.Publish(Event{Kind: EventBell})

	assert.Len(t, ch, 1)
	assert.Equal(t, 1.0, prom.ToFloat64(metrics.EventsDropped.WithLabelValues("output")))
	assert.Equal(t, 1.0, prom.ToFloat64(metrics.EventsDropped.WithLabelValues("bell")))
}
