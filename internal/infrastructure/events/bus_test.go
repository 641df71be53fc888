package events

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := New(nil)

	var got atomic.Int64
	require.NoError(t, bus.Subscribe("order.filled", func(v int) {
		got.Store(int64(v))
	}))

	bus.Publish("order.filled", 7)
	bus.WaitAsync()

	assert.Equal(t, int64(7), got.Load())
}

func TestBusTopicsAreIndependent(t *testing.T) {
	bus := New(nil)

	var calls atomic.Int64
	require.NoError(t, bus.Subscribe("margin.warning", func(struct{}) {
		calls.Add(1)
	}))

	bus.Publish("margin.called", struct{}{})
	bus.WaitAsync()
	assert.Zero(t, calls.Load())

	bus.Publish("margin.warning", struct{}{})
	bus.WaitAsync()
	assert.Equal(t, int64(1), calls.Load())
}
