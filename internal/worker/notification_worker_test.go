package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/events"
)

type countingDrops struct {
	mu      sync.Mutex
	reasons []string
}

func (c *countingDrops) PushDropped(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
}

func (c *countingDrops) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.reasons...)
}

type failingBus struct{}

func (failingBus) Publish(context.Context, string, events.Event) error {
	return errors.New("redis down")
}

func (failingBus) Subscribe(context.Context, string) (<-chan events.Event, func(), error) {
	return nil, nil, errors.New("redis down")
}

func TestWorkerDeliversToSubscriber(t *testing.T) {
	bus := events.NewInMemoryBus()
	ch, cancel, err := bus.Subscribe(context.Background(), events.TechnicianTopic(1))
	require.NoError(t, err)
	defer cancel()

	w := NewNotificationWorker(bus, zap.NewNop(), Options{Workers: 2, QueueSize: 4})
	w.Start()

	assert.True(t, w.Enqueue(Push{Topic: events.TechnicianTopic(1), Event: events.NewEvent(events.EventTicketAssigned, 9, nil)}))

	select {
	case ev := <-ch:
		assert.Equal(t, int64(9), ev.TicketID)
	case <-time.After(2 * time.Second):
		t.Fatal("push not delivered")
	}
	require.NoError(t, w.Stop(context.Background()))
}

func TestWorkerDropsWhenQueueFull(t *testing.T) {
	drops := &countingDrops{}
	w := NewNotificationWorker(events.NewInMemoryBus(), zap.NewNop(), Options{QueueSize: 1, Drops: drops})

	assert.True(t, w.Enqueue(Push{Topic: "t"}))
	assert.False(t, w.Enqueue(Push{Topic: "t"}))
	assert.Equal(t, []string{"queue_full"}, drops.snapshot())
}

func TestWorkerSwallowsPublishErrors(t *testing.T) {
	drops := &countingDrops{}
	w := NewNotificationWorker(failingBus{}, zap.NewNop(), Options{Drops: drops})
	w.Start()

	assert.True(t, w.Enqueue(Push{Topic: "t", Event: events.NewEvent(events.EventTicketAssigned, 1, nil)}))
	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, []string{"publish_error"}, drops.snapshot())
}

func TestWorkerRejectsAfterStop(t *testing.T) {
	w := NewNotificationWorker(events.NewInMemoryBus(), nil, Options{})
	w.Start()
	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, w.Stop(context.Background()))
	assert.False(t, w.Enqueue(Push{Topic: "t"}))
}
