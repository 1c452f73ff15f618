package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestInMemoryBusDeliversToTopicOnly(t *testing.T) {
	bus := NewInMemoryBus()
	ctx := context.Background()

	mine, cancelMine, err := bus.Subscribe(ctx, TechnicianTopic(1))
	require.NoError(t, err)
	defer cancelMine()
	other, cancelOther, err := bus.Subscribe(ctx, TechnicianTopic(2))
	require.NoError(t, err)
	defer cancelOther()

	payload := AssignmentPayload{TechnicianID: 1, TicketID: 10, TicketNumber: "TKT-1", AssignedBy: "System"}
	require.NoError(t, bus.Publish(ctx, TechnicianTopic(1), NewEvent(EventTicketAssigned, 10, payload)))

	ev := receive(t, mine)
	assert.Equal(t, EventTicketAssigned, ev.Type)
	assert.Equal(t, int64(10), ev.TicketID)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, payload, ev.Payload)

	select {
	case <-other:
		t.Fatal("event leaked to another topic")
	default:
	}
}

func TestInMemoryBusCancelUnsubscribes(t *testing.T) {
	bus := NewInMemoryBus()
	ctx, stop := context.WithCancel(context.Background())

	ch, _, err := bus.Subscribe(ctx, "technician:5")
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers("technician:5"))

	stop()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after context cancel")
	}
	assert.Equal(t, 0, bus.Subscribers("technician:5"))

	require.NoError(t, bus.Publish(context.Background(), "technician:5", NewEvent(EventTicketAssigned, 1, nil)))
}

func TestInMemoryBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewInMemoryBus()
	ch, cancel, err := bus.Subscribe(context.Background(), "t")
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, bus.Publish(context.Background(), "t", NewEvent(EventTicketAssigned, int64(i), nil)))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	bus := NewRedisBus(client, "helpdesk-test", nil)
	ctx := context.Background()
	ch, cancel, err := bus.Subscribe(ctx, TechnicianTopic(7))
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, bus.Publish(ctx, TechnicianTopic(7), NewEvent(EventTicketAssigned, 3, AssignmentPayload{TicketNumber: "TKT-3"})))
	ev := receive(t, ch)
	assert.Equal(t, int64(3), ev.TicketID)
	payload, ok := ev.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TKT-3", payload["ticket_number"])
}
