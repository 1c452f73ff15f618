package events

import (
	"context"
	"sync"
)

// Bus publishes events to topics and streams them to subscribers.
// Delivery is best effort.
type Bus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error)
}

const subscriberBuffer = 16

// InMemoryBus fans events out to subscribers of this process.
type InMemoryBus struct {
	mu        sync.RWMutex
	listeners map[string]map[chan Event]struct{}
}

// NewInMemoryBus creates a bus instance.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		listeners: make(map[string]map[chan Event]struct{}),
	}
}

// Publish hands event to every current subscriber of topic. A subscriber
// whose buffer is full misses the event.
func (b *InMemoryBus) Publish(ctx context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.listeners[topic] {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

// Subscribe registers a listener on topic. The returned cancel func
// unregisters it and closes the channel; it also runs when ctx ends.
func (b *InMemoryBus) Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.listeners[topic] == nil {
		b.listeners[topic] = make(map[chan Event]struct{})
	}
	b.listeners[topic][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners[topic], ch)
			if len(b.listeners[topic]) == 0 {
				delete(b.listeners, topic)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// Subscribers reports the listener count for topic.
func (b *InMemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[topic])
}
