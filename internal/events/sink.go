// Package events implements the EventSink: a bounded, best-effort broadcast
// of cognitive events to zero or more subscribers, plus an optional
// on-disk diagnostic mirror for invariant-violation events (spec §4.8).
package events

import (
	"sync"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// channelCapacity bounds each subscriber's buffered channel (spec §4.8:
// "bounded broadcast channel (capacity 1024)").
const channelCapacity = 1024

// Sink is the publish side the cognitive engine depends on. It never blocks
// the caller and never applies back-pressure.
type Sink interface {
	Publish(e types.Event)
}

// Broadcaster fans Publish calls out to every currently subscribed channel.
// A subscriber whose channel is full has its oldest buffered event dropped
// to make room — the sink is best-effort, never a queue the engine must
// wait on.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan types.Event
	nextID      int
}

// NewBroadcaster builds an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]chan types.Event)}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function. The channel is closed when Unsubscribe is called.
func (b *Broadcaster) Subscribe() (<-chan types.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan types.Event, channelCapacity)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}

// Publish delivers e to every subscriber without blocking. A full
// subscriber channel has its oldest event dropped to make room for e.
func (b *Broadcaster) Publish(e types.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}
