package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 32

// Broker keeps in-memory subscriptions per session, used by the spectator
// feed. Slow subscribers lose events rather than stall the publisher.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Event)}
}

// Subscribe returns a channel of events for sessionID and a cancel func.
// The channel is closed after the session_closed event or on cancel.
func (b *Broker) Subscribe(sessionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]chan Event)
	}
	b.subs[sessionID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[sessionID][id]; ok {
				delete(b.subs[sessionID], id)
				close(c)
			}
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
		})
	}
	return ch, cancel
}

func (b *Broker) Notify(_ context.Context, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[event.SessionID]
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}

	if event.Type == TypeSessionClosed {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subs, event.SessionID)
	}
}

// Subscribers returns the number of live subscriptions for sessionID.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}
