// Package progress fans harvest snapshots out to any number of observers.
// Delivery is best-effort: a slow or departed observer loses events, it never
// stalls the publisher.
package progress

import (
	"sync"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
)

const subscriberBuffer = 16

// Broadcaster distributes ProgressSnapshot copies to subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan domain.ProgressSnapshot
	nextID int
	closed bool
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan domain.ProgressSnapshot)}
}

// Subscribe registers an observer and returns its handle plus the channel the
// observer reads snapshots from. The channel is closed on Unsubscribe or
// Close.
func (b *Broadcaster) Subscribe() (int, <-chan domain.ProgressSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.ProgressSnapshot, subscriberBuffer)
	if b.closed {
		close(ch)
		return -1, ch
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes an observer and closes its channel.
func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers a copy of the snapshot to every subscriber without
// blocking: observers whose buffers are full skip this event.
func (b *Broadcaster) Publish(snap domain.ProgressSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Len reports the number of active subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops all subscribers and closes their channels. Subsequent
// Subscribe calls return an already-closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
