// Package core provides the building blocks shared by the services of a node.
package core

import (
	"context"
	"sync"
)

// Feed publishes events to its subscribers and keeps the most recent ones for
// late readers. It is safe for concurrent use.
type Feed[E any] struct {
	sync.Mutex

	subs     map[chan E]struct{}
	recent   []E
	capacity int
}

// NewFeed returns a feed keeping up to capacity recent events.
func NewFeed[E any](capacity int) *Feed[E] {
	return &Feed[E]{
		subs:     make(map[chan E]struct{}),
		capacity: capacity,
	}
}

// Subscribe returns a channel receiving the events published until the
// context is done, after which the channel is closed. The channel buffers size
// events. A subscriber with a full buffer misses the event instead of blocking
// the publisher.
func (f *Feed[E]) Subscribe(ctx context.Context, size int) <-chan E {
	ch := make(chan E, size)

	f.Lock()
	f.subs[ch] = struct{}{}
	f.Unlock()

	go func() {
		<-ctx.Done()

		f.Lock()
		delete(f.subs, ch)
		close(ch)
		f.Unlock()
	}()

	return ch
}

// Publish sends the event to every subscriber. It returns the number of
// subscribers that missed it.
func (f *Feed[E]) Publish(event E) int {
	f.Lock()
	defer f.Unlock()

	if f.capacity > 0 {
		f.recent = append(f.recent, event)
		if len(f.recent) > f.capacity {
			f.recent = f.recent[len(f.recent)-f.capacity:]
		}
	}

	missed := 0
	for ch := range f.subs {
		select {
		case ch <- event:
		default:
			missed++
		}
	}

	return missed
}

// Recent returns the kept events, oldest first.
func (f *Feed[E]) Recent() []E {
	f.Lock()
	defer f.Unlock()

	return append([]E{}, f.recent...)
}

// Len returns the number of subscribers.
func (f *Feed[E]) Len() int {
	f.Lock()
	defer f.Unlock()

	return len(f.subs)
}
