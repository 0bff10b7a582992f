// Package watch provides a latest-value cell with change notification.
//
// A Value holds exactly one current value. Writers overwrite, never queue;
// a subscriber that misses intermediate values observes only the latest one.
// This is the primitive behind module emissions and client state feeds.
package watch

import (
	"context"
	"sync"
)

// Value is a single-slot, overwrite-on-set container. Set never blocks.
type Value[T any] struct {
	mu      sync.Mutex
	val     T
	version uint64
	subs    map[*Sub[T]]struct{}
}

// NewValue creates a Value holding init.
func NewValue[T any](init T) *Value[T] {
	return &Value[T]{
		val:     init,
		version: 1,
		subs:    make(map[*Sub[T]]struct{}),
	}
}

// Set replaces the current value and wakes all subscribers. Notifications
// coalesce: a subscriber that has not yet observed a previous Set sees only
// one wakeup for any number of intervening Sets.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.val = val
	v.version++
	for sub := range v.subs {
		select {
		case sub.changed <- struct{}{}:
		default:
		}
	}
	v.mu.Unlock()
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Subscribe returns a new subscriber. The first Wait observes the value that
// was current at subscription time, so subscribers never start empty.
func (v *Value[T]) Subscribe() *Sub[T] {
	sub := &Sub[T]{
		value:   v,
		changed: make(chan struct{}, 1),
	}
	sub.changed <- struct{}{}
	v.mu.Lock()
	v.subs[sub] = struct{}{}
	v.mu.Unlock()
	return sub
}

// Sub observes changes to one Value. Not safe for concurrent use by
// multiple goroutines; create one Sub per consumer.
type Sub[T any] struct {
	value   *Value[T]
	changed chan struct{}
}

// Wait blocks until the value has changed since the last observation, then
// returns the current value. Returns ok=false when ctx is done.
func (s *Sub[T]) Wait(ctx context.Context) (T, bool) {
	select {
	case <-s.changed:
		return s.value.Get(), true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// Latest returns the current value without waiting and marks it observed.
func (s *Sub[T]) Latest() T {
	select {
	case <-s.changed:
	default:
	}
	return s.value.Get()
}

// Close detaches the subscriber from its Value.
func (s *Sub[T]) Close() {
	s.value.mu.Lock()
	delete(s.value.subs, s)
	s.value.mu.Unlock()
}
