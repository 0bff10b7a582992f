// Package retry implements the connection retry loop shared by every external
// client, and the reload signal that lets one administrative action wake all
// waiting loops at once.
package retry

import (
	"context"
	"log"
	"sync"
	"time"
)

// Signal is a broadcast wake-up. Fire wakes every subscriber; fires that
// arrive while a subscriber is not waiting are latched and coalesced into a
// single wakeup.
type Signal struct {
	mu   sync.Mutex
	subs map[*Sub]struct{}
}

// NewSignal creates a Signal with no subscribers.
func NewSignal() *Signal {
	return &Signal{subs: make(map[*Sub]struct{})}
}

// Fire wakes all current subscribers.
func (s *Signal) Fire() {
	s.mu.Lock()
	for sub := range s.subs {
		select {
		case sub.fired <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
}

// Subscribe registers a new listener on the signal.
func (s *Signal) Subscribe() *Sub {
	sub := &Sub{signal: s, fired: make(chan struct{}, 1)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

// Sub is one listener on a Signal.
type Sub struct {
	signal *Signal
	fired  chan struct{}
}

// Wait blocks until the signal fires or ctx is done. Returns false on
// cancellation.
func (s *Sub) Wait(ctx context.Context) bool {
	select {
	case <-s.fired:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close detaches the listener.
func (s *Sub) Close() {
	s.signal.mu.Lock()
	delete(s.signal.subs, s)
	s.signal.mu.Unlock()
}

// Do runs attempt until it succeeds or ctx is cancelled. A failed attempt is
// logged and retried after the fixed timeout, or sooner if reload fires.
// There is no backoff growth and no attempt limit; a stuck downstream is
// retried until the process exits or the operation is cancelled.
func Do[T any](ctx context.Context, name string, timeout time.Duration, reload *Sub, attempt func(context.Context) (T, error)) (T, error) {
	for {
		val, err := attempt(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil {
			var zero T
			return zero, ctx.Err()
		}
		log.Printf("%s: %v (retrying in %s)", name, err, timeout)

		timer := time.NewTimer(timeout)
		if reload != nil {
			select {
			case <-timer.C:
			case <-reload.fired:
			case <-ctx.Done():
			}
		} else {
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		}
		timer.Stop()
		if ctx.Err() != nil {
			var zero T
			return zero, ctx.Err()
		}
	}
}
