package watch

import (
	"context"
	"testing"
	"time"
)

func TestSubscribeSeesInitialValue(t *testing.T) {
	v := NewValue("init")
	sub := v.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, ok := sub.Wait(ctx)
	if !ok {
		t.Fatal("expected value, got cancellation")
	}
	if got != "init" {
		t.Fatalf("expected init, got %q", got)
	}
}

func TestLatestWins(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	defer sub.Close()
	sub.Latest() // observe initial

	for i := 1; i <= 100; i++ {
		v.Set(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, ok := sub.Wait(ctx)
	if !ok {
		t.Fatal("expected value, got cancellation")
	}
	if got != 100 {
		t.Fatalf("expected latest value 100, got %d", got)
	}

	// All hundred sets collapsed into a single wakeup.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if _, ok := sub.Wait(ctx2); ok {
		t.Fatal("expected no further wakeup after observing latest value")
	}
}

func TestWaitCancelled(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	defer sub.Close()
	sub.Latest()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := sub.Wait(ctx); ok {
		t.Fatal("expected cancellation")
	}
}

func TestClosedSubIsNotNotified(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	sub.Latest()
	sub.Close()

	v.Set(1) // must not panic or block

	select {
	case <-sub.changed:
		t.Fatal("closed subscriber should not be woken")
	default:
	}
}
