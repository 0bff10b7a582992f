package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoReturnsOnFirstSuccess(t *testing.T) {
	got, err := Do(context.Background(), "test", time.Hour, nil,
		func(context.Context) (int, error) { return 42, nil })
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestDoRetriesAfterTimeout(t *testing.T) {
	var attempts atomic.Int32
	got, err := Do(context.Background(), "test", 10*time.Millisecond, nil,
		func(context.Context) (string, error) {
			if attempts.Add(1) < 3 {
				return "", errors.New("not yet")
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Fatalf("expected ok, got %q", got)
	}
	if n := attempts.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestReloadShortcutsTimeout(t *testing.T) {
	sig := NewSignal()
	sub := sig.Subscribe()
	defer sub.Close()

	var attempts atomic.Int32
	start := time.Now()
	go func() {
		time.Sleep(20 * time.Millisecond)
		sig.Fire()
	}()

	// First attempt fails; the second must start at the reload, well before
	// the one-minute timeout.
	_, err := Do(context.Background(), "test", time.Minute, sub,
		func(context.Context) (struct{}, error) {
			if attempts.Add(1) == 1 {
				return struct{}{}, errors.New("down")
			}
			return struct{}{}, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("reload did not shortcut the timeout: took %s", elapsed)
	}
}

func TestFireWakesAllSubscribers(t *testing.T) {
	sig := NewSignal()
	const n = 5
	subs := make([]*Sub, n)
	for i := range subs {
		subs[i] = sig.Subscribe()
	}

	sig.Fire()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i, sub := range subs {
		if !sub.Wait(ctx) {
			t.Fatalf("subscriber %d was not woken", i)
		}
	}
}

func TestFiresCoalesce(t *testing.T) {
	sig := NewSignal()
	sub := sig.Subscribe()
	defer sub.Close()

	sig.Fire()
	sig.Fire()
	sig.Fire()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !sub.Wait(ctx) {
		t.Fatal("expected one wakeup")
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if sub.Wait(ctx2) {
		t.Fatal("coalesced fires must produce a single wakeup")
	}
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, "test", time.Hour, nil,
		func(context.Context) (int, error) { return 0, errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
