package interact

import (
	"testing"

	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

func TestTagCacheStableAcrossPasses(t *testing.T) {
	r := NewRouter()
	c := NewTagCache[string, int](r, "workspaces")

	inits := 0
	init := func(tag tui.Tag) int { inits++; return 7 }

	c.BeginPass()
	tag1, val1 := c.GetOrInit("ws-1", init)

	c.BeginPass()
	tag2, val2 := c.GetOrInit("ws-1", init)

	if inits != 1 {
		t.Fatalf("init ran %d times, want 1", inits)
	}
	if tag1 != tag2 || val1 != val2 {
		t.Fatalf("key kept across passes must return identical (tag, value): (%d,%d) vs (%d,%d)", tag1, val1, tag2, val2)
	}
}

func TestTagCachePrunesSkippedKeys(t *testing.T) {
	r := NewRouter()
	c := NewTagCache[string, int](r, "workspaces")

	c.BeginPass()
	tag1, _ := c.GetOrInit("ws-1", func(tag tui.Tag) int {
		r.Register("workspaces", tag, func(Event) {})
		return 0
	})

	// ws-1 is absent from this pass.
	c.BeginPass()
	c.GetOrInit("ws-2", func(tui.Tag) int { return 0 })

	// Pruned at the start of the next pass: a fresh tag is allocated and
	// the old callback is gone.
	c.BeginPass()
	inits := 0
	tag3, _ := c.GetOrInit("ws-1", func(tui.Tag) int { inits++; return 0 })
	if inits != 1 {
		t.Fatal("a pruned key must re-run init")
	}
	if tag3 == tag1 {
		t.Fatal("a pruned key must get a freshly allocated tag")
	}

	fired := false
	r.Register("probe", NextTag(), func(Event) { fired = true })
	r.Dispatch(tag1, Event{Kind: wire.EventClick})
	if fired {
		t.Fatal("dispatching the old tag must not reach any callback")
	}
}

func TestTagCacheSameKeyTwiceInOnePass(t *testing.T) {
	r := NewRouter()
	c := NewTagCache[string, string](r, "mod")

	c.BeginPass()
	inits := 0
	tag1, _ := c.GetOrInit("k", func(tui.Tag) string { inits++; return "v" })
	tag2, _ := c.GetOrInit("k", func(tui.Tag) string { inits++; return "v" })
	if inits != 1 || tag1 != tag2 {
		t.Fatalf("same key in one pass: inits=%d tags=%d,%d", inits, tag1, tag2)
	}
}

func TestTagCacheRelease(t *testing.T) {
	r := NewRouter()
	c := NewTagCache[string, int](r, "mod")

	fired := 0
	c.BeginPass()
	tag, _ := c.GetOrInit("k", func(tag tui.Tag) int {
		r.Register("mod", tag, func(Event) { fired++ })
		return 0
	})

	c.Release()
	r.Dispatch(tag, Event{Kind: wire.EventClick})
	if fired != 0 {
		t.Fatal("released tags must be deregistered")
	}
}
