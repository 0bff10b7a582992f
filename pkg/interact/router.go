// Package interact owns the controller-side mapping from interact tags to
// module behavior: the tag allocator, the callback registry, and the
// per-monitor menu state machine.
package interact

import (
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

var tagCounter atomic.Uint64

// NextTag mints a process-unique interact tag. Tag zero is never issued; it
// stands for "no target" on the wire.
func NextTag() tui.Tag {
	return tui.Tag(tagCounter.Add(1))
}

// Event is one resolved pointer interaction delivered to a callback.
type Event struct {
	Kind    wire.EventKind
	Button  wire.MouseButton
	Dir     wire.ScrollDir
	Monitor string
	Col     int
	Row     int
}

// Callback handles events for one tag. Callbacks run synchronously on the
// dispatching goroutine and must not block.
type Callback func(Event)

// MenuKind selects a menu's dismissal behavior.
type MenuKind string

const (
	// Tooltip menus close when focus is lost or the pointer hovers a
	// different element.
	Tooltip MenuKind = "tooltip"
	// Context menus stay open until explicitly dismissed by a click
	// outside the menu or a programmatic close.
	Context MenuKind = "context"
)

// MenuSpec binds a menu body to a triggering (tag, event kind) pair. Button,
// when set, narrows a click trigger to that button. Body is re-invoked every
// time the menu is rendered, so its content may change while the menu stays
// open.
type MenuSpec struct {
	Tag     tui.Tag
	Trigger wire.EventKind
	Button  wire.MouseButton
	Kind    MenuKind
	Body    func() *tui.Elem
}

type callbackEntry struct {
	owner string
	cb    Callback
}

type menuEntry struct {
	owner string
	spec  MenuSpec
}

// menuKey lets one tag carry distinct menus per trigger (a hover tooltip and
// a right-click context menu can share an element).
type menuKey struct {
	tag     tui.Tag
	trigger wire.EventKind
	button  wire.MouseButton
}

// openMenu is the menu currently showing on one monitor.
type openMenu struct {
	spec MenuSpec
	// ownTags are the interact tags inside the menu body at open time plus
	// the anchor tag; clicks on them are not "outside" clicks.
	ownTags map[tui.Tag]struct{}
}

// Router dispatches resolved pointer events to registered callbacks and runs
// the menu lifecycle. All methods are safe for concurrent use.
type Router struct {
	mu        sync.Mutex
	callbacks map[tui.Tag]callbackEntry
	menus     map[menuKey]menuEntry
	open      map[string]*openMenu // keyed by monitor name

	notify func()
	debug  *log.Logger
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		callbacks: make(map[tui.Tag]callbackEntry),
		menus:     make(map[menuKey]menuEntry),
		open:      make(map[string]*openMenu),
		debug:     log.New(io.Discard, "", 0),
	}
}

// SetNotify installs a hook invoked after any menu state change. The
// supervisor uses it to push fresh display frames.
func (r *Router) SetNotify(fn func()) {
	r.mu.Lock()
	r.notify = fn
	r.mu.Unlock()
}

// SetDebugLogger routes dropped-event diagnostics to l.
func (r *Router) SetDebugLogger(l *log.Logger) {
	r.mu.Lock()
	r.debug = l
	r.mu.Unlock()
}

// Register binds cb to tag. owner groups registrations for bulk release when
// a module is deregistered.
func (r *Router) Register(owner string, tag tui.Tag, cb Callback) {
	r.mu.Lock()
	r.callbacks[tag] = callbackEntry{owner: owner, cb: cb}
	r.mu.Unlock()
}

// Deregister removes the callback and any menu bound to tag.
func (r *Router) Deregister(tag tui.Tag) {
	r.mu.Lock()
	delete(r.callbacks, tag)
	for key := range r.menus {
		if key.tag == tag {
			delete(r.menus, key)
		}
	}
	changed := r.closeMenusAnchoredLocked(tag)
	r.mu.Unlock()
	if changed {
		r.notifyChanged()
	}
}

// RegisterMenu binds a menu to its (tag, trigger) pair. Re-registering the
// same pair replaces the menu.
func (r *Router) RegisterMenu(owner string, spec MenuSpec) {
	r.mu.Lock()
	r.menus[menuKey{tag: spec.Tag, trigger: spec.Trigger, button: spec.Button}] = menuEntry{owner: owner, spec: spec}
	r.mu.Unlock()
}

// ReleaseOwner drops every callback and menu registered under owner and
// closes any open menu they anchor. Called when a module is deregistered.
func (r *Router) ReleaseOwner(owner string) {
	r.mu.Lock()
	for tag, e := range r.callbacks {
		if e.owner == owner {
			delete(r.callbacks, tag)
		}
	}
	changed := false
	for key, e := range r.menus {
		if e.owner == owner {
			delete(r.menus, key)
			if r.closeMenusAnchoredLocked(key.tag) {
				changed = true
			}
		}
	}
	r.mu.Unlock()
	if changed {
		r.notifyChanged()
	}
}

func (r *Router) closeMenusAnchoredLocked(tag tui.Tag) bool {
	changed := false
	for monitor, m := range r.open {
		if m.spec.Tag == tag {
			delete(r.open, monitor)
			changed = true
		}
	}
	return changed
}

// Menu returns the body and anchor of the menu currently open on monitor.
// The body is freshly produced on every call.
func (r *Router) Menu(monitor string) (*tui.Elem, tui.Tag, bool) {
	r.mu.Lock()
	m, ok := r.open[monitor]
	r.mu.Unlock()
	if !ok {
		return nil, 0, false
	}
	body := m.spec.Body()
	// The body may grow new interactive elements while open (e.g. calendar
	// paging); keep the outside-click set in step with what is on screen.
	r.mu.Lock()
	if r.open[monitor] == m {
		m.ownTags = collectTags(body, m.spec.Tag)
	}
	r.mu.Unlock()
	return body, m.spec.Tag, true
}

// CloseMenu programmatically dismisses the menu on monitor, if any.
func (r *Router) CloseMenu(monitor string) {
	r.mu.Lock()
	_, had := r.open[monitor]
	delete(r.open, monitor)
	r.mu.Unlock()
	if had {
		r.notifyChanged()
	}
}

// FocusLost handles a panel losing terminal focus: tooltip menus on that
// monitor close, context menus stay.
func (r *Router) FocusLost(monitor string) {
	r.mu.Lock()
	changed := false
	if m, ok := r.open[monitor]; ok && m.spec.Kind == Tooltip {
		delete(r.open, monitor)
		changed = true
	}
	r.mu.Unlock()
	if changed {
		r.notifyChanged()
	}
}

// Dispatch routes one resolved event: the tag's callback runs first, then the
// menu state machine reacts. Events for unknown tags are dropped with a
// debug log; that is an expected race against re-registration, not an error.
func (r *Router) Dispatch(tag tui.Tag, ev Event) {
	r.mu.Lock()
	entry, hasCB := r.callbacks[tag]
	debug := r.debug
	r.mu.Unlock()

	if hasCB {
		entry.cb(ev)
	} else if tag != 0 {
		debug.Printf("dropping %s event for stale tag %d", ev.Kind, tag)
	}

	changed := r.updateMenus(tag, ev)

	// A callback firing while a menu is open on this monitor may have
	// mutated state the menu's body renders (calendar paging); repaint so
	// the next Menu() call shows it.
	if !changed && hasCB {
		r.mu.Lock()
		_, open := r.open[ev.Monitor]
		r.mu.Unlock()
		changed = open
	}
	if changed {
		r.notifyChanged()
	}
}

// updateMenus applies one event to the per-monitor menu state machine and
// reports whether anything changed.
func (r *Router) updateMenus(tag tui.Tag, ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	cur := r.open[ev.Monitor]

	switch ev.Kind {
	case wire.EventHover:
		// A hover off the tooltip's anchor closes it. Context menus
		// ignore hovers entirely.
		if cur != nil && cur.spec.Kind == Tooltip && tag != cur.spec.Tag {
			delete(r.open, ev.Monitor)
			cur = nil
			changed = true
		}
	case wire.EventClick:
		// A click outside a context menu's own elements dismisses it.
		if cur != nil && cur.spec.Kind == Context {
			if _, own := cur.ownTags[tag]; !own {
				delete(r.open, ev.Monitor)
				cur = nil
				changed = true
			}
		}
	}

	// Trigger check: open (or replace) a menu bound to this tag. A tooltip
	// never displaces an open context menu. An exact button binding beats
	// an any-button one.
	entry, ok := r.menus[menuKey{tag: tag, trigger: ev.Kind, button: ev.Button}]
	if !ok && ev.Button != "" {
		entry, ok = r.menus[menuKey{tag: tag, trigger: ev.Kind}]
	}
	if !ok {
		return changed
	}
	if cur != nil && cur.spec.Tag == entry.spec.Tag && cur.spec.Kind == entry.spec.Kind {
		return changed
	}
	if cur != nil && cur.spec.Kind == Context && entry.spec.Kind == Tooltip {
		return changed
	}
	r.open[ev.Monitor] = &openMenu{
		spec:    entry.spec,
		ownTags: collectTags(entry.spec.Body(), entry.spec.Tag),
	}
	return true
}

func (r *Router) notifyChanged() {
	r.mu.Lock()
	fn := r.notify
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// collectTags gathers every interact tag inside a menu body, plus the anchor.
func collectTags(e *tui.Elem, anchor tui.Tag) map[tui.Tag]struct{} {
	tags := map[tui.Tag]struct{}{anchor: {}}
	var walk func(*tui.Elem)
	walk = func(e *tui.Elem) {
		if e == nil {
			return
		}
		if e.Kind == tui.KindInteract {
			tags[e.Tag] = struct{}{}
		}
		walk(e.Child)
		walk(e.Hovered)
		for i := range e.Items {
			walk(e.Items[i].Elem)
		}
	}
	walk(e)
	return tags
}
