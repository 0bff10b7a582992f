// Package bar runs feed modules and folds their contributions into one
// element tree per monitor.
package bar

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/slatebar/slatebar/pkg/interact"
	"github.com/slatebar/slatebar/pkg/perf"
	"github.com/slatebar/slatebar/pkg/retry"
	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/watch"
)

// Env is the capability set handed to a running module: emit a contribution,
// register interactions under the module's identity, observe reloads.
type Env struct {
	ID       string
	Emit     func(Contribution)
	Router   *interact.Router
	Reload   *retry.Sub
	Monitors *watch.Value[[]MonitorInfo]
}

// Module is one independent producer of bar content. Run blocks until ctx is
// cancelled; returning earlier freezes the module's last contribution.
type Module interface {
	Run(ctx context.Context, env Env) error
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc func(ctx context.Context, env Env) error

func (f ModuleFunc) Run(ctx context.Context, env Env) error { return f(ctx, env) }

type moduleRun struct {
	id        string
	placement Placement
	cancel    context.CancelFunc
	done      chan struct{}
	sub       *retry.Sub

	mu      sync.Mutex
	contrib Contribution
}

func (m *moduleRun) current() Contribution {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contrib
}

// Supervisor owns module lifecycles and the per-monitor aggregated trees.
type Supervisor struct {
	router *interact.Router
	reload *retry.Signal

	// MonitorTask, when set, runs once per attached monitor (spawning a
	// panel, typically). Its context is cancelled when the monitor goes
	// away or the supervisor shuts down.
	MonitorTask func(ctx context.Context, info MonitorInfo)

	// Spacing is the fixed gap, in cells, at both bar ends.
	Spacing int

	mu       sync.Mutex
	ctx      context.Context
	order    []string
	mods     map[string]*moduleRun
	monTasks map[string]context.CancelFunc

	monitors *watch.Value[[]MonitorInfo]
	output   *watch.Value[map[string]*tui.Elem]
	dirty    chan struct{}
}

// NewSupervisor creates a supervisor wired to the given router and reload
// signal. Run must be called before output is produced.
func NewSupervisor(router *interact.Router, reload *retry.Signal) *Supervisor {
	s := &Supervisor{
		router:   router,
		reload:   reload,
		Spacing:  1,
		mods:     make(map[string]*moduleRun),
		monTasks: make(map[string]context.CancelFunc),
		monitors: watch.NewValue[[]MonitorInfo](nil),
		output:   watch.NewValue(map[string]*tui.Elem{}),
		dirty:    make(chan struct{}, 1),
	}
	router.SetNotify(s.markDirty)
	return s
}

// Monitors is the latest-value feed of attached monitors.
func (s *Supervisor) Monitors() *watch.Value[[]MonitorInfo] {
	return s.monitors
}

// Output is the latest-value feed of aggregated per-monitor trees.
func (s *Supervisor) Output() *watch.Value[map[string]*tui.Elem] {
	return s.output
}

// Router exposes the interaction router modules register against.
func (s *Supervisor) Router() *interact.Router {
	return s.router
}

// Run drives aggregation until ctx is cancelled, then stops every module and
// monitor task.
func (s *Supervisor) Run(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-s.dirty:
			s.rebuild()
		}
	}
}

func (s *Supervisor) shutdown() {
	s.mu.Lock()
	mods := make([]*moduleRun, 0, len(s.mods))
	for _, m := range s.mods {
		mods = append(mods, m)
	}
	for _, cancel := range s.monTasks {
		cancel()
	}
	s.mu.Unlock()

	for _, m := range mods {
		m.cancel()
		<-m.done
	}
}

// Register spawns module under id at the given bar placement. Modules render
// in registration order within their placement.
func (s *Supervisor) Register(id string, placement Placement, mod Module) error {
	s.mu.Lock()
	if _, dup := s.mods[id]; dup {
		s.mu.Unlock()
		return fmt.Errorf("module %q already registered", id)
	}
	parent := s.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	run := &moduleRun{
		id:        id,
		placement: placement,
		cancel:    cancel,
		done:      make(chan struct{}),
		sub:       s.reload.Subscribe(),
		contrib:   Hide(),
	}
	s.mods[id] = run
	s.order = append(s.order, id)
	s.mu.Unlock()

	env := Env{
		ID:     id,
		Router: s.router,
		Reload: run.sub,
		Emit: func(c Contribution) {
			run.mu.Lock()
			run.contrib = c
			run.mu.Unlock()
			s.markDirty()
		},
		Monitors: s.monitors,
	}

	go func() {
		defer close(run.done)
		defer run.sub.Close()
		if err := mod.Run(ctx, env); err != nil && ctx.Err() == nil {
			log.Printf("module %s exited: %v", id, err)
		}
	}()
	return nil
}

// Deregister cancels the module, waits for it to acknowledge, and releases
// every tag, callback, and menu it registered. Its contribution is removed.
func (s *Supervisor) Deregister(id string) {
	s.mu.Lock()
	run, ok := s.mods[id]
	if ok {
		delete(s.mods, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	run.cancel()
	<-run.done
	s.router.ReleaseOwner(id)
	s.markDirty()
}

// SetMonitors replaces the known monitor set. New monitors get a monitor
// task spawned; vanished monitors have theirs cancelled and their aggregated
// tree dropped.
func (s *Supervisor) SetMonitors(infos []MonitorInfo) {
	s.mu.Lock()
	seen := make(map[string]struct{}, len(infos))
	parent := s.ctx
	if parent == nil {
		parent = context.Background()
	}
	type spawn struct {
		ctx  context.Context
		info MonitorInfo
	}
	var spawns []spawn
	for _, info := range infos {
		seen[info.Name] = struct{}{}
		if _, known := s.monTasks[info.Name]; known {
			continue
		}
		ctx, cancel := context.WithCancel(parent)
		s.monTasks[info.Name] = cancel
		if s.MonitorTask != nil {
			spawns = append(spawns, spawn{ctx: ctx, info: info})
		}
	}
	for name, cancel := range s.monTasks {
		if _, ok := seen[name]; !ok {
			cancel()
			delete(s.monTasks, name)
		}
	}
	task := s.MonitorTask
	s.mu.Unlock()

	for _, sp := range spawns {
		go task(sp.ctx, sp.info)
	}
	s.monitors.Set(infos)
	s.markDirty()
}

func (s *Supervisor) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// rebuild recomputes every monitor's tree from the current contributions.
func (s *Supervisor) rebuild() {
	defer perf.Start("rebuild").Stop()
	s.mu.Lock()
	var left, right []Contribution
	for _, id := range s.order {
		run := s.mods[id]
		if run.placement == Right {
			right = append(right, run.current())
		} else {
			left = append(left, run.current())
		}
	}
	monitors := s.monitors.Get()
	spacing := s.Spacing
	s.mu.Unlock()

	out := make(map[string]*tui.Elem, len(monitors))
	for _, info := range monitors {
		out[info.Name] = assembleBar(info.Name, left, right, spacing)
	}
	s.output.Set(out)
}

// assembleBar lays one monitor's bar: spacing, left modules, a stretch gap,
// right modules, spacing.
func assembleBar(monitor string, left, right []Contribution, spacing int) *tui.Elem {
	b := tui.NewStack(tui.Horizontal)
	if spacing > 0 {
		b.Spacing(spacing)
	}
	for _, c := range left {
		if e := c.forMonitor(monitor); e != nil {
			b.Push(e)
		}
	}
	b.Fill(1, tui.Empty())
	for _, c := range right {
		if e := c.forMonitor(monitor); e != nil {
			b.Push(e)
		}
	}
	if spacing > 0 {
		b.Spacing(spacing)
	}
	return b.Build()
}
