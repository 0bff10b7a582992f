package modules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/clients"
	"github.com/slatebar/slatebar/pkg/interact"
	"github.com/slatebar/slatebar/pkg/retry"
	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

func init() {
	Register("workspaces", newWorkspaces)
}

func newWorkspaces(deps Deps, _ Options) (bar.Module, error) {
	if deps.Desktop == nil {
		return nil, fmt.Errorf("workspaces module requires a desktop client")
	}
	return &workspacesModule{desktop: deps.Desktop, timeout: deps.RetryTimeout}, nil
}

type workspacesModule struct {
	desktop clients.DesktopClient
	timeout time.Duration
}

// wsElems are one workspace's cached pill variants.
type wsElems struct {
	normal *tui.Elem
	active *tui.Elem
}

func (m *workspacesModule) Run(ctx context.Context, env bar.Env) error {
	if _, err := retry.Do(ctx, "workspaces: connect", m.timeout, env.Reload,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.desktop.Connect(ctx)
		}); err != nil {
		return err
	}

	cache := interact.NewTagCache[int, wsElems](env.Router, env.ID)
	defer cache.Release()

	sub := m.desktop.Workspaces().Subscribe()
	defer sub.Close()

	for {
		workspaces, ok := sub.Wait(ctx)
		if !ok {
			return nil
		}

		sorted := append([]clients.Workspace(nil), workspaces...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

		// Pills for detached monitors would never render; skipping them
		// also lets the cache retire their tags.
		var attached map[string]struct{}
		if env.Monitors != nil {
			if infos := env.Monitors.Get(); len(infos) > 0 {
				attached = make(map[string]struct{}, len(infos))
				for _, info := range infos {
					attached[info.Name] = struct{}{}
				}
			}
		}

		cache.BeginPass()
		byMonitor := make(map[string]*tui.StackBuilder)
		for _, ws := range sorted {
			if ws.Monitor == "" {
				continue
			}
			if attached != nil {
				if _, ok := attached[ws.Monitor]; !ok {
					continue
				}
			}
			id, name := ws.ID, ws.Name
			_, elems := cache.GetOrInit(ws.ID, func(tag tui.Tag) wsElems {
				env.Router.Register(env.ID, tag, func(ev interact.Event) {
					if ev.Kind != wire.EventClick || ev.Button != wire.ButtonLeft {
						return
					}
					go func() {
						_ = m.desktop.SwitchWorkspace(ctx, id)
					}()
				})
				return wsElems{
					normal: underlineHovered(tag, name, nil),
					active: underlineHovered(tag, name, &tui.Style{Fg: "2"}),
				}
			})

			stack, found := byMonitor[ws.Monitor]
			if !found {
				stack = tui.NewStack(tui.Horizontal)
				byMonitor[ws.Monitor] = stack
			}
			if ws.Active {
				stack.Push(elems.active)
			} else {
				stack.Push(elems.normal)
			}
			stack.Spacing(1)
		}

		out := make(map[string]*tui.Elem, len(byMonitor))
		for monitor, stack := range byMonitor {
			stack.DeleteLast()
			out[monitor] = stack.Build()
		}
		env.Emit(bar.ByMonitor(out))
	}
}

// underlineHovered is a pill that underlines itself while hovered.
func underlineHovered(tag tui.Tag, text string, style *tui.Style) *tui.Elem {
	hovered := tui.Style{Underline: true}
	if style != nil {
		hovered = *style
		hovered.Underline = true
	}
	return tui.Interact(tag, tui.Text(text, style), tui.Text(text, &hovered))
}
