package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/clients"
	"github.com/slatebar/slatebar/pkg/interact"
	"github.com/slatebar/slatebar/pkg/retry"
	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

func init() {
	Register("power", newPower)
}

const lowBatteryPercent = 15

func newPower(deps Deps, _ Options) (bar.Module, error) {
	if deps.Power == nil {
		return nil, fmt.Errorf("power module requires a power client")
	}
	return &powerModule{power: deps.Power, timeout: deps.RetryTimeout}, nil
}

type powerModule struct {
	power   clients.PowerClient
	timeout time.Duration
}

func (m *powerModule) Run(ctx context.Context, env bar.Env) error {
	if _, err := retry.Do(ctx, "power: connect", m.timeout, env.Reload,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.power.Connect(ctx)
		}); err != nil {
		return err
	}

	tag := interact.NextTag()
	env.Router.Register(env.ID, tag, func(ev interact.Event) {
		if ev.Kind != wire.EventClick || ev.Button != wire.ButtonLeft {
			return
		}
		go func() { _ = m.power.CycleProfile(ctx) }()
	})
	env.Router.RegisterMenu(env.ID, interact.MenuSpec{
		Tag:     tag,
		Trigger: wire.EventHover,
		Kind:    interact.Tooltip,
		Body: func() *tui.Elem {
			st := m.power.State().Get()
			profile := st.Profile
			if profile == "" {
				profile = "unknown"
			}
			return tui.Text(fmt.Sprintf("profile: %s", profile), nil)
		},
	})

	sub := m.power.State().Subscribe()
	defer sub.Close()

	for {
		st, ok := sub.Wait(ctx)
		if !ok {
			return nil
		}
		env.Emit(bar.Shared(powerElem(tag, st)))
	}
}

func powerElem(tag tui.Tag, st clients.PowerState) *tui.Elem {
	indicator := "-"
	if st.Charging {
		indicator = "+"
	}
	text := fmt.Sprintf("bat %d%%%s", st.Percent, indicator)
	var style *tui.Style
	if !st.Charging && st.Percent <= lowBatteryPercent {
		style = &tui.Style{Fg: "1", Bold: true}
	}
	hovered := tui.Style{Underline: true}
	if style != nil {
		hovered = *style
		hovered.Underline = true
	}
	return tui.Interact(tag, tui.Text(text, style), tui.Text(text, &hovered))
}
