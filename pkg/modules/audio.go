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
	Register("audio", newAudio)
}

const volumeStep = 5

func newAudio(deps Deps, _ Options) (bar.Module, error) {
	if deps.Audio == nil {
		return nil, fmt.Errorf("audio module requires an audio client")
	}
	return &audioModule{audio: deps.Audio, timeout: deps.RetryTimeout}, nil
}

type audioModule struct {
	audio   clients.AudioClient
	timeout time.Duration
}

func (m *audioModule) Run(ctx context.Context, env bar.Env) error {
	if _, err := retry.Do(ctx, "audio: connect", m.timeout, env.Reload,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.audio.Connect(ctx)
		}); err != nil {
		return err
	}

	tag := interact.NextTag()
	env.Router.Register(env.ID, tag, func(ev interact.Event) {
		switch ev.Kind {
		case wire.EventClick:
			if ev.Button != wire.ButtonLeft {
				return
			}
			go func() { _ = m.audio.ToggleMute(ctx) }()
		case wire.EventScroll:
			delta := volumeStep
			if ev.Dir == wire.ScrollDown {
				delta = -volumeStep
			}
			go func() { _ = m.audio.ChangeVolume(ctx, delta) }()
		}
	})

	sub := m.audio.State().Subscribe()
	defer sub.Close()

	for {
		st, ok := sub.Wait(ctx)
		if !ok {
			return nil
		}
		env.Emit(bar.Shared(audioElem(tag, st)))
	}
}

func audioElem(tag tui.Tag, st clients.AudioState) *tui.Elem {
	text := fmt.Sprintf("vol %d%%", st.Volume)
	var style *tui.Style
	if st.Muted {
		text = "vol mute"
		style = &tui.Style{Faint: true}
	}
	hovered := tui.Style{Underline: true}
	if style != nil {
		hovered = *style
		hovered.Underline = true
	}
	return tui.Interact(tag, tui.Text(text, style), tui.Text(text, &hovered))
}
