package modules

import (
	"context"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/tui"
)

func init() {
	Register("text", newText)
}

// newText builds a module that shows a fixed label on every monitor.
// Options: "body" (the label), "fg"/"bg" (colors).
func newText(_ Deps, opts Options) (bar.Module, error) {
	body := opts.Str("body", "")
	var style *tui.Style
	if fg, bg := opts.Str("fg", ""), opts.Str("bg", ""); fg != "" || bg != "" {
		style = &tui.Style{Fg: fg, Bg: bg}
	}
	return bar.ModuleFunc(func(ctx context.Context, env bar.Env) error {
		env.Emit(bar.Shared(tui.Text(body, style)))
		<-ctx.Done()
		return nil
	}), nil
}
