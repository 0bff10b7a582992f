// Package panelhost spawns one panel renderer process per monitor and keeps
// it alive. Panels draw into a pty owned by the controller; where the pty
// output ultimately lands (a terminal overlay, a multiplexer pane) is up to
// deployment.
package panelhost

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/paths"
	"github.com/slatebar/slatebar/pkg/retry"
)

// EnvMonitor tells a spawned panel which monitor it renders.
const EnvMonitor = "SLATEBAR_MONITOR"

// Host restarts panel processes through the shared retry discipline.
type Host struct {
	// Command is the panel binary.
	Command string
	// Socket is the controller socket handed to panels.
	Socket string
	// RestartTimeout is the fixed wait before restarting a dead panel.
	RestartTimeout time.Duration
	// Reload shortcuts the restart wait.
	Reload *retry.Signal

	// Rows is the pty height in cells; a status bar is one row.
	Rows uint16
}

// Run keeps one panel alive for monitor until ctx is cancelled. It is shaped
// as a Supervisor monitor task.
func (h *Host) Run(ctx context.Context, monitor bar.MonitorInfo) {
	var sub *retry.Sub
	if h.Reload != nil {
		sub = h.Reload.Subscribe()
		defer sub.Close()
	}
	name := fmt.Sprintf("panel[%s]", monitor.Name)
	// Exit of a panel is always a retryable failure; only cancellation of
	// the monitor ends the loop.
	_, _ = retry.Do(ctx, name, h.RestartTimeout, sub,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, h.runOnce(ctx, monitor)
		})
}

func (h *Host) runOnce(ctx context.Context, monitor bar.MonitorInfo) error {
	cmd := exec.CommandContext(ctx, h.Command)
	cmd.Env = append(os.Environ(),
		paths.EnvSocket+"="+h.Socket,
		EnvMonitor+"="+monitor.Name,
	)

	rows := h.Rows
	if rows == 0 {
		rows = 1
	}
	cols := monitor.Width
	if cols <= 0 {
		cols = 80
	}
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: rows,
		Cols: uint16(cols),
		X:    uint16(monitor.Width),
		Y:    uint16(monitor.Height),
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", h.Command, err)
	}
	defer ptmx.Close()

	// Drain the pty so the panel never blocks on a full buffer.
	go func() {
		_, _ = io.Copy(io.Discard, ptmx)
	}()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("panel for %s exited: %w", monitor.Name, err)
	}
	return fmt.Errorf("panel for %s exited", monitor.Name)
}
