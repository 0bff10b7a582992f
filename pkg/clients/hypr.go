package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/slatebar/slatebar/pkg/watch"
)

// HyprClient talks to the Hyprland compositor through hyprctl. Connect
// verifies the compositor answers, then polls workspace and monitor state.
type HyprClient struct {
	// PollInterval defaults to one second.
	PollInterval time.Duration

	pollOnce   sync.Once
	workspaces *watch.Value[[]Workspace]
	monitors   *watch.Value[[]Monitor]
}

// NewHyprClient creates a disconnected client.
func NewHyprClient() *HyprClient {
	return &HyprClient{
		PollInterval: time.Second,
		workspaces:   watch.NewValue[[]Workspace](nil),
		monitors:     watch.NewValue[[]Monitor](nil),
	}
}

type hyprWorkspace struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Monitor string `json:"monitor"`
	Windows int    `json:"windows"`
}

type hyprMonitor struct {
	Name            string  `json:"name"`
	Scale           float64 `json:"scale"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	ActiveWorkspace struct {
		ID int `json:"id"`
	} `json:"activeWorkspace"`
}

func hyprctlJSON(ctx context.Context, dst any, args ...string) error {
	full := append([]string{"-j"}, args...)
	out, err := exec.CommandContext(ctx, "hyprctl", full...).Output()
	if err != nil {
		return fmt.Errorf("hyprctl %v failed: %w", args, err)
	}
	if err := json.Unmarshal(out, dst); err != nil {
		return fmt.Errorf("hyprctl %v returned bad JSON: %w", args, err)
	}
	return nil
}

// Connect queries the compositor once (failing if it is unreachable) and
// starts the poll loop, which runs until ctx is cancelled. Both the
// controller's monitor discovery and the workspaces module connect the same
// client; only the first caller starts the loop.
func (c *HyprClient) Connect(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}
	c.pollOnce.Do(func() { go c.poll(ctx) })
	return nil
}

func (c *HyprClient) poll(ctx context.Context) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Poll errors are transient; the next tick retries.
			_ = c.refresh(ctx)
		}
	}
}

func (c *HyprClient) refresh(ctx context.Context) error {
	var hws []hyprWorkspace
	if err := hyprctlJSON(ctx, &hws, "workspaces"); err != nil {
		return err
	}
	var hms []hyprMonitor
	if err := hyprctlJSON(ctx, &hms, "monitors"); err != nil {
		return err
	}

	active := make(map[int]bool, len(hms))
	monitors := make([]Monitor, 0, len(hms))
	for _, m := range hms {
		active[m.ActiveWorkspace.ID] = true
		monitors = append(monitors, Monitor{
			Name:   m.Name,
			Scale:  m.Scale,
			Width:  m.Width,
			Height: m.Height,
		})
	}
	workspaces := make([]Workspace, 0, len(hws))
	for _, w := range hws {
		workspaces = append(workspaces, Workspace{
			ID:      w.ID,
			Name:    w.Name,
			Monitor: w.Monitor,
			Active:  active[w.ID],
			Windows: w.Windows,
		})
	}

	c.monitors.Set(monitors)
	c.workspaces.Set(workspaces)
	return nil
}

// Workspaces is the latest observed workspace list.
func (c *HyprClient) Workspaces() *watch.Value[[]Workspace] {
	return c.workspaces
}

// Monitors is the latest observed monitor list.
func (c *HyprClient) Monitors() *watch.Value[[]Monitor] {
	return c.monitors
}

// SwitchWorkspace focuses the workspace with the given id.
func (c *HyprClient) SwitchWorkspace(ctx context.Context, id int) error {
	out, err := exec.CommandContext(ctx, "hyprctl", "dispatch", "workspace", fmt.Sprint(id)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("hyprctl dispatch workspace %d failed: %w (%s)", id, err, out)
	}
	return nil
}
