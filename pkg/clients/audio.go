package clients

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/slatebar/slatebar/pkg/watch"
)

// WpctlClient controls the default PipeWire sink through wpctl.
type WpctlClient struct {
	PollInterval time.Duration

	state *watch.Value[AudioState]
}

// NewWpctlClient creates a disconnected client.
func NewWpctlClient() *WpctlClient {
	return &WpctlClient{
		PollInterval: time.Second,
		state:        watch.NewValue(AudioState{}),
	}
}

// Connect queries the sink once and starts polling until ctx is cancelled.
func (c *WpctlClient) Connect(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}
	go c.poll(ctx)
	return nil
}

func (c *WpctlClient) poll(ctx context.Context) {
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
			_ = c.refresh(ctx)
		}
	}
}

// parseWpctlVolume parses wpctl's "Volume: 0.55 [MUTED]" output.
func parseWpctlVolume(out string) (AudioState, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 2 || fields[0] != "Volume:" {
		return AudioState{}, fmt.Errorf("unexpected wpctl output %q", out)
	}
	vol, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return AudioState{}, fmt.Errorf("unexpected wpctl volume %q: %w", fields[1], err)
	}
	return AudioState{
		Volume: int(vol*100 + 0.5),
		Muted:  len(fields) > 2 && fields[2] == "[MUTED]",
	}, nil
}

func (c *WpctlClient) refresh(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "wpctl", "get-volume", "@DEFAULT_AUDIO_SINK@").Output()
	if err != nil {
		return fmt.Errorf("wpctl get-volume failed: %w", err)
	}
	st, err := parseWpctlVolume(string(out))
	if err != nil {
		return err
	}
	c.state.Set(st)
	return nil
}

// State is the latest observed sink state.
func (c *WpctlClient) State() *watch.Value[AudioState] {
	return c.state
}

// ChangeVolume adjusts the sink volume by deltaPercent.
func (c *WpctlClient) ChangeVolume(ctx context.Context, deltaPercent int) error {
	arg := fmt.Sprintf("%d%%+", deltaPercent)
	if deltaPercent < 0 {
		arg = fmt.Sprintf("%d%%-", -deltaPercent)
	}
	out, err := exec.CommandContext(ctx, "wpctl", "set-volume", "@DEFAULT_AUDIO_SINK@", arg).CombinedOutput()
	if err != nil {
		return fmt.Errorf("wpctl set-volume failed: %w (%s)", err, out)
	}
	return c.refresh(ctx)
}

// ToggleMute flips the sink's mute flag.
func (c *WpctlClient) ToggleMute(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "wpctl", "set-mute", "@DEFAULT_AUDIO_SINK@", "toggle").CombinedOutput()
	if err != nil {
		return fmt.Errorf("wpctl set-mute failed: %w (%s)", err, out)
	}
	return c.refresh(ctx)
}
