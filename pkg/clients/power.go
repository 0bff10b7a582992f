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

// profileOrder is the cycle order for power profiles.
var profileOrder = []string{"power-saver", "balanced", "performance"}

// UPowerClient reads battery state via upower and drives profiles via
// powerprofilesctl.
type UPowerClient struct {
	PollInterval time.Duration
	// Device is the upower device path; empty means DisplayDevice.
	Device string

	state *watch.Value[PowerState]
}

// NewUPowerClient creates a disconnected client.
func NewUPowerClient() *UPowerClient {
	return &UPowerClient{
		PollInterval: 10 * time.Second,
		Device:       "/org/freedesktop/UPower/devices/DisplayDevice",
		state:        watch.NewValue(PowerState{}),
	}
}

// Connect queries once and starts polling until ctx is cancelled.
func (c *UPowerClient) Connect(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}
	go c.poll(ctx)
	return nil
}

func (c *UPowerClient) poll(ctx context.Context) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
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

// parseUPowerInfo pulls percentage and charging state out of
// "upower -i <device>" output.
func parseUPowerInfo(out string) (percent int, charging bool, err error) {
	for _, line := range strings.Split(out, "\n") {
		key, val, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "percentage":
			p, perr := strconv.Atoi(strings.TrimSuffix(val, "%"))
			if perr != nil {
				return 0, false, fmt.Errorf("unexpected percentage %q", val)
			}
			percent = p
		case "state":
			charging = val == "charging" || val == "fully-charged"
		}
	}
	return percent, charging, nil
}

func (c *UPowerClient) refresh(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "upower", "-i", c.Device).Output()
	if err != nil {
		return fmt.Errorf("upower -i %s failed: %w", c.Device, err)
	}
	percent, charging, err := parseUPowerInfo(string(out))
	if err != nil {
		return err
	}

	profile := ""
	if pout, perr := exec.CommandContext(ctx, "powerprofilesctl", "get").Output(); perr == nil {
		profile = strings.TrimSpace(string(pout))
	}

	c.state.Set(PowerState{Percent: percent, Charging: charging, Profile: profile})
	return nil
}

// State is the latest observed power state.
func (c *UPowerClient) State() *watch.Value[PowerState] {
	return c.state
}

// CycleProfile advances to the next power profile in order.
func (c *UPowerClient) CycleProfile(ctx context.Context) error {
	cur := c.state.Get().Profile
	next := profileOrder[0]
	for i, p := range profileOrder {
		if p == cur {
			next = profileOrder[(i+1)%len(profileOrder)]
			break
		}
	}
	out, err := exec.CommandContext(ctx, "powerprofilesctl", "set", next).CombinedOutput()
	if err != nil {
		return fmt.Errorf("powerprofilesctl set %s failed: %w (%s)", next, err, out)
	}
	return c.refresh(ctx)
}
