// Package config holds the controller's YAML configuration.
package config

import (
	"fmt"
	"time"
)

// Duration parses yaml durations like "5s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	// Socket overrides the controller socket path.
	Socket string `yaml:"socket"`
	// RetryTimeout is the fixed wait between client reconnect attempts.
	RetryTimeout Duration `yaml:"retry_timeout"`
	// Spacing is the gap, in cells, at both ends of the bar.
	Spacing int `yaml:"spacing"`
	// SpawnPanels makes the controller start one panel process per
	// monitor; off, panels are attached externally.
	SpawnPanels bool `yaml:"spawn_panels"`
	// PanelCommand is the panel binary spawned per monitor.
	PanelCommand string `yaml:"panel_command"`

	Modules Modules `yaml:"modules"`
	Style   Style   `yaml:"style"`
}

// Modules lists module instances per bar end, in render order.
type Modules struct {
	Left  []ModuleRef `yaml:"left"`
	Right []ModuleRef `yaml:"right"`
}

// ModuleRef names a registered module plus its per-instance options.
type ModuleRef struct {
	Name    string            `yaml:"name"`
	Options map[string]string `yaml:"options"`
}

// UnmarshalYAML accepts either a bare module name or a {name, options} map.
func (m *ModuleRef) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		m.Name = name
		return nil
	}
	type plain ModuleRef
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*m = ModuleRef(p)
	return nil
}

type Style struct {
	Fg string `yaml:"fg"`
	Bg string `yaml:"bg"`
}

func applyDefaults(cfg *Config) {
	if cfg.RetryTimeout <= 0 {
		cfg.RetryTimeout = Duration(5 * time.Second)
	}
	if cfg.Spacing < 0 {
		cfg.Spacing = 0
	} else if cfg.Spacing == 0 {
		cfg.Spacing = 1
	}
	if cfg.PanelCommand == "" {
		cfg.PanelCommand = "slatebar-panel"
	}
	if len(cfg.Modules.Left) == 0 && len(cfg.Modules.Right) == 0 {
		cfg.Modules = Modules{
			Left:  []ModuleRef{{Name: "workspaces"}},
			Right: []ModuleRef{{Name: "audio"}, {Name: "power"}, {Name: "clock"}},
		}
	}
}
