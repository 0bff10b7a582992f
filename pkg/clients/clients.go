// Package clients defines the capability interfaces for the external systems
// feed modules observe (compositor, audio server, power daemon), plus
// command-line backed implementations. Modules depend only on the
// interfaces, so tests substitute fakes.
package clients

import (
	"context"

	"github.com/slatebar/slatebar/pkg/watch"
)

// Workspace is one compositor workspace.
type Workspace struct {
	ID      int
	Name    string
	Monitor string
	Active  bool
	Windows int
}

// Monitor is one attached output as the compositor reports it.
type Monitor struct {
	Name   string
	Scale  float64
	Width  int
	Height int
}

// DesktopClient observes the compositor's workspaces and monitors and can
// switch the focused workspace.
type DesktopClient interface {
	// Connect establishes the client. Transient failures are reported as
	// errors so callers can drive it through a retry loop.
	Connect(ctx context.Context) error
	Workspaces() *watch.Value[[]Workspace]
	Monitors() *watch.Value[[]Monitor]
	SwitchWorkspace(ctx context.Context, id int) error
}

// AudioState is the default sink's current volume.
type AudioState struct {
	Volume int // percent
	Muted  bool
}

// AudioClient observes and controls the default audio sink.
type AudioClient interface {
	Connect(ctx context.Context) error
	State() *watch.Value[AudioState]
	ChangeVolume(ctx context.Context, deltaPercent int) error
	ToggleMute(ctx context.Context) error
}

// PowerState is battery charge plus the active power profile.
type PowerState struct {
	Percent  int
	Charging bool
	Profile  string
}

// PowerClient observes the battery and cycles power profiles.
type PowerClient interface {
	Connect(ctx context.Context) error
	State() *watch.Value[PowerState]
	CycleProfile(ctx context.Context) error
}
