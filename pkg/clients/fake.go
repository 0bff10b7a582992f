package clients

import (
	"context"
	"sync"

	"github.com/slatebar/slatebar/pkg/watch"
)

// Fakes for module tests. They satisfy the client interfaces with in-memory
// state and record the commands they receive.

// FakeDesktop is an in-memory DesktopClient.
type FakeDesktop struct {
	ConnectErr error

	workspaces *watch.Value[[]Workspace]
	monitors   *watch.Value[[]Monitor]

	mu       sync.Mutex
	Switched []int
}

func NewFakeDesktop() *FakeDesktop {
	return &FakeDesktop{
		workspaces: watch.NewValue[[]Workspace](nil),
		monitors:   watch.NewValue[[]Monitor](nil),
	}
}

func (f *FakeDesktop) Connect(context.Context) error           { return f.ConnectErr }
func (f *FakeDesktop) Workspaces() *watch.Value[[]Workspace]   { return f.workspaces }
func (f *FakeDesktop) Monitors() *watch.Value[[]Monitor]       { return f.monitors }
func (f *FakeDesktop) SetWorkspaces(ws []Workspace)            { f.workspaces.Set(ws) }
func (f *FakeDesktop) SetMonitors(ms []Monitor)                { f.monitors.Set(ms) }

func (f *FakeDesktop) SwitchWorkspace(_ context.Context, id int) error {
	f.mu.Lock()
	f.Switched = append(f.Switched, id)
	f.mu.Unlock()
	return nil
}

// SwitchedIDs returns the workspace switches received so far.
func (f *FakeDesktop) SwitchedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.Switched...)
}

// FakeAudio is an in-memory AudioClient.
type FakeAudio struct {
	ConnectErr error

	state *watch.Value[AudioState]

	mu          sync.Mutex
	VolumeDelta []int
	MuteToggles int
}

func NewFakeAudio() *FakeAudio {
	return &FakeAudio{state: watch.NewValue(AudioState{})}
}

func (f *FakeAudio) Connect(context.Context) error      { return f.ConnectErr }
func (f *FakeAudio) State() *watch.Value[AudioState]    { return f.state }
func (f *FakeAudio) SetState(st AudioState)             { f.state.Set(st) }

func (f *FakeAudio) ChangeVolume(_ context.Context, delta int) error {
	f.mu.Lock()
	f.VolumeDelta = append(f.VolumeDelta, delta)
	f.mu.Unlock()
	return nil
}

func (f *FakeAudio) ToggleMute(context.Context) error {
	f.mu.Lock()
	f.MuteToggles++
	f.mu.Unlock()
	return nil
}

// Toggles reports how many mute toggles were received.
func (f *FakeAudio) Toggles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MuteToggles
}

// Deltas returns the volume changes received so far.
func (f *FakeAudio) Deltas() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.VolumeDelta...)
}

// FakePower is an in-memory PowerClient.
type FakePower struct {
	ConnectErr error

	state *watch.Value[PowerState]

	mu     sync.Mutex
	Cycles int
}

func NewFakePower() *FakePower {
	return &FakePower{state: watch.NewValue(PowerState{})}
}

func (f *FakePower) Connect(context.Context) error   { return f.ConnectErr }
func (f *FakePower) State() *watch.Value[PowerState] { return f.state }
func (f *FakePower) SetState(st PowerState)          { f.state.Set(st) }

func (f *FakePower) CycleProfile(context.Context) error {
	f.mu.Lock()
	f.Cycles++
	f.mu.Unlock()
	return nil
}

// CycleCount reports how many profile cycles were received.
func (f *FakePower) CycleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Cycles
}
