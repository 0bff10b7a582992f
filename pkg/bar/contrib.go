package bar

import "github.com/slatebar/slatebar/pkg/tui"

// ContribKind discriminates a module's contribution.
type ContribKind string

const (
	KindShared    ContribKind = "shared"
	KindByMonitor ContribKind = "by_monitor"
	KindHide      ContribKind = "hide"
)

// Contribution is one module's current slice of the bar. Exactly one value is
// live per module; emitting a new one overwrites the old.
type Contribution struct {
	Kind       ContribKind
	Elem       *tui.Elem
	PerMonitor map[string]*tui.Elem
}

// Shared shows the same element on every monitor.
func Shared(e *tui.Elem) Contribution {
	return Contribution{Kind: KindShared, Elem: e}
}

// ByMonitor shows a different element per monitor name. Monitors missing
// from the map get nothing from this module.
func ByMonitor(m map[string]*tui.Elem) Contribution {
	return Contribution{Kind: KindByMonitor, PerMonitor: m}
}

// Hide contributes nothing anywhere.
func Hide() Contribution {
	return Contribution{Kind: KindHide}
}

// forMonitor resolves the contribution for one monitor, or nil for none.
func (c Contribution) forMonitor(name string) *tui.Elem {
	switch c.Kind {
	case KindShared:
		return c.Elem
	case KindByMonitor:
		return c.PerMonitor[name]
	}
	return nil
}

// MonitorInfo describes one attached monitor as reported by discovery.
type MonitorInfo struct {
	Name   string
	Scale  float64
	Width  int
	Height int
}

// Placement picks which end of the bar a module renders on.
type Placement string

const (
	Left  Placement = "left"
	Right Placement = "right"
)
