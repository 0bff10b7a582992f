// Package tui models the element tree shared by controller and panel: the
// controller builds trees, the panel lays them out, draws them, and resolves
// pointer positions back to interact tags.
package tui

import "github.com/charmbracelet/lipgloss"

// Tag identifies one interactive element. Tags are minted by the controller's
// interaction router and are opaque to the panel.
type Tag uint64

// Kind discriminates element tree nodes.
type Kind string

const (
	KindEmpty    Kind = "empty"
	KindText     Kind = "text"
	KindStack    Kind = "stack"
	KindMinSize  Kind = "min_size"
	KindInteract Kind = "interact"
)

// Axis is a stack's layout direction.
type Axis string

const (
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"
)

// Style is the serializable styling of a text leaf. It crosses the wire as
// plain data; the panel turns it into a lipgloss style at draw time so color
// degradation follows the panel terminal's profile, not the controller's.
type Style struct {
	Fg        string `json:"fg,omitempty"`
	Bg        string `json:"bg,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Faint     bool   `json:"faint,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Reverse   bool   `json:"reverse,omitempty"`
	Strike    bool   `json:"strike,omitempty"`
}

// Lipgloss converts the serializable style into a renderable lipgloss style.
func (s *Style) Lipgloss() lipgloss.Style {
	st := lipgloss.NewStyle()
	if s == nil {
		return st
	}
	if s.Fg != "" {
		st = st.Foreground(lipgloss.Color(s.Fg))
	}
	if s.Bg != "" {
		st = st.Background(lipgloss.Color(s.Bg))
	}
	return st.
		Bold(s.Bold).
		Faint(s.Faint).
		Italic(s.Italic).
		Underline(s.Underline).
		Reverse(s.Reverse).
		Strikethrough(s.Strike)
}

// Elem is one node of an element tree. Trees are built once per emission and
// never mutated afterwards; which fields are meaningful depends on Kind.
type Elem struct {
	Kind Kind `json:"kind"`

	// KindText.
	Body  string `json:"body,omitempty"`
	Style *Style `json:"style,omitempty"`

	// KindStack.
	Axis  Axis        `json:"axis,omitempty"`
	Items []StackItem `json:"items,omitempty"`

	// KindMinSize and KindInteract.
	Child *Elem `json:"child,omitempty"`

	// KindMinSize.
	MinW int `json:"min_w,omitempty"`
	MinH int `json:"min_h,omitempty"`

	// KindInteract. Hovered, when set, replaces Child while the pointer
	// rests on this element.
	Tag     Tag   `json:"tag,omitempty"`
	Hovered *Elem `json:"hovered,omitempty"`
}

// Empty is an element that occupies no space and draws nothing.
func Empty() *Elem {
	return &Elem{Kind: KindEmpty}
}

// Text is a styled text leaf. Multi-line bodies are supported; width is the
// widest line.
func Text(body string, style *Style) *Elem {
	return &Elem{Kind: KindText, Body: body, Style: style}
}

// MinSize guarantees child at least w by h cells.
func MinSize(child *Elem, w, h int) *Elem {
	return &Elem{Kind: KindMinSize, Child: child, MinW: w, MinH: h}
}

// Interact attaches a tag to child. hovered may be nil; when set it is drawn
// instead of child while the pointer is over the element.
func Interact(tag Tag, child, hovered *Elem) *Elem {
	return &Elem{Kind: KindInteract, Tag: tag, Child: child, Hovered: hovered}
}

// StackItem is one child of a stack. FillWeight zero means intrinsic size;
// positive weights share the leftover main-axis space proportionally.
type StackItem struct {
	FillWeight int   `json:"fill_weight,omitempty"`
	Elem       *Elem `json:"elem"`
}

// StackBuilder composes a stack incrementally before freezing it into an
// element.
type StackBuilder struct {
	axis  Axis
	items []StackItem
}

// NewStack starts a builder for a stack along axis.
func NewStack(axis Axis) *StackBuilder {
	return &StackBuilder{axis: axis}
}

// Push appends an intrinsically sized child.
func (b *StackBuilder) Push(e *Elem) *StackBuilder {
	b.items = append(b.items, StackItem{Elem: e})
	return b
}

// Fill appends a child that takes a weighted share of the leftover space.
func (b *StackBuilder) Fill(weight int, e *Elem) *StackBuilder {
	b.items = append(b.items, StackItem{FillWeight: weight, Elem: e})
	return b
}

// Spacing appends a fixed gap of n cells along the stack axis.
func (b *StackBuilder) Spacing(n int) *StackBuilder {
	if b.axis == Vertical {
		return b.Push(MinSize(Empty(), 0, n))
	}
	return b.Push(MinSize(Empty(), n, 0))
}

// DeleteLast removes the most recently pushed item, if any.
func (b *StackBuilder) DeleteLast() *StackBuilder {
	if len(b.items) > 0 {
		b.items = b.items[:len(b.items)-1]
	}
	return b
}

// Len reports how many items the builder currently holds.
func (b *StackBuilder) Len() int {
	return len(b.items)
}

// Build freezes the builder into a stack element.
func (b *StackBuilder) Build() *Elem {
	items := make([]StackItem, len(b.items))
	copy(items, b.items)
	return &Elem{Kind: KindStack, Axis: b.axis, Items: items}
}
