package wire

import (
	"encoding/json"
	"fmt"

	"github.com/slatebar/slatebar/pkg/tui"
)

// MsgType discriminates the payload carried by a Message.
type MsgType string

const (
	// Panel -> controller.
	TypeHello     MsgType = "hello"
	TypeInteract  MsgType = "interact"
	TypeResize    MsgType = "resize"
	TypeFocusLost MsgType = "focus_lost"

	// Controller -> panel.
	TypeDisplay MsgType = "display"
)

// Message is the envelope for every frame on the wire.
type Message struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage wraps payload in an envelope of the given type.
func NewMessage(t MsgType, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: t}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Message{Type: t, Payload: raw}, nil
}

// Decode unmarshals the message payload into dst.
func (m Message) Decode(dst any) error {
	if err := json.Unmarshal(m.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// Hello is the first message a panel sends after connecting. The controller
// uses the monitor name to pick which per-monitor tree the panel receives,
// and the terminal metrics to size menus and hit-test math.
type Hello struct {
	Monitor      string `json:"monitor"`
	ColorProfile string `json:"color_profile"`
	Cols         int    `json:"cols"`
	Rows         int    `json:"rows"`
	PixelW       int    `json:"pixel_w"`
	PixelH       int    `json:"pixel_h"`
}

// Display carries a full element tree to draw. Each Display replaces the
// previous one wholesale; there are no incremental updates. Menu, when set,
// is drawn anchored to the element carrying the anchor tag.
type Display struct {
	Tree *tui.Elem    `json:"tree"`
	Menu *MenuDisplay `json:"menu,omitempty"`
	// Bar is the base style the panel paints the whole bar row with.
	Bar *tui.Style `json:"bar,omitempty"`
}

// MenuDisplay is an open menu riding along with a Display frame.
type MenuDisplay struct {
	Tree   *tui.Elem `json:"tree"`
	Anchor tui.Tag   `json:"anchor"`
}

// EventKind classifies a pointer interaction at the panel boundary.
type EventKind string

const (
	EventClick  EventKind = "click"
	EventScroll EventKind = "scroll"
	EventHover  EventKind = "hover"
)

// MouseButton identifies which button produced a click.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// ScrollDir is the direction of a wheel event.
type ScrollDir string

const (
	ScrollUp   ScrollDir = "up"
	ScrollDown ScrollDir = "down"
)

// Interact reports a pointer event already resolved against the panel's
// rendered layout. Tag is zero when the event landed on no interactive
// element; hover events still carry it so the controller can close tooltips.
type Interact struct {
	Tag    tui.Tag     `json:"tag"`
	Kind   EventKind   `json:"kind"`
	Button MouseButton `json:"button,omitempty"`
	Dir    ScrollDir   `json:"dir,omitempty"`
	Col    int         `json:"col"`
	Row    int         `json:"row"`
}

// Resize reports a change in the panel's terminal geometry.
type Resize struct {
	Cols   int `json:"cols"`
	Rows   int `json:"rows"`
	PixelW int `json:"pixel_w"`
	PixelH int `json:"pixel_h"`
}
