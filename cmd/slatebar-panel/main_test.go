package main

import (
	"context"
	"net"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

// testPanel is a model wired to an in-memory conn, with the peer end
// returned so tests can observe what the panel sends.
func testPanel(t *testing.T) (panelModel, *wire.Conn) {
	t.Helper()
	a, b := net.Pipe()
	conn := wire.NewConn(a, "panel-under-test")
	peer := wire.NewConn(b, "controller-side")
	t.Cleanup(func() {
		conn.Close()
		peer.Close()
	})
	return panelModel{
		conn:   conn,
		width:  20,
		height: 1,
		font:   tui.Size{W: 8, H: 16},
	}, peer
}

func recvInteract(t *testing.T, peer *wire.Conn) wire.Interact {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := peer.Recv(ctx)
	if err != nil {
		t.Fatalf("no interact arrived: %v", err)
	}
	if m.Type != wire.TypeInteract {
		t.Fatalf("got %s, want interact", m.Type)
	}
	var ev wire.Interact
	if err := m.Decode(&ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

func expectNoMessage(t *testing.T, peer *wire.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if m, err := peer.Recv(ctx); err == nil {
		t.Fatalf("unexpected %s message", m.Type)
	}
}

func mouse(m panelModel, ev tea.MouseMsg) panelModel {
	next, _ := m.handleMouse(ev)
	return next.(panelModel)
}

func TestLeftClickResolvesOnRelease(t *testing.T) {
	m, peer := testPanel(t)

	m = mouse(m, tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	expectNoMessage(t, peer)

	m = mouse(m, tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	ev := recvInteract(t, peer)
	if ev.Kind != wire.EventClick || ev.Button != wire.ButtonLeft || ev.Col != 3 {
		t.Fatalf("release sent %+v, want a left click at col 3", ev)
	}
}

func TestRightReleaseDoesNotSynthesizeLeftClick(t *testing.T) {
	m, peer := testPanel(t)

	// Left press arms the click threshold...
	m = mouse(m, tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	// ...then a quick right click nearby fires on press only.
	m = mouse(m, tea.MouseMsg{X: 4, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	ev := recvInteract(t, peer)
	if ev.Button != wire.ButtonRight {
		t.Fatalf("right press sent %+v", ev)
	}
	m = mouse(m, tea.MouseMsg{X: 4, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonRight})
	expectNoMessage(t, peer)
}

func TestReleaseStateIsConsumed(t *testing.T) {
	m, peer := testPanel(t)

	m = mouse(m, tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = mouse(m, tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	recvInteract(t, peer)

	// A stray second release must not re-click.
	m = mouse(m, tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	expectNoMessage(t, peer)
}

func TestDraggedReleaseIsNotAClick(t *testing.T) {
	m, peer := testPanel(t)

	m = mouse(m, tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = mouse(m, tea.MouseMsg{X: 9, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	expectNoMessage(t, peer)
}
