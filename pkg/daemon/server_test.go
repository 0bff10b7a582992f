package daemon

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/interact"
	"github.com/slatebar/slatebar/pkg/retry"
	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

func startServer(t *testing.T) (*Server, *bar.Supervisor, string) {
	t.Helper()
	dir := t.TempDir()
	socket := filepath.Join(dir, "controller.sock")
	pid := filepath.Join(dir, "controller.pid")

	sup := bar.NewSupervisor(interact.NewRouter(), retry.NewSignal())
	ctx, cancel := context.WithCancel(context.Background())
	go sup.Run(ctx)
	sup.SetMonitors([]bar.MonitorInfo{{Name: "DP-1"}})

	srv := NewServer(socket, pid, sup)
	if err := srv.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		srv.Stop()
		cancel()
	})
	return srv, sup, socket
}

func dialPanel(t *testing.T, socket, monitor string) *wire.Conn {
	t.Helper()
	nc, err := net.Dial("unix", socket)
	if err != nil {
		t.Fatal(err)
	}
	conn := wire.NewConn(nc, "test-panel")
	t.Cleanup(func() { conn.Close() })
	if err := conn.SendPayload(wire.TypeHello, wire.Hello{
		Monitor: monitor,
		Cols:    120,
		Rows:    1,
		PixelW:  1920,
		PixelH:  16,
	}); err != nil {
		t.Fatal(err)
	}
	return conn
}

func recvDisplay(t *testing.T, conn *wire.Conn) wire.Display {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		m, err := conn.Recv(ctx)
		if err != nil {
			t.Fatalf("no display frame: %v", err)
		}
		if m.Type != wire.TypeDisplay {
			continue
		}
		var d wire.Display
		if err := m.Decode(&d); err != nil {
			t.Fatal(err)
		}
		return d
	}
}

func treeText(e *tui.Elem) string {
	if e == nil {
		return ""
	}
	var parts []string
	var walk func(*tui.Elem)
	walk = func(e *tui.Elem) {
		if e == nil {
			return
		}
		if e.Kind == tui.KindText && e.Body != "" {
			parts = append(parts, e.Body)
		}
		walk(e.Child)
		for i := range e.Items {
			walk(e.Items[i].Elem)
		}
	}
	walk(e)
	return strings.Join(parts, ",")
}

func TestPanelReceivesDisplayFrames(t *testing.T) {
	_, sup, socket := startServer(t)
	conn := dialPanel(t, socket, "DP-1")

	err := sup.Register("clock", bar.Right, bar.ModuleFunc(func(ctx context.Context, env bar.Env) error {
		env.Emit(bar.Shared(tui.Text("10:31", nil)))
		<-ctx.Done()
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		d := recvDisplay(t, conn)
		if strings.Contains(treeText(d.Tree), "10:31") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("display never converged, last tree: %q", treeText(d.Tree))
		}
	}
}

func TestPanelEventsReachCallbacks(t *testing.T) {
	_, sup, socket := startServer(t)
	conn := dialPanel(t, socket, "DP-1")

	tag := interact.NextTag()
	clicked := make(chan interact.Event, 1)
	sup.Router().Register("mod", tag, func(ev interact.Event) {
		select {
		case clicked <- ev:
		default:
		}
	})

	err := conn.SendPayload(wire.TypeInteract, wire.Interact{
		Tag:    tag,
		Kind:   wire.EventClick,
		Button: wire.ButtonLeft,
		Col:    3,
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-clicked:
		if ev.Monitor != "DP-1" || ev.Button != wire.ButtonLeft {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("interact event never reached the callback")
	}
}

func TestFocusLostClosesTooltipAndUpdatesDisplay(t *testing.T) {
	_, sup, socket := startServer(t)
	conn := dialPanel(t, socket, "DP-1")

	tag := interact.NextTag()
	sup.Router().RegisterMenu("mod", interact.MenuSpec{
		Tag:     tag,
		Trigger: wire.EventHover,
		Kind:    interact.Tooltip,
		Body:    func() *tui.Elem { return tui.Text("tip", nil) },
	})

	if err := conn.SendPayload(wire.TypeInteract, wire.Interact{Tag: tag, Kind: wire.EventHover}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		d := recvDisplay(t, conn)
		if d.Menu != nil && treeText(d.Menu.Tree) == "tip" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tooltip never appeared in a display frame")
		}
	}

	if err := conn.SendPayload(wire.TypeFocusLost, nil); err != nil {
		t.Fatal(err)
	}
	for {
		d := recvDisplay(t, conn)
		if d.Menu == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("tooltip still open after focus loss")
		}
	}
}

func TestSecondControllerIsRejected(t *testing.T) {
	srv, sup, _ := startServer(t)

	other := NewServer(srv.socketPath, srv.pidPath, sup)
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("a second controller must fail to claim the pidfile")
	}
}
