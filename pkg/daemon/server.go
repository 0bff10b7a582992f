// Package daemon is the controller's panel-facing server: it owns the unix
// socket, enforces the single-controller pidfile, and runs one serve loop
// per connected panel.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/interact"
	"github.com/slatebar/slatebar/pkg/paths"
	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

// Server accepts panel connections and keeps each panel converged on its
// monitor's latest tree.
type Server struct {
	supervisor *bar.Supervisor
	router     *interact.Router

	// BarStyle, when set, rides along with every Display frame as the
	// panel's base style. Set it before Start.
	BarStyle *tui.Style

	socketPath string
	pidPath    string
	listener   net.Listener
	debug      *log.Logger

	mu     sync.Mutex
	nextID int
}

// NewServer wires a server to the supervisor whose output it serves.
func NewServer(socketPath, pidPath string, supervisor *bar.Supervisor) *Server {
	return &Server{
		supervisor: supervisor,
		router:     supervisor.Router(),
		socketPath: socketPath,
		pidPath:    pidPath,
		debug:      log.New(io.Discard, "", 0),
	}
}

// SetDebugLogger routes per-connection diagnostics to l.
func (s *Server) SetDebugLogger(l *log.Logger) {
	s.debug = l
	s.router.SetDebugLogger(l)
}

// Start claims the pidfile, binds the socket, and begins accepting panels.
func (s *Server) Start(ctx context.Context) error {
	if err := paths.ClaimPid(s.pidPath); err != nil {
		return err
	}

	// Remove stale socket if exists (safe now that we own the pidfile)
	os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		paths.ReleasePid(s.pidPath)
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	s.listener = ln

	go s.acceptLoop(ctx)
	return nil
}

// Stop closes the listener and releases the socket and pidfile.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
	paths.ReleasePid(s.pidPath)
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				log.Printf("accept: %v", err)
			}
			return
		}
		s.mu.Lock()
		s.nextID++
		name := fmt.Sprintf("panel-%d", s.nextID)
		s.mu.Unlock()
		go s.serve(ctx, wire.NewConn(nc, name), name)
	}
}

// serve runs one panel connection: a hello naming the monitor, then a push
// loop of Display frames and a pull loop of panel events. A transport error
// on either side drops the panel; panels reconnect on their own.
func (s *Server) serve(ctx context.Context, conn *wire.Conn, name string) {
	defer conn.Close()

	hello, err := s.awaitHello(ctx, conn)
	if err != nil {
		log.Printf("%s: %v", name, err)
		return
	}
	s.debug.Printf("%s: monitor=%s profile=%s %dx%d cells, %dx%d px",
		name, hello.Monitor, hello.ColorProfile, hello.Cols, hello.Rows, hello.PixelW, hello.PixelH)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pushLoop(ctx, conn, hello.Monitor)
	s.eventLoop(ctx, conn, hello.Monitor, name)
}

func (s *Server) awaitHello(ctx context.Context, conn *wire.Conn) (wire.Hello, error) {
	m, err := conn.Recv(ctx)
	if err != nil {
		return wire.Hello{}, fmt.Errorf("closed before hello: %w", err)
	}
	if m.Type != wire.TypeHello {
		return wire.Hello{}, fmt.Errorf("expected hello, got %s", m.Type)
	}
	var hello wire.Hello
	if err := m.Decode(&hello); err != nil {
		return wire.Hello{}, err
	}
	if hello.Monitor == "" {
		return wire.Hello{}, errors.New("hello without a monitor name")
	}
	return hello, nil
}

// pushLoop sends a fresh Display whenever the aggregated output (or an open
// menu) changes.
func (s *Server) pushLoop(ctx context.Context, conn *wire.Conn, monitor string) {
	sub := s.supervisor.Output().Subscribe()
	defer sub.Close()
	for {
		out, ok := sub.Wait(ctx)
		if !ok {
			return
		}
		display := wire.Display{Tree: out[monitor], Bar: s.BarStyle}
		if display.Tree == nil {
			display.Tree = tui.Empty()
		}
		if body, anchor, open := s.router.Menu(monitor); open {
			display.Menu = &wire.MenuDisplay{Tree: body, Anchor: anchor}
		}
		if err := conn.SendPayload(wire.TypeDisplay, display); err != nil {
			log.Printf("encode display for %s: %v", monitor, err)
		}
	}
}

func (s *Server) eventLoop(ctx context.Context, conn *wire.Conn, monitor, name string) {
	for {
		m, err := conn.Recv(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.debug.Printf("%s: dropped: %v", name, err)
			}
			return
		}
		switch m.Type {
		case wire.TypeInteract:
			var ev wire.Interact
			if err := m.Decode(&ev); err != nil {
				log.Printf("%s: bad interact payload: %v", name, err)
				continue
			}
			s.router.Dispatch(ev.Tag, interact.Event{
				Kind:    ev.Kind,
				Button:  ev.Button,
				Dir:     ev.Dir,
				Monitor: monitor,
				Col:     ev.Col,
				Row:     ev.Row,
			})
		case wire.TypeFocusLost:
			s.router.FocusLost(monitor)
		case wire.TypeResize:
			var rs wire.Resize
			if err := m.Decode(&rs); err != nil {
				log.Printf("%s: bad resize payload: %v", name, err)
				continue
			}
			s.debug.Printf("%s: resized to %dx%d cells", name, rs.Cols, rs.Rows)
		default:
			s.debug.Printf("%s: ignoring message type %s", name, m.Type)
		}
	}
}
