package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/slatebar/slatebar/pkg/panelhost"
	"github.com/slatebar/slatebar/pkg/paths"
	"github.com/slatebar/slatebar/pkg/perf"
	"github.com/slatebar/slatebar/pkg/tui"
	"github.com/slatebar/slatebar/pkg/wire"
)

var (
	socketFlag  = flag.String("socket", "", "controller socket (default: $"+paths.EnvSocket+")")
	monitorFlag = flag.String("monitor", "", "monitor this panel renders (default: $"+panelhost.EnvMonitor+")")
	debugMode   = flag.Bool("debug", false, "enable debug logging")
)

var debugLog *log.Logger

// displayMsg carries a fresh frame from the controller into the tea loop.
type displayMsg struct {
	display wire.Display
}

// connLostMsg ends the program; panels do not reconnect, the controller
// respawns them.
type connLostMsg struct {
	err error
}

type panelModel struct {
	conn    *wire.Conn
	monitor string

	width  int
	height int
	font   tui.Size

	tree     *tui.Elem
	menu     *wire.MenuDisplay
	barStyle *tui.Style
	hovered  tui.Tag

	// Snapshots from the last render, used to resolve mouse positions.
	layout     *tui.RenderedLayout
	menuLayout *tui.RenderedLayout
	menuCol    int

	view string

	mouseDownCol  int
	mouseDownRow  int
	mouseDownTime time.Time

	err error
}

func (m panelModel) Init() tea.Cmd {
	return nil
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case displayMsg:
		m.tree = msg.display.Tree
		m.menu = msg.display.Menu
		m.barStyle = msg.display.Bar
		m.rerender()
		return m, nil

	case connLostMsg:
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.conn.SendPayload(wire.TypeResize, wire.Resize{
			Cols:   msg.Width,
			Rows:   msg.Height,
			PixelW: msg.Width * m.font.W,
			PixelH: msg.Height * m.font.H,
		})
		m.rerender()
		return m, nil

	case tea.BlurMsg:
		m.conn.SendPayload(wire.TypeFocusLost, nil)
		return m, nil
	}

	return m, nil
}

// rerender rebuilds the frame and the hit-test snapshots. The bar occupies
// the top row; an open menu hangs below it, anchored under its bar element.
func (m *panelModel) rerender() {
	defer perf.Start("rerender").Stop()
	if m.width <= 0 || m.tree == nil {
		m.view = ""
		m.layout = nil
		m.menuLayout = nil
		return
	}

	barCtx := tui.SizingContext{FontSize: m.font, DivW: m.width, DivH: 1}
	canvas, layout := tui.RenderTree(m.tree, barCtx, tui.Size{W: m.width, H: 1}, m.hovered)
	m.layout = layout
	lines := canvas.Lines()
	if m.barStyle != nil {
		base := m.barStyle.Lipgloss()
		for i, line := range lines {
			lines[i] = base.Render(line)
		}
	}

	m.menuLayout = nil
	if m.menu != nil && m.menu.Tree != nil && m.height > 1 {
		free := tui.FreeSizing(m.font)
		size := tui.IntrinsicSize(m.menu.Tree, free)
		if size.H > m.height-1 {
			size.H = m.height - 1
		}
		col := 0
		if anchor, ok := layout.TagRect(m.menu.Anchor); ok {
			col = anchor.X
		}
		if col+size.W > m.width {
			col = m.width - size.W
		}
		if col < 0 {
			col = 0
		}
		m.menuCol = col
		menuCanvas, menuLayout := tui.RenderTree(m.menu.Tree, free, size, m.hovered)
		m.menuLayout = menuLayout
		pad := strings.Repeat(" ", col)
		for _, line := range menuCanvas.Lines() {
			lines = append(lines, pad+line)
		}
	}

	m.view = strings.Join(lines, "\n")
}

// hitTest resolves a cell position against the bar row or the open menu.
func (m *panelModel) hitTest(col, row int) (tui.Tag, bool) {
	if row == 0 {
		if m.layout == nil {
			return 0, false
		}
		return m.layout.HitCell(col, row)
	}
	if m.menuLayout == nil {
		return 0, false
	}
	return m.menuLayout.HitCell(col-m.menuCol, row-1)
}

func (m panelModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionMotion:
		tag, _ := m.hitTest(msg.X, msg.Y)
		if tag != m.hovered {
			m.hovered = tag
			m.rerender()
			m.sendInteract(tag, wire.Interact{Kind: wire.EventHover, Col: msg.X, Row: msg.Y})
		}
		return m, nil

	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
			dir := wire.ScrollUp
			if msg.Button == tea.MouseButtonWheelDown {
				dir = wire.ScrollDown
			}
			if tag, ok := m.hitTest(msg.X, msg.Y); ok {
				m.sendInteract(tag, wire.Interact{Kind: wire.EventScroll, Dir: dir, Col: msg.X, Row: msg.Y})
			}
			return m, nil
		case tea.MouseButtonLeft:
			// Resolved on release so a drag is not a click.
			m.mouseDownCol = msg.X
			m.mouseDownRow = msg.Y
			m.mouseDownTime = time.Now()
			return m, nil
		case tea.MouseButtonRight, tea.MouseButtonMiddle:
			return m.click(msg.X, msg.Y, buttonOf(msg.Button)), nil
		}
		return m, nil

	case tea.MouseActionRelease:
		// Only a left release completes a left press; other buttons
		// already fired on press.
		if msg.Button != tea.MouseButtonLeft || m.mouseDownTime.IsZero() {
			return m, nil
		}
		dx := msg.X - m.mouseDownCol
		dy := msg.Y - m.mouseDownRow
		pressed := m.mouseDownTime
		m.mouseDownTime = time.Time{}
		if abs(dx) <= 2 && abs(dy) <= 1 && time.Since(pressed) < 300*time.Millisecond {
			return m.click(m.mouseDownCol, m.mouseDownRow, wire.ButtonLeft), nil
		}
		return m, nil
	}

	return m, nil
}

// click sends the interaction even when nothing is hit: a click on empty bar
// space with a context menu open must still dismiss the menu.
func (m panelModel) click(col, row int, button wire.MouseButton) panelModel {
	tag, _ := m.hitTest(col, row)
	m.sendInteract(tag, wire.Interact{Kind: wire.EventClick, Button: button, Col: col, Row: row})
	return m
}

func (m *panelModel) sendInteract(tag tui.Tag, ev wire.Interact) {
	ev.Tag = tag
	if err := m.conn.SendPayload(wire.TypeInteract, ev); err != nil {
		debugLog.Printf("encode interact: %v", err)
	}
}

func buttonOf(b tea.MouseButton) wire.MouseButton {
	switch b {
	case tea.MouseButtonRight:
		return wire.ButtonRight
	case tea.MouseButtonMiddle:
		return wire.ButtonMiddle
	}
	return wire.ButtonLeft
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (m panelModel) View() string {
	return m.view
}

func profileName(p termenv.Profile) string {
	switch p {
	case termenv.Ascii:
		return "Ascii"
	case termenv.ANSI:
		return "ANSI"
	case termenv.TrueColor:
		return "TrueColor"
	}
	return "ANSI256"
}

// cellMetrics reads the terminal size in cells and pixels. Pixel counts come
// back zero on terminals that do not report them; hit-testing then runs on
// cells alone.
func cellMetrics() (cols, rows, pxW, pxH int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 80, 1, 0, 0
	}
	return int(ws.Col), int(ws.Row), int(ws.Xpixel), int(ws.Ypixel)
}

func fontSize(cols, rows, pxW, pxH int) tui.Size {
	font := tui.Size{W: 8, H: 16}
	if cols > 0 && pxW > 0 {
		font.W = pxW / cols
	}
	if rows > 0 && pxH > 0 {
		font.H = pxH / rows
	}
	return font
}

func run() error {
	socket := *socketFlag
	if socket == "" {
		socket = os.Getenv(paths.EnvSocket)
	}
	if socket == "" {
		return fmt.Errorf("no controller socket: pass -socket or set $%s", paths.EnvSocket)
	}
	monitor := *monitorFlag
	if monitor == "" {
		monitor = os.Getenv(panelhost.EnvMonitor)
	}
	if monitor == "" {
		return fmt.Errorf("no monitor: pass -monitor or set $%s", panelhost.EnvMonitor)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal")
	}

	nc, err := net.Dial("unix", socket)
	if err != nil {
		return fmt.Errorf("dial %s: %w", socket, err)
	}
	conn := wire.NewConn(nc, "panel["+monitor+"]")
	defer conn.Close()

	cols, rows, pxW, pxH := cellMetrics()
	err = conn.SendPayload(wire.TypeHello, wire.Hello{
		Monitor:      monitor,
		ColorProfile: profileName(termenv.ColorProfile()),
		Cols:         cols,
		Rows:         rows,
		PixelW:       pxW,
		PixelH:       pxH,
	})
	if err != nil {
		return fmt.Errorf("hello: %w", err)
	}

	model := panelModel{
		conn:    conn,
		monitor: monitor,
		width:   cols,
		height:  rows,
		font:    fontSize(cols, rows, pxW, pxH),
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithReportFocus())

	go func() {
		for {
			msg, err := conn.Recv(context.Background())
			if err != nil {
				p.Send(connLostMsg{err: err})
				return
			}
			switch msg.Type {
			case wire.TypeDisplay:
				var d wire.Display
				if err := msg.Decode(&d); err != nil {
					debugLog.Printf("bad display payload: %v", err)
					continue
				}
				p.Send(displayMsg{display: d})
			default:
				debugLog.Printf("ignoring message type %s", msg.Type)
			}
		}
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(panelModel); ok && m.err != nil {
		return fmt.Errorf("controller connection lost: %w", m.err)
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetPrefix("[panel] ")

	debugLog = log.New(io.Discard, "", 0)
	if *debugMode {
		logPath := fmt.Sprintf("/tmp/slatebar-panel-%d.log", os.Getpid())
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644); err == nil {
			debugLog = log.New(f, "[panel] ", log.LstdFlags|log.Lmicroseconds)
		} else {
			debugLog = log.New(os.Stderr, "[panel] ", log.LstdFlags|log.Lmicroseconds)
		}
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}
