package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// cell is one canvas position. A zero rune marks the continuation column of
// a wide rune; it renders as nothing.
type cell struct {
	r     rune
	style *Style
}

// Canvas is a fixed-size cell grid a tree is drawn into.
type Canvas struct {
	w     int
	h     int
	cells [][]cell
}

// NewCanvas creates a blank canvas of w by h cells.
func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &Canvas{w: w, h: h, cells: make([][]cell, h)}
	for y := range c.cells {
		row := make([]cell, w)
		for x := range row {
			row[x].r = ' '
		}
		c.cells[y] = row
	}
	return c
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() Size {
	return Size{W: c.w, H: c.h}
}

func (c *Canvas) set(x, y int, r rune, style *Style) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	c.cells[y][x] = cell{r: r, style: style}
}

// Lines renders the canvas to one styled string per row. Adjacent cells
// sharing a style are emitted as a single styled run.
func (c *Canvas) Lines() []string {
	lines := make([]string, c.h)
	for y := 0; y < c.h; y++ {
		var sb strings.Builder
		var run strings.Builder
		var runStyle *Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			sb.WriteString(runStyle.Lipgloss().Render(run.String()))
			run.Reset()
		}
		for x := 0; x < c.w; x++ {
			cl := c.cells[y][x]
			if cl.r == 0 {
				continue
			}
			if cl.style != runStyle {
				flush()
				runStyle = cl.style
			}
			run.WriteRune(cl.r)
		}
		flush()
		lines[y] = sb.String()
	}
	return lines
}

// String joins the rendered lines with newlines.
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

// Render draws e into canvas within area, recording interactive rectangles
// into layout. hovered selects which interact element draws its hovered
// variant; pass zero for none.
func Render(e *Elem, canvas *Canvas, layout *RenderedLayout, ctx SizingContext, area Rect, hovered Tag) {
	switch e.Kind {
	case KindEmpty:
	case KindText:
		drawText(e, canvas, area)
	case KindStack:
		sizes := splitStack(e.Items, ctx, e.Axis, mainExtent(area, e.Axis))
		off := 0
		for i := range e.Items {
			child := childArea(area, e.Axis, off, sizes[i])
			Render(e.Items[i].Elem, canvas, layout, itemSizing(ctx, e.Axis), child, hovered)
			off += sizes[i]
		}
	case KindMinSize:
		Render(e.Child, canvas, layout, ctx, area, hovered)
	case KindInteract:
		layout.Record(area, e.Tag, e.Hovered != nil)
		body := e.Child
		if hovered == e.Tag && e.Hovered != nil {
			body = e.Hovered
		}
		Render(body, canvas, layout, ctx, area, hovered)
	}
}

func mainExtent(area Rect, axis Axis) int {
	if axis == Horizontal {
		return area.W
	}
	return area.H
}

func childArea(area Rect, axis Axis, off, size int) Rect {
	if axis == Horizontal {
		return Rect{X: area.X + off, Y: area.Y, W: size, H: area.H}
	}
	return Rect{X: area.X, Y: area.Y + off, W: area.W, H: size}
}

func drawText(e *Elem, canvas *Canvas, area Rect) {
	y := area.Y
	for _, line := range strings.Split(e.Body, "\n") {
		if y >= area.Y+area.H {
			return
		}
		x := area.X
		for _, r := range line {
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			if x+w > area.X+area.W {
				break
			}
			canvas.set(x, y, r, e.Style)
			if w == 2 {
				canvas.set(x+1, y, 0, e.Style)
			}
			x += w
		}
		y++
	}
}

// RenderTree is the panel's per-frame entry point: it sizes a fresh canvas to
// the given area, draws the tree, and returns the canvas together with the
// new layout snapshot.
func RenderTree(e *Elem, ctx SizingContext, size Size, hovered Tag) (*Canvas, *RenderedLayout) {
	canvas := NewCanvas(size.W, size.H)
	layout := &RenderedLayout{}
	Render(e, canvas, layout, ctx, Rect{W: size.W, H: size.H}, hovered)
	return canvas, layout
}
