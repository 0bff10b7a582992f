package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Size is a width/height pair in terminal cells.
type Size struct {
	W int
	H int
}

// Rect is a cell-coordinate rectangle.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Contains reports whether the cell (col, row) lies inside the rectangle.
func (r Rect) Contains(col, row int) bool {
	return col >= r.X && col < r.X+r.W && row >= r.Y && row < r.Y+r.H
}

// SizingContext carries the constraints under which a tree is measured.
// FontSize is the pixel size of one terminal cell. DivW/DivH, when
// non-negative, force the corresponding dimension instead of measuring it.
type SizingContext struct {
	FontSize Size
	DivW     int
	DivH     int
}

// FreeSizing measures with no forced dimensions.
func FreeSizing(fontSize Size) SizingContext {
	return SizingContext{FontSize: fontSize, DivW: -1, DivH: -1}
}

func (c SizingContext) withW(w int) SizingContext { c.DivW = w; return c }
func (c SizingContext) withH(h int) SizingContext { c.DivH = h; return c }

// apply overrides the measured size with any forced dimensions.
func (c SizingContext) apply(s Size) Size {
	if c.DivW >= 0 {
		s.W = c.DivW
	}
	if c.DivH >= 0 {
		s.H = c.DivH
	}
	return s
}

// IntrinsicSize measures the natural size of e under ctx.
func IntrinsicSize(e *Elem, ctx SizingContext) Size {
	if ctx.DivW >= 0 && ctx.DivH >= 0 {
		return Size{W: ctx.DivW, H: ctx.DivH}
	}
	var s Size
	switch e.Kind {
	case KindEmpty:
	case KindText:
		for _, line := range strings.Split(e.Body, "\n") {
			if w := runewidth.StringWidth(line); w > s.W {
				s.W = w
			}
			s.H++
		}
	case KindStack:
		for i := range e.Items {
			item := &e.Items[i]
			es := IntrinsicSize(item.Elem, itemSizing(ctx, e.Axis))
			if e.Axis == Horizontal {
				s.W += es.W
				if es.H > s.H {
					s.H = es.H
				}
			} else {
				s.H += es.H
				if es.W > s.W {
					s.W = es.W
				}
			}
		}
	case KindMinSize:
		s = IntrinsicSize(e.Child, ctx)
		if s.W < e.MinW {
			s.W = e.MinW
		}
		if s.H < e.MinH {
			s.H = e.MinH
		}
	case KindInteract:
		s = IntrinsicSize(e.Child, ctx)
		if e.Hovered != nil {
			hs := IntrinsicSize(e.Hovered, ctx)
			if hs.W > s.W {
				s.W = hs.W
			}
			if hs.H > s.H {
				s.H = hs.H
			}
		}
	}
	return ctx.apply(s)
}

// itemSizing is the measuring context for one stack child: children are
// measured free along the stack axis and inherit the cross divisor.
func itemSizing(ctx SizingContext, axis Axis) SizingContext {
	if axis == Horizontal {
		return ctx.withW(-1)
	}
	return ctx.withH(-1)
}

// splitStack assigns each stack item its main-axis extent within total cells.
// Zero-weight items get their intrinsic size; remaining space is divided
// among positive weights proportionally, with the integer remainder handed
// out one cell at a time from the first fill item.
func splitStack(items []StackItem, ctx SizingContext, axis Axis, total int) []int {
	sizes := make([]int, len(items))
	used := 0
	weightSum := 0
	for i := range items {
		if items[i].FillWeight > 0 {
			weightSum += items[i].FillWeight
			continue
		}
		es := IntrinsicSize(items[i].Elem, itemSizing(ctx, axis))
		if axis == Horizontal {
			sizes[i] = es.W
		} else {
			sizes[i] = es.H
		}
		used += sizes[i]
	}
	leftover := total - used
	if leftover < 0 {
		leftover = 0
	}
	if weightSum > 0 {
		given := 0
		for i := range items {
			if items[i].FillWeight > 0 {
				sizes[i] = leftover * items[i].FillWeight / weightSum
				given += sizes[i]
			}
		}
		for rest := leftover - given; rest > 0; rest-- {
			for i := range items {
				if items[i].FillWeight > 0 {
					sizes[i]++
					break
				}
			}
		}
	}
	return sizes
}

// region is one recorded interactive rectangle.
type region struct {
	rect     Rect
	tag      Tag
	hasHover bool
}

// RenderedLayout is the atomic snapshot of interactive rectangles produced by
// one render pass. A new pass builds a fresh layout; snapshots are swapped
// wholesale, never patched.
type RenderedLayout struct {
	regions []region
}

// Record registers an interactive rectangle. Later records win hit-test ties,
// matching draw order (later draws sit on top).
func (l *RenderedLayout) Record(r Rect, tag Tag, hasHover bool) {
	l.regions = append(l.regions, region{rect: r, tag: tag, hasHover: hasHover})
}

// HitCell resolves a cell coordinate to the topmost interactive tag.
func (l *RenderedLayout) HitCell(col, row int) (Tag, bool) {
	for i := len(l.regions) - 1; i >= 0; i-- {
		if l.regions[i].rect.Contains(col, row) {
			return l.regions[i].tag, true
		}
	}
	return 0, false
}

// HitPixel converts a pixel coordinate to cells with the given font cell size
// and resolves it. Zero font dimensions fall back to one pixel per cell.
func (l *RenderedLayout) HitPixel(px, py int, font Size) (Tag, bool) {
	if font.W <= 0 {
		font.W = 1
	}
	if font.H <= 0 {
		font.H = 1
	}
	return l.HitCell(px/font.W, py/font.H)
}

// HoverTarget reports whether the tag at (col, row) has a hovered variant,
// so the panel knows a redraw is needed when the pointer moves onto or off it.
func (l *RenderedLayout) HoverTarget(col, row int) (Tag, bool, bool) {
	for i := len(l.regions) - 1; i >= 0; i-- {
		if l.regions[i].rect.Contains(col, row) {
			return l.regions[i].tag, l.regions[i].hasHover, true
		}
	}
	return 0, false, false
}

// TagRect returns the recorded rectangle for tag, preferring the most recent
// record. Used to anchor menus to their triggering element.
func (l *RenderedLayout) TagRect(tag Tag) (Rect, bool) {
	for i := len(l.regions) - 1; i >= 0; i-- {
		if l.regions[i].tag == tag {
			return l.regions[i].rect, true
		}
	}
	return Rect{}, false
}
