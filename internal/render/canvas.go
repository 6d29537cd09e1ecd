// Package render draws frames and text onto a terminal canvas. Each cell
// holds two vertically stacked pixels drawn with the upper half block, so
// images keep roughly square proportions in a terminal.
package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Align is the horizontal anchor used by DrawText.
type Align int

const (
	// AlignLeft anchors text at its first cell.
	AlignLeft Align = iota
	// AlignCenter centres text on x.
	AlignCenter
	// AlignRight anchors text at its last cell.
	AlignRight
)

const halfBlock = '▀'

type cell struct {
	top    color.RGBA
	bottom color.RGBA
	fg     color.RGBA
	r      rune
	// cont marks the trailing cell of a wide rune.
	cont bool
}

type transform struct {
	tx, ty float64
	sx, sy float64
}

func identity() transform {
	return transform{sx: 1, sy: 1}
}

// apply maps local coordinates to canvas coordinates.
func (t transform) apply(x, y float64) (float64, float64) {
	return x*t.sx + t.tx, y*t.sy + t.ty
}

// invert maps canvas coordinates back to local coordinates.
func (t transform) invert(x, y float64) (float64, float64) {
	return (x - t.tx) / t.sx, (y - t.ty) / t.sy
}

// Canvas is a fixed-size grid of terminal cells with an immediate-mode drawing
// API: a fill colour, text alignment and a push/pop transform stack.
type Canvas struct {
	cells  []cell
	stack  []transform
	fill   color.RGBA
	xf     transform
	width  int
	height int
	align  Align
	size   int
}

// NewCanvas creates a canvas of width×height cells.
func NewCanvas(width, height int) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c := &Canvas{
		width:  width,
		height: height,
		cells:  make([]cell, width*height),
		xf:     identity(),
		fill:   color.RGBA{R: 255, G: 255, B: 255, A: 255},
		size:   1,
	}
	c.Background(color.RGBA{A: 255})
	return c
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in cells.
func (c *Canvas) Height() int { return c.height }

// Background clears every cell to col.
func (c *Canvas) Background(col color.Color) {
	rgba := toRGBA(col)
	for i := range c.cells {
		c.cells[i] = cell{top: rgba, bottom: rgba}
	}
}

// SetFillColor sets the text colour.
func (c *Canvas) SetFillColor(col color.Color) {
	c.fill = toRGBA(col)
}

// SetTextAlign sets the horizontal anchor for DrawText.
func (c *Canvas) SetTextAlign(a Align) {
	c.align = a
}

// SetTextSize records the requested size. Terminal glyphs are always one
// cell, so the value only matters to callers that query it.
func (c *Canvas) SetTextSize(size int) {
	if size > 0 {
		c.size = size
	}
}

// TextSize returns the last size set.
func (c *Canvas) TextSize() int { return c.size }

// Push saves the current transform.
func (c *Canvas) Push() {
	c.stack = append(c.stack, c.xf)
}

// Pop restores the last pushed transform. Unbalanced pops reset to identity.
func (c *Canvas) Pop() {
	if len(c.stack) == 0 {
		c.xf = identity()
		return
	}
	c.xf = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Translate moves the origin by (dx, dy) in the current coordinate system.
func (c *Canvas) Translate(dx, dy float64) {
	c.xf.tx += dx * c.xf.sx
	c.xf.ty += dy * c.xf.sy
}

// Scale multiplies the current axes. Zero factors are ignored.
func (c *Canvas) Scale(sx, sy float64) {
	if sx == 0 || sy == 0 {
		return
	}
	c.xf.sx *= sx
	c.xf.sy *= sy
}

// DrawImage draws img into the local rectangle (x, y, w, h) through the
// current transform, sampling with nearest neighbour.
func (c *Canvas) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}

	// Canvas bounding box of the transformed rectangle.
	x0, y0 := c.xf.apply(x, y)
	x1, y1 := c.xf.apply(x+w, y+h)
	minX, maxX := clampRange(x0, x1, c.width)
	minY, maxY := clampRange(y0, y1, c.height)

	for cy := minY; cy < maxY; cy++ {
		for cx := minX; cx < maxX; cx++ {
			cl := &c.cells[cy*c.width+cx]
			if col, ok := c.sample(img, b, x, y, w, h, float64(cx)+0.5, float64(cy)+0.25); ok {
				cl.top = col
				cl.r = 0
				cl.cont = false
			}
			if col, ok := c.sample(img, b, x, y, w, h, float64(cx)+0.5, float64(cy)+0.75); ok {
				cl.bottom = col
				cl.r = 0
				cl.cont = false
			}
		}
	}
}

func (c *Canvas) sample(img image.Image, b image.Rectangle, x, y, w, h, px, py float64) (color.RGBA, bool) {
	lx, ly := c.xf.invert(px, py)
	if lx < x || lx >= x+w || ly < y || ly >= y+h {
		return color.RGBA{}, false
	}
	ix := b.Min.X + int((lx-x)/w*float64(b.Dx()))
	iy := b.Min.Y + int((ly-y)/h*float64(b.Dy()))
	if ix >= b.Max.X {
		ix = b.Max.X - 1
	}
	if iy >= b.Max.Y {
		iy = b.Max.Y - 1
	}
	return toRGBA(img.At(ix, iy)), true
}

// DrawText writes s on row y anchored at column x. Only the translation
// part of the transform applies, so text is never mirrored.
func (c *Canvas) DrawText(s string, x, y int) {
	if s == "" {
		return
	}
	tx, ty := c.translation()
	row := y + ty
	if row < 0 || row >= c.height {
		return
	}

	col := x + tx
	switch c.align {
	case AlignCenter:
		col -= runewidth.StringWidth(s) / 2
	case AlignRight:
		col -= runewidth.StringWidth(s)
	}

	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if col >= 0 && col+rw <= c.width {
			c.clearWide(row, col, rw)
			cl := &c.cells[row*c.width+col]
			cl.r = r
			cl.fg = c.fill
			for k := 1; k < rw; k++ {
				c.cells[row*c.width+col+k].cont = true
			}
		}
		col += rw
	}
}

// clearWide prepares cells [col, col+rw) on row for a new rune. Wide
// runes are at most two cells, so a partially overwritten one is cleared.
func (c *Canvas) clearWide(row, col, rw int) {
	base := row * c.width
	if c.cells[base+col].cont && col > 0 {
		c.cells[base+col-1].r = 0
	}
	if end := col + rw; end < c.width && c.cells[base+end].cont {
		c.cells[base+end].cont = false
	}
	for k := 0; k < rw; k++ {
		c.cells[base+col+k].cont = false
		c.cells[base+col+k].r = 0
	}
}

func (c *Canvas) translation() (int, int) {
	return int(c.xf.tx), int(c.xf.ty)
}

// Rune returns the text rune at (x, y), or 0 for image cells.
func (c *Canvas) Rune(x, y int) rune {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return 0
	}
	return c.cells[y*c.width+x].r
}

// Pixel returns the top and bottom colours of cell (x, y).
func (c *Canvas) Pixel(x, y int) (top, bottom color.RGBA) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return color.RGBA{}, color.RGBA{}
	}
	cl := c.cells[y*c.width+x]
	return cl.top, cl.bottom
}

// Text returns the canvas as plain text, one line per row. Image cells are
// spaces; useful for tests and headless logs.
func (c *Canvas) Text() string {
	var sb strings.Builder
	for y := 0; y < c.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < c.width; x++ {
			cl := c.cells[y*c.width+x]
			switch {
			case cl.cont:
			case cl.r != 0:
				sb.WriteRune(cl.r)
			default:
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

// String renders the canvas with ANSI colours through lipgloss.
func (c *Canvas) String() string {
	var sb strings.Builder
	for y := 0; y < c.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < c.width; x++ {
			cl := c.cells[y*c.width+x]
			if cl.cont {
				continue
			}
			if cl.r != 0 {
				bg := blend(cl.top, cl.bottom)
				sb.WriteString(lipgloss.NewStyle().
					Foreground(hex(cl.fg)).
					Background(hex(bg)).
					Render(string(cl.r)))
				continue
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(hex(cl.top)).
				Background(hex(cl.bottom)).
				Render(string(halfBlock)))
		}
	}
	return sb.String()
}

func clampRange(a, b float64, limit int) (int, int) {
	if a > b {
		a, b = b, a
	}
	lo, hi := int(a), int(b+0.999999)
	if lo < 0 {
		lo = 0
	}
	if hi > limit {
		hi = limit
	}
	return lo, hi
}

func toRGBA(col color.Color) color.RGBA {
	if col == nil {
		return color.RGBA{A: 255}
	}
	return color.RGBAModel.Convert(col).(color.RGBA)
}

func blend(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(a.R) + uint16(b.R)) / 2),
		G: uint8((uint16(a.G) + uint16(b.G)) / 2),
		B: uint8((uint16(a.B) + uint16(b.B)) / 2),
		A: 255,
	}
}

func hex(col color.RGBA) lipgloss.Color {
	const digits = "0123456789abcdef"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{col.R, col.G, col.B} {
		buf[1+i*2] = digits[v>>4]
		buf[2+i*2] = digits[v&0x0f]
	}
	return lipgloss.Color(string(buf))
}
