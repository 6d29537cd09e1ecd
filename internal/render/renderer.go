package render

import (
	"image/color"

	"github.com/Veraticus/frame-labeler/internal/display"
	"github.com/Veraticus/frame-labeler/internal/model"
)

// Options controls how a frame and its labels are laid out.
type Options struct {
	Placeholder string
	Offsets     []float64
	Layout      display.Layout
	Palette     Palette
	Mirror      bool
}

// Palette holds the colours used by the frame renderer.
type Palette struct {
	Background color.RGBA
	Label      color.RGBA
	Confidence color.RGBA
	Status     color.RGBA
	NoTarget   color.RGBA
	Error      color.RGBA
}

// DefaultPalette is white text on black.
var DefaultPalette = Palette{
	Background: color.RGBA{A: 255},
	Label:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Confidence: color.RGBA{R: 167, G: 139, B: 250, A: 255},
	Status:     color.RGBA{R: 163, G: 163, B: 163, A: 255},
	NoTarget:   color.RGBA{R: 245, G: 158, B: 11, A: 255},
	Error:      color.RGBA{R: 239, G: 68, B: 68, A: 255},
}

// DefaultOptions mirrors the feed and uses the fixed slot offsets.
func DefaultOptions() Options {
	return Options{
		Layout:      display.LayoutFixed,
		Offsets:     display.DefaultOffsets,
		Mirror:      true,
		Placeholder: display.DefaultMessages().WaitingCamera,
		Palette:     DefaultPalette,
	}
}

// FrameRenderer paints one rendering tick: the video frame followed by the
// display slots. It only reads its inputs.
type FrameRenderer struct {
	opts Options
}

// NewFrameRenderer creates a renderer.
func NewFrameRenderer(opts Options) *FrameRenderer {
	if opts.Layout == "" {
		opts.Layout = display.LayoutFixed
	}
	return &FrameRenderer{opts: opts}
}

// SetMirror toggles horizontal mirroring of the feed.
func (r *FrameRenderer) SetMirror(mirror bool) {
	r.opts.Mirror = mirror
}

// Mirror reports whether the feed is mirrored.
func (r *FrameRenderer) Mirror() bool {
	return r.opts.Mirror
}

// TextRows returns how many rows at the bottom are reserved for labels.
func TextRows(height int) int {
	if height >= 8 {
		return 4
	}
	if height >= 3 {
		return 2
	}
	return height
}

// Render draws frame (when hasFrame) and state onto c.
func (r *FrameRenderer) Render(c *Canvas, frame model.Frame, hasFrame bool, state display.State) {
	w, h := c.Width(), c.Height()
	c.Background(r.opts.Palette.Background)

	videoHeight := h - TextRows(h)
	if hasFrame && frame.Decodable() {
		if videoHeight > 0 {
			r.drawFrame(c, frame, float64(w), float64(videoHeight))
		}
	} else if r.opts.Placeholder != "" && videoHeight > 0 {
		c.SetFillColor(r.opts.Palette.Status)
		c.SetTextAlign(AlignCenter)
		c.DrawText(r.opts.Placeholder, w/2, videoHeight/2)
	}

	r.drawSlots(c, state)
}

func (r *FrameRenderer) drawFrame(c *Canvas, frame model.Frame, w, h float64) {
	c.Push()
	defer c.Pop()

	if r.opts.Mirror {
		c.Translate(w, 0)
		c.Scale(-1, 1)
	}
	c.DrawImage(frame.Image, 0, 0, w, h)
}

func (r *FrameRenderer) drawSlots(c *Canvas, state display.State) {
	w, h := c.Width(), c.Height()
	if len(state.Slots) == 0 || h < 2 {
		return
	}

	labelRow, confRow := h-3, h-2
	if h < 8 {
		labelRow, confRow = h-2, h-1
	}

	xs := display.Positions(r.opts.Layout, r.opts.Offsets, len(state.Slots), w)

	c.SetTextSize(16)
	c.SetTextAlign(AlignCenter)
	for i, slot := range state.Slots {
		c.SetFillColor(r.labelColor(state.Status, i))
		c.DrawText(slot.Label, xs[i], labelRow)

		c.SetFillColor(r.opts.Palette.Confidence)
		c.DrawText(slot.ConfidenceText, xs[i], confRow)
	}
}

func (r *FrameRenderer) labelColor(status display.Status, slot int) color.RGBA {
	if slot > 0 || status == display.StatusLabels {
		return r.opts.Palette.Label
	}
	switch status {
	case display.StatusError, display.StatusStartupFailed:
		return r.opts.Palette.Error
	case display.StatusNoTarget:
		return r.opts.Palette.NoTarget
	default:
		return r.opts.Palette.Status
	}
}
