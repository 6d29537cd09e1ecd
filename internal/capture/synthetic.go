package capture

import (
	"context"
	"image"
	"image/color"
	"sync"
)

// syntheticPhase is how many frames each background colour lasts.
const syntheticPhase = 30

var syntheticColours = []color.RGBA{
	{R: 220, G: 40, B: 40, A: 255},
	{R: 40, G: 200, B: 60, A: 255},
	{R: 40, G: 80, B: 220, A: 255},
}

// SyntheticSource draws a test pattern: a solid background that cycles
// through red, green and blue with a white square sweeping across it.
type SyntheticSource struct {
	width  int
	height int
	n      int
	mu     sync.Mutex
}

// NewSyntheticSource creates a test pattern of the given size.
func NewSyntheticSource(width, height int) *SyntheticSource {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	return &SyntheticSource{width: width, height: height}
}

// Name returns "synthetic".
func (s *SyntheticSource) Name() string {
	return "synthetic"
}

// Open is a no-op.
func (s *SyntheticSource) Open(_ context.Context) error {
	return nil
}

// Grab draws the next pattern frame.
func (s *SyntheticSource) Grab(_ context.Context) (image.Image, error) {
	s.mu.Lock()
	n := s.n
	s.n++
	s.mu.Unlock()

	bg := syntheticColours[(n/syntheticPhase)%len(syntheticColours)]
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}

	size := s.height / 4
	x0 := (n * 4) % (s.width + size)
	y0 := (s.height - size) / 2
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := y0; y < y0+size; y++ {
		for x := x0 - size; x < x0; x++ {
			if x >= 0 && x < s.width {
				img.SetRGBA(x, y, white)
			}
		}
	}

	return img, nil
}

// Close is a no-op.
func (s *SyntheticSource) Close() error {
	return nil
}
