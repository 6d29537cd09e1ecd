package display

import (
	"fmt"
	"math"
	"strings"
)

// Layout names how slot columns are placed across the canvas width.
type Layout string

const (
	// LayoutFixed uses configured fractional offsets of the width.
	LayoutFixed Layout = "fixed"
	// LayoutEven spaces N slots at width*(i+1)/(N+1).
	LayoutEven Layout = "even"
)

// DefaultOffsets are the fixed fractions used for three slots.
var DefaultOffsets = []float64{0.15, 0.5, 0.85}

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case LayoutFixed, "":
		return LayoutFixed, nil
	case LayoutEven:
		return LayoutEven, nil
	default:
		return "", fmt.Errorf("unknown slot layout %q (want fixed or even)", s)
	}
}

// Positions returns the horizontal centre of each of n slots on a canvas
// of the given width. Fixed layouts fall back to even spacing when the
// number of offsets does not match n.
func Positions(layout Layout, offsets []float64, n, width int) []int {
	if n <= 0 {
		return nil
	}

	xs := make([]int, n)
	if layout == LayoutFixed && len(offsets) == n {
		for i, f := range offsets {
			xs[i] = clampColumn(int(math.Round(float64(width)*f)), width)
		}
		return xs
	}

	for i := range xs {
		xs[i] = clampColumn(width*(i+1)/(n+1), width)
	}
	return xs
}

func clampColumn(x, width int) int {
	if x < 0 {
		return 0
	}
	if width > 0 && x >= width {
		return width - 1
	}
	return x
}
