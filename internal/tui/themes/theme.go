// Package themes defines the colour schemes of the terminal UI.
package themes

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/Veraticus/frame-labeler/internal/render"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	StatusPending lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	BorderedBox   lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Background    lipgloss.Color
	Info          lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

// Palette maps the theme onto the colours used to paint frames.
func (t Theme) Palette() render.Palette {
	return render.Palette{
		Background: rgb(t.Background),
		Label:      rgb(t.Foreground),
		Confidence: rgb(t.Secondary),
		Status:     rgb(t.Muted),
		NoTarget:   rgb(t.Warning),
		Error:      rgb(t.Error),
	}
}

func rgb(c lipgloss.Color) color.RGBA {
	s := strings.TrimPrefix(string(c), "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func newTheme(primary, secondary, success, warning, errColor, info, bg, fg, border, muted, subtle string) Theme {
	return Theme{
		Primary:    lipgloss.Color(primary),
		Secondary:  lipgloss.Color(secondary),
		Success:    lipgloss.Color(success),
		Warning:    lipgloss.Color(warning),
		Error:      lipgloss.Color(errColor),
		Info:       lipgloss.Color(info),
		Background: lipgloss.Color(bg),
		Foreground: lipgloss.Color(fg),
		Border:     lipgloss.Color(border),
		Muted:      lipgloss.Color(muted),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(subtle)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(fg)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)),
		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(success)).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(warning)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(errColor)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(info)).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)).
			Italic(true),
	}
}

// Default is the default theme.
var Default = newTheme(
	"#7c3aed", "#a78bfa", "#10b981", "#f59e0b", "#ef4444", "#3b82f6",
	"#000000", "#fafafa", "#404040", "#737373", "#a3a3a3",
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(
	"#cba6f7", "#f5c2e7", "#a6e3a1", "#f9e2af", "#f38ba8", "#89dceb",
	"#1e1e2e", "#cdd6f4", "#45475a", "#6c7086", "#a6adc8",
)

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
