package tui

import (
	"log/slog"
	"time"

	"github.com/Veraticus/frame-labeler/internal/display"
	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/Veraticus/frame-labeler/internal/render"
	"github.com/Veraticus/frame-labeler/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SessionView is the read side of a classification session.
type SessionView interface {
	Snapshot() engine.SessionSnapshot
}

// Model holds the main TUI state. Every tick it samples the session,
// lets the throttle decide what text to show and repaints the canvas.
type Model struct {
	startTime time.Time
	lastTick  time.Time
	session   SessionView
	throttle  *display.Throttle
	renderer  *render.FrameRenderer
	canvas    *render.Canvas
	theme     themes.Theme
	keymap    KeyMap
	help      help.Model
	spinner   spinner.Model
	bar       progress.Model
	snapshot  engine.SessionSnapshot
	config    Config
	refreshes int
	width     int
	height    int
	showStats bool
	quitting  bool
}

// newModel creates a new model with the given configuration.
func newModel(session SessionView, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = cfg.Theme.StatusInfo

	bar := progress.New(
		progress.WithGradient(string(cfg.Theme.Secondary), string(cfg.Theme.Primary)),
		progress.WithoutPercentage(),
		progress.WithWidth(20),
	)

	h := help.New()
	h.ShowAll = false

	m := Model{
		session:   session,
		throttle:  display.NewThrottle(cfg.Display),
		renderer:  render.NewFrameRenderer(cfg.Render),
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      h,
		spinner:   sp,
		bar:       bar,
		config:    cfg,
		showStats: cfg.ShowStats,
		startTime: time.Now(),
		width:     cfg.Width,
		height:    cfg.Height,
	}
	m.resize()
	return m
}

// Init starts the rendering tick and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tick(m.config.TickInterval),
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.draw()
		return m, nil

	case tickMsg:
		m.refresh(time.Time(msg))
		return m, tick(m.config.TickInterval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit), key.Matches(msg, m.keymap.ForceQuit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Mirror):
		m.renderer.SetMirror(!m.renderer.Mirror())
		m.draw()
	case key.Matches(msg, m.keymap.ToggleStats):
		m.showStats = !m.showStats
		m.resize()
		m.draw()
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		m.draw()
	case key.Matches(msg, m.keymap.ClearScreen):
		return m, tea.ClearScreen
	}
	return m, nil
}

// refresh runs one rendering tick at now.
func (m *Model) refresh(now time.Time) {
	m.lastTick = now
	m.snapshot = m.session.Snapshot()

	if m.throttle.Tick(now, m.snapshot) {
		m.refreshes++
		state := m.throttle.State()
		slog.Debug("Display refreshed",
			"status", state.Status.String(),
			"session_state", m.snapshot.State.String(),
			"result_seq", m.snapshot.Results.Seq)
	}

	m.draw()
}

func (m *Model) draw() {
	m.renderer.Render(m.canvas, m.snapshot.Frame, m.snapshot.HasFrame, m.throttle.State())
}

// resize recomputes the canvas to fill what the header, panel and help
// line leave free.
func (m *Model) resize() {
	m.help.Width = m.width
	m.bar.Width = max(10, min(30, m.width/4))

	w, h := m.canvasSize()
	if m.canvas != nil && m.canvas.Width() == w && m.canvas.Height() == h {
		return
	}
	m.canvas = render.NewCanvas(w, h)
}

func (m Model) canvasSize() (int, int) {
	h := m.height - headerHeight - m.panelHeight() - m.helpHeight()
	return max(0, m.width), max(0, h)
}

// Quitting reports whether the user asked to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

// Display returns what the throttle currently shows.
func (m Model) Display() display.State {
	return m.throttle.State()
}
