package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/frame-labeler/internal/display"
	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	headerHeight = 1
	labelWidth   = 16
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	parts := []string{m.renderHeader()}
	if m.canvas.Height() > 0 {
		parts = append(parts, m.canvas.String())
	}
	if m.showStats {
		parts = append(parts, m.renderPanel())
	}
	if m.config.ShowHelp {
		parts = append(parts, m.help.View(m.keymap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) panelHeight() int {
	if !m.showStats {
		return 0
	}
	return m.slotCount() + 1
}

func (m Model) helpHeight() int {
	switch {
	case !m.config.ShowHelp:
		return 0
	case m.help.ShowAll:
		return 2
	default:
		return 1
	}
}

func (m Model) slotCount() int {
	if n := len(m.throttle.State().Slots); n > 0 {
		return n
	}
	return 1
}

// renderHeader shows the title, the session state and the model name.
func (m Model) renderHeader() string {
	left := m.theme.Title.Render("frame-labeler") + "  " + m.renderState()

	var right string
	if name := m.snapshot.Model.Name; name != "" {
		right = m.theme.Subtitle.Render(fmt.Sprintf("%s · %d labels", name, len(m.snapshot.Model.Labels)))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if right == "" || gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderState() string {
	snap := m.snapshot
	switch snap.State {
	case engine.StateLoading:
		what := "loading model"
		if snap.ModelReady {
			what = "opening camera"
		}
		return m.spinner.View() + " " + m.theme.StatusPending.Render(what)
	case engine.StateWaitingFirst:
		return m.spinner.View() + " " + m.theme.StatusPending.Render("waiting for first result")
	case engine.StateClassifying:
		return m.theme.StatusSuccess.Render("● classifying")
	case engine.StateError:
		return m.theme.StatusWarning.Render("● retrying")
	case engine.StateFailed:
		msg := "startup failed"
		if snap.StartupErr != nil {
			msg = snap.StartupErr.Error()
		}
		return m.theme.StatusError.Render("✗ " + msg)
	default:
		return m.theme.StatusPending.Render(snap.State.String())
	}
}

// renderPanel lists the displayed slots with confidence bars, followed by
// the loop counters.
func (m Model) renderPanel() string {
	state := m.throttle.State()
	lines := make([]string, 0, len(state.Slots)+1)

	for i, slot := range state.Slots {
		lines = append(lines, m.renderSlot(i, slot, state.Status))
	}
	if len(state.Slots) == 0 {
		lines = append(lines, "")
	}

	lines = append(lines, m.renderCounters())
	return strings.Join(lines, "\n")
}

func (m Model) renderSlot(i int, slot display.Slot, status display.Status) string {
	if slot.Empty() {
		return ""
	}

	if status != display.StatusLabels && i == 0 {
		style := m.theme.StatusPending
		switch status {
		case display.StatusError, display.StatusStartupFailed:
			style = m.theme.StatusError
		case display.StatusNoTarget:
			style = m.theme.StatusWarning
		}
		return style.Render(slot.Label)
	}

	label := runewidth.FillRight(runewidth.Truncate(slot.Label, labelWidth, "…"), labelWidth)
	return fmt.Sprintf("%s %s %s",
		m.theme.Normal.Render(label),
		m.bar.ViewAs(slot.Confidence),
		m.theme.Bold.Render(slot.ConfidenceText))
}

func (m Model) renderCounters() string {
	stats := m.snapshot.Stats
	parts := []string{
		fmt.Sprintf("requests %d", stats.Requests),
		fmt.Sprintf("ok %d", stats.Successes),
		fmt.Sprintf("failed %d", stats.Failures),
		fmt.Sprintf("malformed %d", stats.Malformed),
		fmt.Sprintf("refreshes %d", m.refreshes),
	}
	if m.snapshot.HasFrame {
		parts = append(parts, fmt.Sprintf("frame #%d %s", m.snapshot.Frame.Seq, m.snapshot.Frame.Resolution()))
	}
	if !m.lastTick.IsZero() {
		parts = append(parts, "up "+m.lastTick.Sub(m.startTime).Truncate(time.Second).String())
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(parts, " · "))
}
