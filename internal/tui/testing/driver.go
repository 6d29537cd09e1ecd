package testing

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Driver feeds messages to a Bubble Tea model without a terminal and keeps
// the last rendered view.
type Driver struct {
	Model   tea.Model
	Output  string
	Updates int
}

// NewDriver wraps model and renders it once.
func NewDriver(model tea.Model) *Driver {
	return &Driver{Model: model, Output: model.View()}
}

// Send delivers msg, re-renders and returns the resulting command.
func (d *Driver) Send(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.Updates++
	d.Output = d.Model.View()
	return cmd
}

// Plain returns the last view without ANSI escapes.
func (d *Driver) Plain() string {
	return StripANSI(d.Output)
}

// KeyPress creates a key press message for a printable key.
func KeyPress(key string) tea.KeyMsg {
	return tea.KeyMsg{
		Type:  tea.KeyRunes,
		Runes: []rune(key),
	}
}

// KeyEsc creates an escape key message.
func KeyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

// KeyCtrlC creates a ctrl+c key message.
func KeyCtrlC() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyCtrlC}
}
