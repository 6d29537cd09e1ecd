package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// New builds the TUI model for session.
func New(session SessionView, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(session, cfg)
}

// Run shows session in the terminal until the user quits or ctx is
// canceled. The session itself is owned by the caller.
func Run(ctx context.Context, session SessionView, opts ...Option) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}

	p := tea.NewProgram(New(session, opts...),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
