// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program around the playback controller
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pulsemon/pulsemon-go/internal/playback"
)

// Run starts the monitor TUI and blocks until the user quits. clicker
// may be nil to run silent.
func Run(ctrl *playback.Controller, clicker Clicker) error {
	p := tea.NewProgram(NewModel(ctrl, clicker), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
