package rsvp

import tea "github.com/charmbracelet/bubbletea"

// Messages for Bubble Tea communication between the engine and the UI.

// StateMsg carries an engine state change.
type StateMsg struct {
	State
}

// ClosedMsg indicates the engine's update channel was closed.
type ClosedMsg struct{}

// WaitForState returns a command that blocks until the next state arrives
// on ch. Re-issue it after handling each StateMsg to keep listening.
func WaitForState(ch <-chan State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return ClosedMsg{}
		}
		return StateMsg{State: s}
	}
}
