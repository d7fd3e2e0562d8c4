package ui

import (
	"github.com/charmbracelet/lipgloss"
	te "github.com/muesli/termenv"
)

var (
	fuchsia   = lipgloss.Color("#EE6FF8")
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	wordFg   = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"}
	dimFg    = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	markerFg = lipgloss.AdaptiveColor{Light: "#C2B8C2", Dark: "#4D4D4D"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(fuchsia).
			Padding(0, 1)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarStateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(fuchsia).
				Padding(0, 1).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(red).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Padding(0, 2).
			Render

	markerStyle = lipgloss.NewStyle().Foreground(markerFg).Render
)

// defaultPivotColor picks a pivot colour that reads well on the terminal's
// background.
func defaultPivotColor() string {
	if te.HasDarkBackground() {
		return "#FF5F5F"
	}
	return "#D7005F"
}
