package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/glimpse/rsvp"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

const ellipsis = "…"

// statusIcon returns an icon for the engine status.
func statusIcon(s rsvp.Status) string {
	switch s {
	case rsvp.StatusPlaying:
		return "▶"
	case rsvp.StatusPaused:
		return "⏸"
	case rsvp.StatusFinished:
		return "■"
	default:
		return "○"
	}
}

// positionText returns e.g. "word 1,204 of 15,880".
func positionText(s rsvp.State) string {
	current := s.Position
	if !s.Frame.Empty() {
		current = s.Frame.Index + 1
	}
	return fmt.Sprintf("word %s of %s",
		humanize.Comma(int64(current)),
		humanize.Comma(int64(s.Total)),
	)
}

// remainingTime estimates how long the unread words take at the current
// rate, ignoring punctuation pauses.
func remainingTime(s rsvp.State) time.Duration {
	if s.WPM <= 0 {
		return 0
	}
	return time.Duration(s.Remaining()) * time.Minute / time.Duration(s.WPM)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

type statusMessage struct {
	text    string
	isError bool
}

// renderStatusBar draws the bottom bar of the reader screen.
func renderStatusBar(s rsvp.State, msg *statusMessage, width int) string {
	state := statusBarStateStyle(statusIcon(s.Status) + " " + s.Status.String())

	right := statusBarNoteStyle(fmt.Sprintf(" %d wpm · %s left ",
		s.WPM, formatDuration(remainingTime(s))))

	note := " " + positionText(s) + " "
	if msg != nil {
		note = " " + msg.text + " "
	}

	// Truncate the note to whatever room is left.
	room := max(0, width-lipgloss.Width(state)-lipgloss.Width(right))
	note = truncate.StringWithTail(note, uint(room), ellipsis) //nolint:gosec

	switch {
	case msg != nil && msg.isError:
		note = statusBarErrorStyle(note)
	case msg != nil:
		note = statusBarMessageStyle(note)
	default:
		note = statusBarNoteStyle(note)
	}

	padding := max(0, width-lipgloss.Width(state)-lipgloss.Width(note)-lipgloss.Width(right))
	emptySpace := statusBarNoteStyle(strings.Repeat(" ", padding))

	return state + note + emptySpace + right
}
