package rsvp

import "github.com/google/uuid"

// Status is the playback status of the engine.
type Status int

const (
	// StatusIdle indicates no corpus is loaded.
	StatusIdle Status = iota
	// StatusPaused indicates a corpus is loaded and playback is stopped.
	StatusPaused
	// StatusPlaying indicates words are being advanced.
	StatusPlaying
	// StatusFinished indicates every word has been shown. Playback is
	// stopped until Restart.
	StatusFinished
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPaused:
		return "paused"
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// IsLoaded returns true if a corpus is loaded.
func (s Status) IsLoaded() bool {
	return s != StatusIdle
}

// Frame is what the display shows: a word, its ORP split and how far
// through the corpus the reader is.
type Frame struct {
	Word     string
	Split    Split
	Index    int     // index of Word in the corpus
	Progress float64 // fraction of the corpus read, in [0, 1]
}

// Empty returns true if there is no word to display.
func (f Frame) Empty() bool {
	return f.Word == ""
}

// State is a snapshot of the engine.
type State struct {
	Status   Status
	Session  uuid.UUID // changes on every Load; uuid.Nil while idle
	Position int       // index of the next word to display
	Total    int       // number of words in the corpus
	WPM      int
	Frame    Frame
}

// Playing returns true while words are being advanced.
func (s State) Playing() bool {
	return s.Status == StatusPlaying
}

// Progress returns Position / Total, or 0 for an empty corpus.
func (s State) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Total)
}

// Remaining returns the number of words not yet displayed.
func (s State) Remaining() int {
	return s.Total - s.Position
}
