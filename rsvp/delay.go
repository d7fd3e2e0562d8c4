package rsvp

import (
	"math"
	"strings"
	"time"
)

// Pauses holds the delay multipliers applied to words that end a sentence
// or a clause.
type Pauses struct {
	Sentence float64 // word ends with '.', '!' or '?'
	Clause   float64 // word ends with ','
}

// DefaultPauses doubles the delay at sentence ends and adds 40% at commas.
var DefaultPauses = Pauses{Sentence: 2.0, Clause: 1.4}

// Multiplier returns the factor applied to word's base delay. Only one rule
// applies; sentence endings are checked first.
func (p Pauses) Multiplier(word string) float64 {
	switch {
	case strings.HasSuffix(word, "."), strings.HasSuffix(word, "!"), strings.HasSuffix(word, "?"):
		return p.Sentence
	case strings.HasSuffix(word, ","):
		return p.Clause
	default:
		return 1
	}
}

// Delay returns how long word stays on screen at wpm words per minute.
// It returns 0 for a non-positive rate.
func (p Pauses) Delay(word string, wpm int) time.Duration {
	if wpm <= 0 {
		return 0
	}
	base := time.Minute / time.Duration(wpm)
	m := p.Multiplier(word)
	if m == 1 {
		return base
	}
	return time.Duration(math.Round(float64(base) * m))
}

// Delay returns how long word stays on screen at wpm words per minute using
// DefaultPauses.
func Delay(word string, wpm int) time.Duration {
	return DefaultPauses.Delay(word, wpm)
}
