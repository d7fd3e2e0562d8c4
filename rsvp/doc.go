// Package rsvp implements rapid serial visual presentation: it splits words
// around their optimal recognition point, derives a per-word delay from a
// words-per-minute rate, and runs a playback engine that advances through a
// corpus one word at a time.
package rsvp
