package rsvp

import (
	"fmt"
	"sync"
)

// Default reading rates, in words per minute.
const (
	DefaultWPM     = 300
	DefaultMinWPM  = 50
	DefaultMaxWPM  = 1500
	DefaultWPMStep = 25
)

// Speed holds the live reading rate. It is safe for concurrent use.
type Speed struct {
	mu       sync.RWMutex
	wpm      int
	min, max int
	step     int
}

// NewSpeed creates a speed control starting at wpm. Faster and Slower move
// in increments of step within [minWPM, maxWPM]. Non-positive arguments fall back
// to the package defaults.
func NewSpeed(wpm, minWPM, maxWPM, step int) *Speed {
	if minWPM <= 0 {
		minWPM = DefaultMinWPM
	}
	if maxWPM <= 0 {
		maxWPM = DefaultMaxWPM
	}
	if maxWPM < minWPM {
		minWPM, maxWPM = maxWPM, minWPM
	}
	if step <= 0 {
		step = DefaultWPMStep
	}
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	return &Speed{wpm: wpm, min: minWPM, max: maxWPM, step: step}
}

// WPM returns the current rate.
func (s *Speed) WPM() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wpm
}

// Set changes the rate. Any positive value is accepted; anything else is
// rejected with ErrInvalidRate and the rate is left unchanged.
func (s *Speed) Set(wpm int) error {
	if wpm <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, wpm)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wpm = wpm
	return nil
}

// Faster raises the rate by one step, capped at the maximum, and returns
// the new rate. A rate already above the maximum is left alone.
func (s *Speed) Faster() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wpm = max(s.wpm, min(s.wpm+s.step, s.max))
	return s.wpm
}

// Slower lowers the rate by one step, floored at the minimum, and returns
// the new rate. A rate already below the minimum is left alone.
func (s *Speed) Slower() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wpm = min(s.wpm, max(s.wpm-s.step, s.min))
	return s.wpm
}

// IsAtMinimum returns true if Slower cannot lower the rate any further.
func (s *Speed) IsAtMinimum() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wpm <= s.min
}

// IsAtMaximum returns true if Faster cannot raise the rate any further.
func (s *Speed) IsAtMaximum() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wpm >= s.max
}

// String returns a human-readable rate, e.g. "300 wpm".
func (s *Speed) String() string {
	return fmt.Sprintf("%d wpm", s.WPM())
}
