package rsvp

import "errors"

var (
	// ErrInvalidRate is returned when a non-positive rate is requested.
	ErrInvalidRate = errors.New("words per minute must be positive")

	// ErrAlreadyLoaded is returned by Load while a corpus is loaded. Clear
	// first.
	ErrAlreadyLoaded = errors.New("a corpus is already loaded")

	// ErrNoCorpus is returned by commands that need a loaded corpus.
	ErrNoCorpus = errors.New("no corpus loaded")

	// ErrFinished is returned by Play once every word has been shown.
	// Restart to read again.
	ErrFinished = errors.New("reached the end of the corpus")

	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("engine is closed")
)
