package ui

import (
	"github.com/dgnsrekt/glimpse/corpus"
)

// Config contains TUI-specific configuration.
type Config struct {
	// Source file the corpus is read from. Empty starts on the paste
	// screen.
	Path string

	// Start playing as soon as a corpus is loaded.
	Autoplay bool

	// How sources are turned into a corpus.
	Source corpus.Options

	// Pivot letter colour. Empty picks one that suits the terminal
	// background.
	PivotColor string `env:"GLIMPSE_PIVOT_COLOR"`

	// For debugging the UI
	WatchSource bool `env:"GLIMPSE_WATCH_SOURCE" envDefault:"true"`
	AltScreen   bool `env:"GLIMPSE_ALT_SCREEN"   envDefault:"true"`
}
