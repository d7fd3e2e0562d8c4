package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/glimpse/rsvp"
	runewidth "github.com/mattn/go-runewidth"
)

// wordStyles holds the styles used to draw a word around its pivot.
type wordStyles struct {
	text  lipgloss.Style
	pivot lipgloss.Style
}

func newWordStyles(pivotColor string, dim bool) wordStyles {
	text := lipgloss.NewStyle().Foreground(wordFg)
	pivot := lipgloss.NewStyle().Foreground(lipgloss.Color(pivotColor)).Bold(true)
	if dim {
		text = text.Foreground(dimFg)
		pivot = pivot.Faint(true)
	}
	return wordStyles{text: text, pivot: pivot}
}

// pivotColumn is the screen column every pivot letter is drawn in.
func pivotColumn(width int) int {
	return width / 2
}

// pivotOffset returns how many spaces go before prefix so that the pivot
// lands on the pivot column.
func pivotOffset(prefix string, width int) int {
	off := pivotColumn(width) - runewidth.StringWidth(prefix)
	if off < 0 {
		return 0
	}
	return off
}

// renderWord draws a word with its pivot letter fixed on the centre column,
// so the eye never has to move between words.
func renderWord(s rsvp.Split, width int, st wordStyles) string {
	if s.Pivot == "" {
		return ""
	}
	pad := strings.Repeat(" ", pivotOffset(s.Prefix, width))
	return pad + st.text.Render(s.Prefix) + st.pivot.Render(s.Pivot) + st.text.Render(s.Suffix)
}

// renderMarker draws the fixation tick shown above and below the pivot.
func renderMarker(width int, glyph string) string {
	return strings.Repeat(" ", pivotColumn(width)) + markerStyle(glyph)
}
