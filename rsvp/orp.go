package rsvp

import "github.com/rivo/uniseg"

// Split is a word divided around its optimal recognition point. Prefix,
// Pivot and Suffix concatenate back to the original word.
type Split struct {
	Prefix string
	Pivot  string
	Suffix string
}

// String returns the original word.
func (s Split) String() string {
	return s.Prefix + s.Pivot + s.Suffix
}

// PivotIndex returns the 0-based character index of the pivot for a word of
// the given length in characters.
func PivotIndex(length int) int {
	switch {
	case length <= 1:
		return 0
	case length <= 5:
		return 1
	case length <= 9:
		return 2
	default:
		return 3
	}
}

// ORP splits word around its optimal recognition point. Characters are
// grapheme clusters, so the pivot is always one user-perceived character.
// An empty word yields an empty Split.
func ORP(word string) Split {
	chars := characters(word)
	if len(chars) == 0 {
		return Split{}
	}

	p := PivotIndex(len(chars))
	var s Split
	for i, c := range chars {
		switch {
		case i < p:
			s.Prefix += c
		case i == p:
			s.Pivot = c
		default:
			s.Suffix += c
		}
	}
	return s
}

func characters(word string) []string {
	var chars []string
	g := uniseg.NewGraphemes(word)
	for g.Next() {
		chars = append(chars, g.Str())
	}
	return chars
}
