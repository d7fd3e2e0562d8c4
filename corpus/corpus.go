// Package corpus turns raw text into an ordered sequence of words ready for
// rapid serial presentation.
package corpus

import "strings"

// Corpus is an ordered, immutable sequence of non-empty words. Insertion
// order is reading order. The zero value is an empty corpus.
type Corpus struct {
	words []string
}

// FromPDFWords builds a corpus from words produced by a PDF extractor. Each
// word is trimmed and words that end up empty are dropped. Order is kept
// as is: the extractor's reading order is authoritative.
func FromPDFWords(words []string) Corpus {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		out = append(out, w)
	}
	return Corpus{words: out}
}

// FromText builds a corpus from pasted text by splitting it on runs of
// whitespace.
func FromText(text string) Corpus {
	return Corpus{words: strings.Fields(text)}
}

// Len returns the number of words.
func (c Corpus) Len() int {
	return len(c.words)
}

// Empty reports whether the corpus holds no words.
func (c Corpus) Empty() bool {
	return len(c.words) == 0
}

// Word returns the word at index i. It panics if i is out of range.
func (c Corpus) Word(i int) string {
	return c.words[i]
}

// Words returns a copy of the words.
func (c Corpus) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}
