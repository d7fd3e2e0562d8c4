package corpus

import (
	"reflect"
	"testing"
)

// TestFromText tests splitting pasted text into words.
func TestFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"surrounding whitespace", "  hello   world  ", []string{"hello", "world"}},
		{"tabs and newlines", "one\ttwo\n\nthree\r\nfour", []string{"one", "two", "three", "four"}},
		{"punctuation kept", "Wait, what?", []string{"Wait,", "what?"}},
		{"empty", "", []string{}},
		{"whitespace only", " \t\n ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromText(tt.text).Words()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FromText(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

// TestFromPDFWords tests trimming and dropping of extracted words.
func TestFromPDFWords(t *testing.T) {
	got := FromPDFWords([]string{"Hello ", " ", "world!"}).Words()
	want := []string{"Hello", "world!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromPDFWords = %q, want %q", got, want)
	}

	// Duplicates are kept, order is the extractor's.
	got = FromPDFWords([]string{"b", "a", "b", "\t", ""}).Words()
	want = []string{"b", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromPDFWords = %q, want %q", got, want)
	}

	if c := FromPDFWords(nil); !c.Empty() || c.Len() != 0 {
		t.Errorf("expected empty corpus, got %d words", c.Len())
	}
}

// TestCorpusIsImmutable tests that callers cannot mutate a corpus.
func TestCorpusIsImmutable(t *testing.T) {
	c := FromText("alpha beta")

	words := c.Words()
	words[0] = "changed"

	if c.Word(0) != "alpha" {
		t.Errorf("corpus was mutated through Words(): %q", c.Word(0))
	}
}

// TestBuildersArePure tests that the same input always yields the same corpus.
func TestBuildersArePure(t *testing.T) {
	text := "the quick  brown\tfox"
	if !reflect.DeepEqual(FromText(text).Words(), FromText(text).Words()) {
		t.Error("FromText is not deterministic")
	}

	raw := []string{" a", "b ", " "}
	if !reflect.DeepEqual(FromPDFWords(raw).Words(), FromPDFWords(raw).Words()) {
		t.Error("FromPDFWords is not deterministic")
	}
	if raw[0] != " a" {
		t.Error("FromPDFWords modified its input")
	}
}
