package main

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dgnsrekt/glimpse/corpus"
	"github.com/dgnsrekt/glimpse/rsvp"
	"github.com/spf13/cobra"
)

var wordsJSON bool

var wordsCmd = &cobra.Command{
	Use:   "words SOURCE",
	Short: "Print the words of a source with their pivots and delays",
	Long: paragraph(fmt.Sprintf("\n%s the words glimpse would show for SOURCE, one per line, "+
		"with the pivot letter in brackets and how long the word stays on screen.", keyword("Print"))),
	Example: paragraph("glimpse words book.pdf --pages 1-2\nglimpse words notes.md --json"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sourceFromArg(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if wc := openWordCache(); wc != nil {
			sourceOptions.Cache = wc
			defer wc.Close() //nolint:errcheck
		}

		c, err := readSource(cmd.Context(), src)
		if err != nil {
			return err
		}
		return printWords(cmd.OutOrStdout(), c, engineConfig, wordsJSON)
	},
}

func init() {
	wordsCmd.Flags().BoolVar(&wordsJSON, "json", false, "print words as a JSON array")
}

// wordEntry is one word as the reader would show it.
type wordEntry struct {
	Index   int    `json:"index"`
	Word    string `json:"word"`
	Prefix  string `json:"prefix"`
	Pivot   string `json:"pivot"`
	Suffix  string `json:"suffix"`
	DelayMS int64  `json:"delay_ms"`
}

func wordEntries(c corpus.Corpus, cfg rsvp.Config) []wordEntry {
	entries := make([]wordEntry, 0, c.Len())
	for i, w := range c.Words() {
		s := rsvp.ORP(w)
		entries = append(entries, wordEntry{
			Index:   i,
			Word:    w,
			Prefix:  s.Prefix,
			Pivot:   s.Pivot,
			Suffix:  s.Suffix,
			DelayMS: cfg.Pauses.Delay(w, cfg.WPM).Milliseconds(),
		})
	}
	return entries
}

func printWords(w io.Writer, c corpus.Corpus, cfg rsvp.Config, asJSON bool) error {
	entries := wordEntries(c, cfg)

	if asJSON {
		b, err := sonic.Marshal(entries)
		if err != nil {
			return fmt.Errorf("unable to encode words: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
		return nil
	}

	for _, e := range entries {
		delay := time.Duration(e.DelayMS) * time.Millisecond
		if _, err := fmt.Fprintf(w, "%6d  %s[%s]%s  %v\n", e.Index+1, e.Prefix, e.Pivot, e.Suffix, delay); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}
