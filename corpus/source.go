package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/unicode/norm"
)

var (
	markdownExtensions = []string{".md", ".mdown", ".mkdn", ".mkd", ".markdown"}

	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	pdfMagic = []byte("%PDF-")
)

// Options configures how sources are turned into a corpus.
type Options struct {
	PDF PDFOptions

	// Cache, if set, keeps extracted PDF words between runs.
	Cache *Cache
}

// Open builds a corpus from the file at path. PDFs go through the PDF
// extractor; everything else is read as (possibly compressed) text.
func Open(ctx context.Context, path string, opts Options) (Corpus, error) {
	if IsPDF(path) {
		if opts.Cache != nil {
			return openCachedPDF(ctx, path, opts)
		}
		return OpenPDF(ctx, path, opts.PDF)
	}

	f, err := os.Open(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	c, err := Read(f, path)
	if err != nil {
		return Corpus{}, err
	}
	log.Debug("loaded text source", "path", path, "words", c.Len())
	return c, nil
}

// openCachedPDF serves a PDF's words from the cache, extracting and
// storing them on a miss. Cache failures only cost the extraction.
func openCachedPDF(ctx context.Context, path string, opts Options) (Corpus, error) {
	key, err := opts.Cache.Key(path, opts.PDF)
	if err != nil {
		return Corpus{}, fmt.Errorf("unable to open file: %w", err)
	}
	if words, ok := opts.Cache.Get(key); ok {
		log.Debug("loaded PDF from cache", "path", path, "words", len(words))
		return FromPDFWords(words), nil
	}

	c, err := OpenPDF(ctx, path, opts.PDF)
	if err != nil {
		return Corpus{}, err
	}
	if err := opts.Cache.Put(key, c.Words()); err != nil {
		log.Warn("unable to cache PDF words", "path", path, "error", err)
	}
	return c, nil
}

// Read builds a corpus from a text stream. The extension of name selects
// how the stream is decoded: .gz and .zst are decompressed first, markdown
// extensions are stripped down to their readable text, anything else is
// treated as plain text.
func Read(r io.Reader, name string) (Corpus, error) {
	ext := strings.ToLower(filepath.Ext(name))
	inner := strings.TrimSuffix(name, filepath.Ext(name))

	switch ext {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return Corpus{}, fmt.Errorf("unable to open gzip stream: %w", err)
		}
		defer zr.Close() //nolint:errcheck
		return Read(zr, inner)

	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return Corpus{}, fmt.Errorf("unable to open zstd stream: %w", err)
		}
		defer zr.Close()
		return Read(zr, inner)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return Corpus{}, fmt.Errorf("unable to read from reader: %w", err)
	}
	if bytes.HasPrefix(b, pdfMagic) {
		return Corpus{}, fmt.Errorf("%w: PDF data must be opened from a file path", ErrUnsupported)
	}
	if !utf8.Valid(b) {
		return Corpus{}, fmt.Errorf("%w: input is not UTF-8 text", ErrUnsupported)
	}

	text := normalize(b)
	if isMarkdown(name) {
		text, err = MarkdownText(text)
		if err != nil {
			return Corpus{}, err
		}
	}
	return FromText(text), nil
}

// IsPDF reports whether name looks like a PDF file.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, v := range markdownExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// normalize drops a leading byte order mark and converts the text to NFC so
// that precomposed and decomposed accents split into the same characters.
func normalize(b []byte) string {
	b = bytes.TrimPrefix(b, utf8BOM)
	return norm.NFC.String(string(b))
}
