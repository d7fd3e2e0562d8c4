package corpus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"
	"golang.org/x/text/unicode/norm"
)

// Word is a single word extracted from a PDF, with the 1-indexed page it
// was found on.
type Word struct {
	Text string
	Page int
}

// PDFOptions configures PDF extraction.
type PDFOptions struct {
	// FirstPage and LastPage bound the pages to read (1-indexed,
	// inclusive). Zero means the first or last page of the document.
	FirstPage int
	LastPage  int

	// ExcludeHeadersFooters drops text that the extractor detects as
	// running headers or footers.
	ExcludeHeadersFooters bool
}

// ParsePageRange parses a page range such as "3", "3-10", "3-" or "-10".
// An empty string selects every page.
func ParsePageRange(s string) (first, last int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}

	lo, hi, isRange := strings.Cut(s, "-")
	if !isRange {
		hi = lo
	}
	if first, err = parsePage(lo); err != nil {
		return 0, 0, err
	}
	if last, err = parsePage(hi); err != nil {
		return 0, 0, err
	}
	if first > 0 && last > 0 && first > last {
		return 0, 0, fmt.Errorf("%w: %q ends before it starts", ErrPageRange, s)
	}
	return first, last, nil
}

func parsePage(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q is not a page number", ErrPageRange, s)
	}
	return n, nil
}

// bounds resolves the configured range against a document's page count.
func (o PDFOptions) bounds(pageCount int) (first, last int, err error) {
	first, last = o.FirstPage, o.LastPage
	if first == 0 {
		first = 1
	}
	if last == 0 || last > pageCount {
		last = pageCount
	}
	if pageCount > 0 && first > pageCount {
		return 0, 0, fmt.Errorf("%w: page %d of %d", ErrPageRange, first, pageCount)
	}
	return first, last, nil
}

// pdfPage is the positioned text of one page.
type pdfPage struct {
	index     int // 0-indexed
	width     float64
	height    float64
	fragments []text.TextFragment
}

// pageSource reads the pages of a PDF.
type pageSource interface {
	PageCount() (int, error)
	Page(index int) (pdfPage, error)
}

// readerPages reads pages through a tabula reader.
type readerPages struct {
	r *reader.Reader
}

func (p readerPages) PageCount() (int, error) {
	return p.r.PageCount() //nolint:wrapcheck
}

func (p readerPages) Page(index int) (pdfPage, error) {
	page, err := p.r.GetPage(index)
	if err != nil {
		return pdfPage{}, err //nolint:wrapcheck
	}
	fragments, err := p.r.ExtractTextFragments(page)
	if err != nil {
		return pdfPage{}, err //nolint:wrapcheck
	}
	width, _ := page.Width()
	height, _ := page.Height()
	return pdfPage{index: index, width: width, height: height, fragments: fragments}, nil
}

// ExtractPDF reads the words of a PDF in reading order. Pages are
// concatenated in page-number order.
func ExtractPDF(ctx context.Context, path string, opts PDFOptions) ([]Word, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open pdf: %w", err)
	}
	defer r.Close() //nolint:errcheck

	return extractWords(ctx, readerPages{r}, opts)
}

func extractWords(ctx context.Context, src pageSource, opts PDFOptions) ([]Word, error) {
	pageCount, err := src.PageCount()
	if err != nil {
		return nil, fmt.Errorf("unable to count pages: %w", err)
	}
	first, last, err := opts.bounds(pageCount)
	if err != nil {
		return nil, err
	}

	log.Debug("extracting pdf", "pages", pageCount, "first", first, "last", last,
		"exclude_headers_footers", opts.ExcludeHeadersFooters)

	// Headers and footers are found by comparing every page of the
	// document, so detection runs once up front. Pages in range are kept
	// to avoid reading them twice.
	var (
		headerFooter *layout.HeaderFooterResult
		read         = map[int]pdfPage{}
	)
	if opts.ExcludeHeadersFooters {
		all := make([]layout.PageFragments, 0, pageCount)
		for i := 0; i < pageCount; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := src.Page(i)
			if err != nil {
				log.Debug("skipping page in header detection", "page", i+1, "error", err)
				continue
			}
			if i >= first-1 && i < last {
				read[i] = p
			}
			all = append(all, layout.PageFragments{
				PageIndex:  p.index,
				PageHeight: p.height,
				PageWidth:  p.width,
				Fragments:  p.fragments,
			})
		}
		headerFooter = layout.NewHeaderFooterDetector().Detect(all)
		log.Debug("header/footer detection", "headers", len(headerFooter.Headers), "footers", len(headerFooter.Footers))
	}

	var words []Word
	for page := first; page <= last; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, ok := read[page-1]
		if !ok {
			if p, err = src.Page(page - 1); err != nil {
				return nil, fmt.Errorf("page %d: %w", page, err)
			}
		}
		delete(read, page-1)

		fragments := p.fragments
		if headerFooter != nil {
			fragments = headerFooter.FilterFragments(p.index, fragments, p.height)
		}

		for _, f := range strings.Fields(norm.NFC.String(pageText(fragments, p.width, p.height))) {
			words = append(words, Word{Text: f, Page: page})
		}
	}
	return words, nil
}

// pageText assembles fragments into text in reading order, following
// columns when the page has them.
func pageText(fragments []text.TextFragment, width, height float64) string {
	if len(fragments) == 0 {
		return ""
	}

	var lines []layout.Line
	if ro := layout.NewReadingOrderDetector().Detect(fragments, width, height); ro != nil {
		lines = ro.Lines
	}
	if len(lines) == 0 {
		lines = layout.NewLineDetector().Detect(fragments, width, height).Lines
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.TrimSpace(line.Text))
		b.WriteByte('\n')
	}
	return b.String()
}

// OpenPDF extracts the words of a PDF and builds a corpus from them.
func OpenPDF(ctx context.Context, path string, opts PDFOptions) (Corpus, error) {
	words, err := ExtractPDF(ctx, path, opts)
	if err != nil {
		return Corpus{}, err
	}
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	c := FromPDFWords(texts)
	log.Debug("loaded pdf source", "path", path, "words", c.Len())
	return c, nil
}
