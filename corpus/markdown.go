package corpus

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New()

// MarkdownText returns the readable prose of a markdown document. Code
// blocks, raw HTML, images and bare URLs are dropped; link text is kept.
func MarkdownText(source string) (string, error) {
	src := []byte(source)
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock,
			*ast.RawHTML, *ast.Image, *ast.AutoLink:
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if entering {
				b.Write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					b.WriteByte(' ')
				}
			}

		case *ast.String:
			if entering {
				b.Write(n.Value)
			}

		default:
			// Keep words in neighbouring blocks apart.
			if !entering && n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown AST: %w", err)
	}
	return b.String(), nil
}
