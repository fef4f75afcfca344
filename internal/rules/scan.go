package rules

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"remedy/internal/document"
	"remedy/internal/source"
	"remedy/internal/syntax"
)

// offset converts a byte index of a document into a span coordinate.
func offset(i int) uint32 {
	off, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return off
}

func span(start, end int) source.Span {
	return source.Span{Start: offset(start), End: offset(end)}
}

// eachLine calls fn with the start offset and content of every line, without
// the trailing '\n'.
func eachLine(text string, fn func(start int, line string)) {
	for start := 0; start < len(text); {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			fn(start, text[start:])
			return
		}
		fn(start, text[start:start+end])
		start += end + 1
	}
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f' || b == '\v'
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b|0x20 >= 'a' && b|0x20 <= 'z') || b >= 0x80
}

// treeOf returns the tree of doc, or nil when the document has no parser.
func treeOf(ctx context.Context, doc *document.Document) (*syntax.Tree, syntax.Capabilities, error) {
	p := doc.Parser()
	if p == nil {
		return nil, syntax.Capabilities{}, nil
	}
	tree, err := doc.Tree(ctx)
	if err != nil {
		return nil, syntax.Capabilities{}, err
	}
	return tree, p.Capabilities(), nil
}

// comment is a single-line comment found in a tree.
type comment struct {
	span   source.Span
	marker string
	body   string // text after the marker
}

// lineComments lists the "//" and "#" comments of doc. Block comments and
// documents without a comment-aware parser yield nothing.
func lineComments(ctx context.Context, doc *document.Document) ([]comment, syntax.Kind, error) {
	tree, caps, err := treeOf(ctx, doc)
	if err != nil || tree == nil || caps.Comment == "" {
		return nil, "", err
	}
	var out []comment
	err = tree.Walk(ctx, func(n *syntax.Node, _ int) bool {
		if n.Kind() != caps.Comment {
			return true
		}
		sp, ok := tree.Span(n)
		if !ok {
			return false
		}
		text := n.Text()
		if marker := commentMarker(text); marker != "" {
			out = append(out, comment{span: sp, marker: marker, body: text[len(marker):]})
		}
		return false
	})
	if err != nil {
		return nil, "", err
	}
	return out, caps.Comment, nil
}

func commentMarker(text string) string {
	switch {
	case strings.HasPrefix(text, "//"):
		return "//"
	case strings.HasPrefix(text, "#"):
		return "#"
	}
	return ""
}

// hasAncestorKind reports whether some ancestor of n has a kind containing
// one of the fragments.
func hasAncestorKind(tree *syntax.Tree, n *syntax.Node, fragments ...string) bool {
	for _, a := range tree.Ancestors(n) {
		k := string(a.Kind())
		for _, frag := range fragments {
			if strings.Contains(k, frag) {
				return true
			}
		}
	}
	return false
}
