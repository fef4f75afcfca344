// Package treesitter adapts tree-sitter grammars to full-fidelity syntax trees.
package treesitter

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"remedy/internal/syntax"
)

// Well-known kinds of the Go grammar used by built-in rules.
const (
	KindComment    syntax.Kind = "comment"
	KindParenExpr  syntax.Kind = "parenthesized_expression"
	KindIdentifier syntax.Kind = "identifier"
	KindSourceFile syntax.Kind = "source_file"
)

// converterVersion bumps whenever the CST to syntax.Node mapping changes.
const converterVersion = 1

// Parser wraps one tree-sitter language. A fresh sitter.Parser is created per
// call, so a Parser may be shared between goroutines.
type Parser struct {
	name string
	lang *sitter.Language
	caps syntax.Capabilities
}

// NewGoParser returns a parser for Go sources.
func NewGoParser() *Parser {
	return newParser("go", golang.GetLanguage())
}

func newParser(name string, lang *sitter.Language) *Parser {
	return &Parser{
		name: name,
		lang: lang,
		caps: probe(name, lang),
	}
}

// probe reads the grammar symbol table once and binds the role kinds
// the grammar actually declares.
func probe(name string, lang *sitter.Language) syntax.Capabilities {
	count := lang.SymbolCount()
	declared := make([]syntax.Kind, 0, count)
	for i := uint32(0); i < count; i++ {
		sym := lang.SymbolName(sitter.Symbol(i))
		if sym == "" {
			continue
		}
		declared = append(declared, syntax.Kind(sym))
	}
	return syntax.NewCapabilities(name, converterVersion, declared).
		Bind(KindComment, KindParenExpr, KindIdentifier)
}

func (p *Parser) Name() string { return "tree-sitter/" + p.name }

func (p *Parser) Capabilities() syntax.Capabilities { return p.caps }

// Parse builds a syntax tree covering every byte of text. Bytes that the CST
// does not attribute to a child become trivia leaves.
func (p *Parser) Parse(ctx context.Context, text string) (*syntax.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := []byte(text)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("treesitter: parse %s: %w", p.name, err)
	}
	defer tree.Close()

	size, err := safecast.Conv[uint32](len(src))
	if err != nil {
		return nil, fmt.Errorf("treesitter: source too large: %w", err)
	}
	conv := converter{ctx: ctx, src: text}
	root := conv.node(tree.RootNode(), 0, size)
	if conv.err != nil {
		return nil, conv.err
	}

	// корень тянем до границ текста: tree-sitter не включает ведущие и хвостовые пробелы
	start, end := clampedBounds(tree.RootNode(), 0, size)
	var outer []*syntax.Node
	if start > 0 {
		outer = append(outer, syntax.Leaf(syntax.KindTrivia, text[:start]))
	}
	outer = append(outer, root)
	if int(end) < len(text) {
		outer = append(outer, syntax.Leaf(syntax.KindTrivia, text[end:]))
	}
	if len(outer) == 1 {
		return root, nil
	}
	return syntax.NewNode(root.Kind(), outer...), nil
}

type converter struct {
	ctx     context.Context
	src     string
	visited int
	err     error
}

func clampedBounds(n *sitter.Node, lo, hi uint32) (uint32, uint32) {
	start, end := n.StartByte(), n.EndByte()
	if start < lo {
		start = lo
	}
	if end > hi {
		end = hi
	}
	if end < start {
		end = start
	}
	return start, end
}

// node converts n into [lo, hi). lo is the first byte not yet claimed by a
// previous sibling, hi is the end of the parent.
func (c *converter) node(n *sitter.Node, lo, hi uint32) *syntax.Node {
	start, end := clampedBounds(n, lo, hi)
	kind := syntax.Kind(n.Type())

	c.visited++
	if c.visited%256 == 0 && c.err == nil {
		c.err = c.ctx.Err()
	}
	if c.err != nil {
		return syntax.Leaf(kind, "")
	}

	count := int(n.ChildCount())
	if count == 0 {
		return syntax.Leaf(kind, c.src[start:end])
	}

	children := make([]*syntax.Node, 0, count*2)
	off := start
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		cs, _ := clampedBounds(child, off, end)
		if cs > off {
			children = append(children, syntax.Leaf(syntax.KindTrivia, c.src[off:cs]))
		}
		conv := c.node(child, cs, end)
		children = append(children, conv)
		off = cs + conv.Width()
		if off > end {
			off = end
		}
	}
	if off < end {
		children = append(children, syntax.Leaf(syntax.KindTrivia, c.src[off:end]))
	}
	return syntax.NewNode(kind, children...)
}
