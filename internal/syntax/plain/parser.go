// Package plain parses arbitrary text into a line oriented full-fidelity tree.
// It needs no grammar and is used for documents without a dedicated parser.
package plain

import (
	"context"

	"remedy/internal/syntax"
)

const (
	KindDocument syntax.Kind = "document"
	KindLine     syntax.Kind = "line"
	KindWord     syntax.Kind = "word"
	KindNumber   syntax.Kind = "number"
	KindSpace    syntax.Kind = "space"
	KindPunct    syntax.Kind = "punct"
	KindComment  syntax.Kind = "comment"
	KindParen    syntax.Kind = "paren"
	KindNewline  syntax.Kind = "newline"
)

// parserVersion bumps whenever the produced tree shape changes.
const parserVersion = 1

// Parser implements syntax.Parser for plain text.
// Comments start with "//" or "#" and run to the end of the line.
// Balanced parentheses on one line form a paren node.
type Parser struct {
	caps syntax.Capabilities
}

// New returns a plain text parser.
func New() *Parser {
	caps := syntax.NewCapabilities("plain", parserVersion, []syntax.Kind{
		KindDocument, KindLine, KindWord, KindNumber, KindSpace,
		KindPunct, KindComment, KindParen, KindNewline,
	}).Bind(KindComment, KindParen, KindWord)
	return &Parser{caps: caps}
}

func (p *Parser) Name() string { return "plain" }

func (p *Parser) Capabilities() syntax.Capabilities { return p.caps }

// Parse never fails on content; it only reports cancellation.
func (p *Parser) Parse(ctx context.Context, text string) (*syntax.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := newCursor(text)
	var lines []*syntax.Node
	for !c.eof() {
		if len(lines)%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lines = append(lines, scanLine(&c))
	}
	return syntax.NewNode(KindDocument, lines...), nil
}

func scanLine(c *cursor) *syntax.Node {
	items := scanItems(c, false)
	if c.peek() == '\n' {
		c.bump()
		items = append(items, syntax.Leaf(KindNewline, "\n"))
	}
	return syntax.NewNode(KindLine, items...)
}

// scanItems reads tokens up to the end of line. Inside parentheses it also
// stops before the closing ')'.
func scanItems(c *cursor, nested bool) []*syntax.Node {
	var items []*syntax.Node
	for !c.eof() {
		b := c.peek()
		if b == '\n' {
			return items
		}
		if nested && b == ')' {
			return items
		}
		start := c.off
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v':
			c.eatWhile(isSpace)
			items = append(items, syntax.Leaf(KindSpace, c.slice(start)))
		case isCommentStart(c):
			c.eatWhile(func(b byte) bool { return b != '\n' })
			items = append(items, syntax.Leaf(KindComment, c.slice(start)))
		case isDigit(b):
			c.eatWhile(isWordByte)
			items = append(items, syntax.Leaf(KindNumber, c.slice(start)))
		case isWordByte(b):
			c.eatWhile(isWordByte)
			items = append(items, syntax.Leaf(KindWord, c.slice(start)))
		case b == '(':
			items = append(items, scanParen(c))
		default:
			c.bump()
			items = append(items, syntax.Leaf(KindPunct, c.slice(start)))
		}
	}
	return items
}

// scanParen builds a paren node when the group closes on the same line,
// otherwise the '(' is plain punctuation and scanning resumes after it.
func scanParen(c *cursor) *syntax.Node {
	start := c.off
	c.bump()
	open := syntax.Leaf(KindPunct, "(")
	inner := scanItems(c, true)
	if c.peek() != ')' {
		// незакрытая скобка: откатываемся и считаем '(' пунктуацией
		c.off = start + 1
		return open
	}
	c.bump()
	children := make([]*syntax.Node, 0, len(inner)+2)
	children = append(children, open)
	children = append(children, inner...)
	children = append(children, syntax.Leaf(KindPunct, ")"))
	return syntax.NewNode(KindParen, children...)
}

func isCommentStart(c *cursor) bool {
	if c.peek() == '#' {
		return true
	}
	b0, b1, ok := c.peek2()
	return ok && b0 == '/' && b1 == '/'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// isWordByte treats every non-ASCII byte as part of a word so multi-byte
// runes are never split.
func isWordByte(b byte) bool {
	return b == '_' || isDigit(b) || (b|0x20 >= 'a' && b|0x20 <= 'z') || b >= 0x80
}
