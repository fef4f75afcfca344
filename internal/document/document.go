// Package document holds immutable document snapshots: text, an identity and a
// lazily derived syntax tree.
package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"remedy/internal/source"
	"remedy/internal/syntax"
)

// ErrNoParser is returned by Tree when the document has no parser attached.
var ErrNoParser = errors.New("document: no parser")

// Document is an immutable snapshot. Text never changes; every fix produces a
// new Document with a higher version. The tree is derived on demand and cached
// after the first successful parse.
type Document struct {
	id      source.DocumentID
	version uint32
	text    string
	digest  source.Digest
	parser  syntax.Parser

	mu   sync.Mutex
	tree *syntax.Tree
}

// New creates version 0 of a document.
func New(id source.DocumentID, text string, parser syntax.Parser) *Document {
	return &Document{
		id:     id,
		text:   text,
		digest: source.Sum(text),
		parser: parser,
	}
}

// NewFromRoot creates a document whose text is rendered from root.
func NewFromRoot(id source.DocumentID, root *syntax.Node, parser syntax.Parser) *Document {
	d := New(id, root.Text(), parser)
	d.tree = syntax.NewTree(root)
	return d
}

func (d *Document) ID() source.DocumentID { return d.id }

func (d *Document) Version() uint32 { return d.version }

func (d *Document) Text() string { return d.text }

func (d *Document) Digest() source.Digest { return d.digest }

func (d *Document) Parser() syntax.Parser { return d.parser }

// Len returns the text length in bytes.
func (d *Document) Len() int { return len(d.text) }

// HasTree reports whether the tree was already derived.
func (d *Document) HasTree() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tree != nil
}

// Tree returns the syntax tree, parsing the text on first use.
// A failed or cancelled parse is not cached.
func (d *Document) Tree(ctx context.Context) (*syntax.Tree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree != nil {
		return d.tree, nil
	}
	if d.parser == nil {
		return nil, ErrNoParser
	}
	root, err := d.parser.Parse(ctx, d.text)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", d.id, err)
	}
	d.tree = syntax.NewTree(root)
	return d.tree, nil
}

// WithText returns the next version holding text. The tree is not carried over
// and will be re-derived lazily if somebody asks for it.
func (d *Document) WithText(text string) *Document {
	next := New(d.id, text, d.parser)
	next.version = d.version + 1
	return next
}

// WithRoot returns the next version built from a rewritten tree.
func (d *Document) WithRoot(root *syntax.Node) *Document {
	next := NewFromRoot(d.id, root, d.parser)
	next.version = d.version + 1
	return next
}

func (d *Document) String() string {
	return fmt.Sprintf("%s@v%d", d.id, d.version)
}
