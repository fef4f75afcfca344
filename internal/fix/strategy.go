package fix

import (
	"context"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/syntax"
)

// NodeStrategy fixes findings by replacing syntax nodes.
//
// LocateTarget returns the node a finding refers to, or nil when the finding
// no longer maps onto the tree. CreateContext is called once per document and
// batch; returning false skips every finding of the batch. ComputeReplacement
// receives the target after nested replacements were applied and returns the
// node to put in its place, or nil to leave it as is.
type NodeStrategy[C any] interface {
	LocateTarget(f diag.Finding, tree *syntax.Tree) *syntax.Node
	CreateContext(ctx context.Context, doc *document.Document) (C, bool)
	ComputeReplacement(f diag.Finding, target *syntax.Node, c C) *syntax.Node
}

// TextStrategy fixes findings with raw text edits. ComputeEdit returning false
// means the finding cannot be fixed in this text.
type TextStrategy[C any] interface {
	CreateContext(ctx context.Context, doc *document.Document) (C, bool)
	ComputeEdit(f diag.Finding, text string, c C) (TextEdit, bool)
}

// None is the context of strategies that need nothing from the document.
type None struct{}

// Stateless provides CreateContext for strategies without a context.
// Embed it to satisfy the interface with C = None.
type Stateless struct{}

func (Stateless) CreateContext(context.Context, *document.Document) (None, bool) {
	return None{}, true
}

// NodeFuncs adapts plain functions to NodeStrategy. A nil Context behaves
// like Stateless with the zero C.
type NodeFuncs[C any] struct {
	Locate  func(f diag.Finding, tree *syntax.Tree) *syntax.Node
	Context func(ctx context.Context, doc *document.Document) (C, bool)
	Replace func(f diag.Finding, target *syntax.Node, c C) *syntax.Node
}

func (s NodeFuncs[C]) LocateTarget(f diag.Finding, tree *syntax.Tree) *syntax.Node {
	if s.Locate == nil {
		return LocateBySpan(f, tree)
	}
	return s.Locate(f, tree)
}

func (s NodeFuncs[C]) CreateContext(ctx context.Context, doc *document.Document) (C, bool) {
	if s.Context == nil {
		var zero C
		return zero, true
	}
	return s.Context(ctx, doc)
}

func (s NodeFuncs[C]) ComputeReplacement(f diag.Finding, target *syntax.Node, c C) *syntax.Node {
	if s.Replace == nil {
		return nil
	}
	return s.Replace(f, target, c)
}

// TextFuncs adapts plain functions to TextStrategy.
type TextFuncs[C any] struct {
	Context func(ctx context.Context, doc *document.Document) (C, bool)
	Edit    func(f diag.Finding, text string, c C) (TextEdit, bool)
}

func (s TextFuncs[C]) CreateContext(ctx context.Context, doc *document.Document) (C, bool) {
	if s.Context == nil {
		var zero C
		return zero, true
	}
	return s.Context(ctx, doc)
}

func (s TextFuncs[C]) ComputeEdit(f diag.Finding, text string, c C) (TextEdit, bool) {
	if s.Edit == nil {
		return TextEdit{}, false
	}
	return s.Edit(f, text, c)
}

// LocateBySpan is the default locator: the innermost node covering the
// finding span, or the innermost node of the kind named by the anchorKind
// property when present.
func LocateBySpan(f diag.Finding, tree *syntax.Tree) *syntax.Node {
	if kind, ok := f.Property(diag.PropAnchorKind); ok && kind != "" {
		return tree.FindNodeOfKind(f.Span, syntax.Kind(kind))
	}
	return tree.FindNode(f.Span)
}

// ReplacementEdit is the default text computation: replace the finding span
// with the replacement property, guarded by the expect property.
func ReplacementEdit(f diag.Finding, text string) (TextEdit, bool) {
	repl, ok := f.Property(diag.PropReplacement)
	if !ok || !f.Span.Within(len(text)) {
		return TextEdit{}, false
	}
	expect, _ := f.Property(diag.PropExpect)
	return Replace(f.Span, repl, expect), true
}
