package rules

import (
	"context"
	"strings"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/fix"
	"remedy/internal/syntax"
)

const RuleRedundantParens = "MA1119"

// kindUnwrapped groups the nodes left after removing a pair of parentheses.
const kindUnwrapped syntax.Kind = "unwrapped"

// MA1119: parentheses around a single identifier, literal or another
// parenthesized expression are removed. Nested pairs are removed in one pass.
func redundantParensRule() Rule {
	return Rule{
		ID:       RuleRedundantParens,
		Title:    "Remove redundant parentheses",
		Severity: diag.SevInfo,
		Detect:   detectRedundantParens,
		Provider: fix.NodeProvider[*parenContext](RuleRedundantParens, "Remove redundant parentheses", parenStrategy{}),
	}
}

type parenContext struct {
	caps syntax.Capabilities
	tree *syntax.Tree
	text string
}

type parenStrategy struct{}

func (parenStrategy) LocateTarget(f diag.Finding, tree *syntax.Tree) *syntax.Node {
	return fix.LocateBySpan(f, tree)
}

func (parenStrategy) CreateContext(ctx context.Context, doc *document.Document) (*parenContext, bool) {
	tree, caps, err := treeOf(ctx, doc)
	if err != nil || tree == nil || caps.ParenExpr == "" {
		return nil, false
	}
	return &parenContext{caps: caps, tree: tree, text: doc.Text()}, true
}

// ComputeReplacement unwraps target, which already holds the rewritten inner
// expression. A space is kept where removing a parenthesis would glue two
// words together.
func (parenStrategy) ComputeReplacement(f diag.Finding, target *syntax.Node, c *parenContext) *syntax.Node {
	if target.Kind() != c.caps.ParenExpr {
		return nil
	}
	inner := trimBlankNodes(parenInner(target))
	if len(inner) == 0 {
		return nil
	}

	var before, after bool
	if orig := c.tree.FindNodeOfKind(f.Span, c.caps.ParenExpr); orig != nil {
		if sp, ok := c.tree.Span(orig); ok {
			before = sp.Start > 0 && isWordByte(c.text[sp.Start-1])
			after = int(sp.End) < len(c.text) && isWordByte(c.text[sp.End])
		}
	}
	if len(inner) == 1 && !before && !after {
		return inner[0]
	}
	children := make([]*syntax.Node, 0, len(inner)+2)
	if before {
		children = append(children, syntax.Leaf(syntax.KindTrivia, " "))
	}
	children = append(children, inner...)
	if after {
		children = append(children, syntax.Leaf(syntax.KindTrivia, " "))
	}
	return syntax.NewNode(kindUnwrapped, children...)
}

// parenInner returns the children between the opening and closing parenthesis.
func parenInner(n *syntax.Node) []*syntax.Node {
	children := n.Children()
	if len(children) < 2 || children[0].Text() != "(" || children[len(children)-1].Text() != ")" {
		return nil
	}
	return children[1 : len(children)-1]
}

func trimBlankNodes(nodes []*syntax.Node) []*syntax.Node {
	for len(nodes) > 0 && strings.TrimSpace(nodes[0].Text()) == "" {
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && strings.TrimSpace(nodes[len(nodes)-1].Text()) == "" {
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

// isRedundantParen reports whether parentheses n wrap a single atom and are
// not the argument list of a call.
func isRedundantParen(tree *syntax.Tree, n *syntax.Node, caps syntax.Capabilities, text string) bool {
	inner := trimBlankNodes(parenInner(n))
	if len(inner) != 1 {
		return false
	}
	if !isAtom(inner[0], caps) {
		return false
	}
	sp, ok := tree.Span(n)
	if !ok {
		return false
	}
	if sp.Start == 0 {
		return true
	}
	// f(x) и g()(x) похожи на вызов
	prev := tree.LeafAt(sp.Start - 1)
	if prev == nil {
		return true
	}
	if caps.Identifier != "" && prev.Kind() == caps.Identifier {
		return false
	}
	last := text[sp.Start-1]
	return last != ')' && last != ']'
}

func isAtom(n *syntax.Node, caps syntax.Capabilities) bool {
	switch {
	case n.Kind() == caps.ParenExpr:
		return true
	case caps.Identifier != "" && n.Kind() == caps.Identifier:
		return true
	case n.IsLeaf():
		text := n.Text()
		if text == "" {
			return false
		}
		for i := 0; i < len(text); i++ {
			if !isWordByte(text[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func detectRedundantParens(ctx context.Context, doc *document.Document, r diag.Reporter) error {
	tree, caps, err := treeOf(ctx, doc)
	if err != nil || tree == nil || caps.ParenExpr == "" {
		return err
	}
	text := doc.Text()
	return tree.Walk(ctx, func(n *syntax.Node, _ int) bool {
		if n.Kind() == caps.Comment {
			return false
		}
		if n.Kind() != caps.ParenExpr || !isRedundantParen(tree, n, caps, text) {
			return true
		}
		sp, _ := tree.Span(n)
		diag.ReportInfo(r, RuleRedundantParens, doc.ID(), sp, "redundant parentheses").
			WithProperty(diag.PropAnchorKind, string(caps.ParenExpr)).
			Emit()
		return true
	})
}
