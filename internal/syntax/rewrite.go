package syntax

import (
	"context"
)

// ComputeFunc produces the replacement for a target. original is the node as
// it appears in the input tree, rewritten is the same node after replacements
// of its descendants were applied. Returning nil keeps rewritten.
type ComputeFunc func(original, rewritten *Node) *Node

// ReplaceNodes rebuilds tree once, replacing every target with the result of
// compute. Nodes are visited in post-order so nested targets are replaced
// before their ancestors. Subtrees without targets keep their identity.
// Targets that do not belong to tree are ignored.
//
// On cancellation the input root is returned together with ctx.Err().
func ReplaceNodes(ctx context.Context, tree *Tree, targets map[*Node]struct{}, compute ComputeFunc) (*Node, error) {
	root := tree.Root()
	if err := ctx.Err(); err != nil {
		return root, err
	}
	if len(targets) == 0 {
		return root, nil
	}

	// только цели и их предки требуют перестройки
	dirty := make(map[*Node]struct{}, len(targets)*4)
	for n := range targets {
		if !tree.Contains(n) {
			continue
		}
		for p := n; p != nil; p = tree.Parent(p) {
			if _, seen := dirty[p]; seen {
				break
			}
			dirty[p] = struct{}{}
		}
	}
	if len(dirty) == 0 {
		return root, nil
	}

	var rewrite func(n *Node) (*Node, error)
	rewrite = func(n *Node) (*Node, error) {
		if _, ok := dirty[n]; !ok {
			return n, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := n
		if !n.IsLeaf() {
			var next []*Node
			for i, c := range n.children {
				nc, err := rewrite(c)
				if err != nil {
					return nil, err
				}
				if nc != c && next == nil {
					next = make([]*Node, len(n.children))
					copy(next, n.children[:i])
				}
				if next != nil {
					next[i] = nc
				}
			}
			if next != nil {
				out = NewNode(n.kind, next...)
			}
		}
		if _, isTarget := targets[n]; isTarget {
			if repl := compute(n, out); repl != nil {
				out = repl
			}
		}
		return out, nil
	}

	res, err := rewrite(root)
	if err != nil {
		return root, err
	}
	return res, nil
}
