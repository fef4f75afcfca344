package syntax

import (
	"context"
	"slices"
	"sync"

	"remedy/internal/source"
)

// ctxCheckEvery controls how often Walk polls the context.
const ctxCheckEvery = 256

type position struct {
	start  uint32
	parent *Node
	depth  int
}

// Tree adds positions and parent links to a root node.
// The index is built once, on first use, and is safe for concurrent readers.
// When the same *Node occurs twice under root, the first occurrence wins.
type Tree struct {
	root  *Node
	once  sync.Once
	index map[*Node]position
}

// NewTree wraps root. The root must not be nil.
func NewTree(root *Node) *Tree {
	if root == nil {
		root = NewNode("")
	}
	return &Tree{root: root}
}

func (t *Tree) Root() *Node {
	return t.root
}

// Text renders the whole tree.
func (t *Tree) Text() string {
	return t.root.Text()
}

func (t *Tree) build() {
	t.once.Do(func() {
		t.index = make(map[*Node]position)
		type frame struct {
			n      *Node
			parent *Node
			start  uint32
			depth  int
		}
		stack := []frame{{n: t.root}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := t.index[f.n]; seen {
				continue
			}
			t.index[f.n] = position{start: f.start, parent: f.parent, depth: f.depth}
			// дети кладутся в обратном порядке, чтобы обход остался preorder
			off := f.start + f.n.width
			for i := len(f.n.children) - 1; i >= 0; i-- {
				c := f.n.children[i]
				off -= c.width
				stack = append(stack, frame{n: c, parent: f.n, start: off, depth: f.depth + 1})
			}
		}
	})
}

// Contains reports whether n belongs to this tree.
func (t *Tree) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	t.build()
	_, ok := t.index[n]
	return ok
}

// Span returns the absolute span of n. Nodes outside the tree yield false.
func (t *Tree) Span(n *Node) (source.Span, bool) {
	t.build()
	p, ok := t.index[n]
	if !ok {
		return source.Span{}, false
	}
	return source.Span{Start: p.start, End: p.start + n.width}, true
}

// Parent returns the parent of n, or nil for the root and foreign nodes.
func (t *Tree) Parent(n *Node) *Node {
	t.build()
	return t.index[n].parent
}

// Depth returns the distance from the root; -1 for foreign nodes.
func (t *Tree) Depth(n *Node) int {
	t.build()
	p, ok := t.index[n]
	if !ok {
		return -1
	}
	return p.depth
}

// Ancestors returns the parent chain of n, nearest first.
func (t *Tree) Ancestors(n *Node) []*Node {
	var out []*Node
	for p := t.Parent(n); p != nil; p = t.Parent(p) {
		out = append(out, p)
	}
	return out
}

// IsAncestor reports whether a is a strict ancestor of d.
func (t *Tree) IsAncestor(a, d *Node) bool {
	if a == nil || d == nil || a == d {
		return false
	}
	for p := t.Parent(d); p != nil; p = t.Parent(p) {
		if p == a {
			return true
		}
	}
	return false
}

// FindNode returns the innermost node whose span contains sp.
// A child that covers sp exactly is preferred over its parent.
// It returns nil when sp lies outside the root.
func (t *Tree) FindNode(sp source.Span) *Node {
	path := t.coveringPath(sp)
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

// FindNodeOfKind returns the innermost node covering sp whose kind is one of kinds.
func (t *Tree) FindNodeOfKind(sp source.Span, kinds ...Kind) *Node {
	path := t.coveringPath(sp)
	for i := len(path) - 1; i >= 0; i-- {
		if slices.Contains(kinds, path[i].kind) {
			return path[i]
		}
	}
	return nil
}

// LeafAt returns the leaf containing offset off.
func (t *Tree) LeafAt(off uint32) *Node {
	n := t.root
	if off >= n.width {
		return nil
	}
	start := uint32(0)
	for !n.IsLeaf() {
		next := (*Node)(nil)
		for _, c := range n.children {
			if off < start+c.width {
				next = c
				break
			}
			start += c.width
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

func (t *Tree) coveringPath(sp source.Span) []*Node {
	if !sp.Valid() || sp.End > t.root.width {
		return nil
	}
	path := []*Node{t.root}
	n, start := t.root, uint32(0)
	for {
		var next *Node
		off := start
		for _, c := range n.children {
			cs := source.Span{Start: off, End: off + c.width}
			covers := cs.ContainsSpan(sp)
			if sp.Empty() {
				// пустой span относится к узлу, содержащему его позицию
				covers = cs.Contains(sp.Start)
			}
			if covers {
				next = c
				start = off
				break
			}
			off += c.width
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		n = next
	}
}

// WalkFunc visits a node. Returning false skips its children.
type WalkFunc func(n *Node, depth int) bool

// Walk visits nodes in preorder and stops early if ctx is cancelled.
func (t *Tree) Walk(ctx context.Context, fn WalkFunc) error {
	visited := 0
	var walk func(n *Node, depth int) error
	walk = func(n *Node, depth int) error {
		visited++
		if visited%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !fn(n, depth) {
			return nil
		}
		for _, c := range n.children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return walk(t.root, 0)
}
