package syntax

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Kind names a node category. Kinds are parser specific.
type Kind string

// KindTrivia marks leaves that carry text the grammar does not name
// (whitespace, punctuation gaps between named children).
const KindTrivia Kind = "trivia"

// Node is an immutable element of a full-fidelity syntax tree.
// A leaf carries text, an interior node carries ordered children.
// Nodes know nothing about their absolute position or parent; use Tree for that.
// Identity is the pointer: two structurally equal nodes are still different targets.
type Node struct {
	kind     Kind
	text     string
	children []*Node
	width    uint32
}

// Leaf creates a node that owns text.
func Leaf(kind Kind, text string) *Node {
	w, err := safecast.Conv[uint32](len(text))
	if err != nil {
		panic(fmt.Errorf("leaf width overflow: %w", err))
	}
	return &Node{kind: kind, text: text, width: w}
}

// NewNode creates an interior node. Nil children are dropped.
func NewNode(kind Kind, children ...*Node) *Node {
	n := &Node{kind: kind}
	if len(children) > 0 {
		n.children = make([]*Node, 0, len(children))
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		n.children = append(n.children, c)
		n.width += c.width
	}
	return n
}

func (n *Node) Kind() Kind {
	return n.kind
}

// IsLeaf reports whether n has no children. Empty interior nodes count as leaves.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// Width is the length of the text n covers, in bytes.
func (n *Node) Width() uint32 {
	return n.width
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.children)
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns the children slice. READONLY
func (n *Node) Children() []*Node {
	return n.children
}

// Text renders the text covered by n.
func (n *Node) Text() string {
	if n.IsLeaf() {
		return n.text
	}
	var sb strings.Builder
	sb.Grow(int(n.width))
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	if n.IsLeaf() {
		sb.WriteString(n.text)
		return
	}
	for _, c := range n.children {
		c.writeText(sb)
	}
}

// FirstChildOfKind returns the first direct child with the given kind.
func (n *Node) FirstChildOfKind(kind Kind) *Node {
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// WithKind returns a copy of n with a different kind.
func (n *Node) WithKind(kind Kind) *Node {
	cp := *n
	cp.kind = kind
	return &cp
}

// WithText returns a leaf of the same kind holding text.
func (n *Node) WithText(text string) *Node {
	return Leaf(n.kind, text)
}

// WithChildren returns a node of the same kind with new children.
func (n *Node) WithChildren(children ...*Node) *Node {
	return NewNode(n.kind, children...)
}

// ReplaceChild returns a copy of n with the i-th child swapped. Out of
// range indices return n itself.
func (n *Node) ReplaceChild(i int, child *Node) *Node {
	if i < 0 || i >= len(n.children) {
		return n
	}
	next := make([]*Node, len(n.children))
	copy(next, n.children)
	next[i] = child
	return NewNode(n.kind, next...)
}

// InsertChild returns a copy of n with child inserted before index i.
// i == Len() appends.
func (n *Node) InsertChild(i int, child *Node) *Node {
	if i < 0 || i > len(n.children) {
		return n
	}
	next := make([]*Node, 0, len(n.children)+1)
	next = append(next, n.children[:i]...)
	next = append(next, child)
	next = append(next, n.children[i:]...)
	return NewNode(n.kind, next...)
}

// RemoveChild returns a copy of n without the i-th child.
func (n *Node) RemoveChild(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return n
	}
	next := make([]*Node, 0, len(n.children)-1)
	next = append(next, n.children[:i]...)
	next = append(next, n.children[i+1:]...)
	return NewNode(n.kind, next...)
}

// IndexOf returns the position of child among n's children or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Equal compares two trees structurally.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind || a.width != b.width || len(a.children) != len(b.children) {
		return false
	}
	if a.IsLeaf() {
		return a.text == b.text
	}
	for i := range a.children {
		if !Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// Dump renders an S-expression view of n for tests and debugging.
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n)
	return sb.String()
}

func dump(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	}
	if n.IsLeaf() {
		fmt.Fprintf(sb, "%s%q", n.kind, n.text)
		return
	}
	sb.WriteString(string(n.kind))
	sb.WriteByte('[')
	for i, c := range n.children {
		if i > 0 {
			sb.WriteByte(' ')
		}
		dump(sb, c)
	}
	sb.WriteByte(']')
}
