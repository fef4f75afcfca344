package syntax

import (
	"context"
	"slices"
)

// Capabilities describes what a parser's trees can offer to fix strategies.
// It is resolved once when the parser is constructed; strategies consult it
// instead of inspecting nodes to guess the grammar.
// A role kind left empty means the grammar has no such node.
type Capabilities struct {
	Version    uint32
	Language   string
	Comment    Kind
	ParenExpr  Kind
	Identifier Kind
	kinds      []Kind // sorted
}

// NewCapabilities records the set of kinds a grammar declares.
func NewCapabilities(language string, version uint32, declared []Kind) Capabilities {
	kinds := slices.Clone(declared)
	slices.Sort(kinds)
	kinds = slices.Compact(kinds)
	return Capabilities{Version: version, Language: language, kinds: kinds}
}

// Has reports whether the grammar declares kind.
func (c Capabilities) Has(kind Kind) bool {
	if kind == "" {
		return false
	}
	_, ok := slices.BinarySearch(c.kinds, kind)
	return ok
}

// Kinds returns the declared kinds in sorted order.
func (c Capabilities) Kinds() []Kind {
	return slices.Clone(c.kinds)
}

// Bind assigns role kinds that the grammar declares. Undeclared ones stay empty.
func (c Capabilities) Bind(comment, paren, ident Kind) Capabilities {
	if c.Has(comment) {
		c.Comment = comment
	}
	if c.Has(paren) {
		c.ParenExpr = paren
	}
	if c.Has(ident) {
		c.Identifier = ident
	}
	return c
}

// Parser turns text into a full-fidelity tree: the concatenated leaf texts of
// the returned root must equal text.
type Parser interface {
	Name() string
	Capabilities() Capabilities
	Parse(ctx context.Context, text string) (*Node, error)
}
