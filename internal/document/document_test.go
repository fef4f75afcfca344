package document

import (
	"context"
	"errors"
	"testing"

	"remedy/internal/syntax"
	"remedy/internal/syntax/plain"
)

// countingParser считает вызовы Parse и может падать по запросу.
type countingParser struct {
	inner syntax.Parser
	calls int
	fail  error
}

func (p *countingParser) Name() string                      { return "counting" }
func (p *countingParser) Capabilities() syntax.Capabilities { return p.inner.Capabilities() }
func (p *countingParser) Parse(ctx context.Context, text string) (*syntax.Node, error) {
	p.calls++
	if p.fail != nil {
		return nil, p.fail
	}
	return p.inner.Parse(ctx, text)
}

func TestTreeIsLazyAndCached(t *testing.T) {
	p := &countingParser{inner: plain.New()}
	doc := New("a.txt", "a  b", p)
	if doc.HasTree() || p.calls != 0 {
		t.Fatalf("tree must not be parsed eagerly")
	}
	t1, err := doc.Tree(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t2, _ := doc.Tree(context.Background())
	if t1 != t2 || p.calls != 1 {
		t.Fatalf("tree not cached: calls=%d", p.calls)
	}
	if t1.Text() != doc.Text() {
		t.Fatalf("tree text %q != doc text %q", t1.Text(), doc.Text())
	}
}

func TestTreeFailureNotCached(t *testing.T) {
	boom := errors.New("boom")
	p := &countingParser{inner: plain.New(), fail: boom}
	doc := New("a.txt", "x", p)
	if _, err := doc.Tree(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	p.fail = nil
	if _, err := doc.Tree(context.Background()); err != nil {
		t.Fatalf("second parse should succeed: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("calls = %d", p.calls)
	}
}

func TestTreeWithoutParser(t *testing.T) {
	doc := New("a.txt", "x", nil)
	if _, err := doc.Tree(context.Background()); !errors.Is(err, ErrNoParser) {
		t.Fatalf("err = %v", err)
	}
}

func TestWithTextDefersParse(t *testing.T) {
	p := &countingParser{inner: plain.New()}
	doc := New("a.txt", "a  b", p)
	if _, err := doc.Tree(context.Background()); err != nil {
		t.Fatal(err)
	}
	next := doc.WithText("a b")
	if next.Version() != doc.Version()+1 {
		t.Errorf("version = %d", next.Version())
	}
	if next.HasTree() {
		t.Errorf("WithText must not carry a tree")
	}
	if doc.Text() != "a  b" {
		t.Errorf("original mutated")
	}
	if next.Digest() == doc.Digest() {
		t.Errorf("digest not recomputed")
	}
}

func TestWithRootRendersText(t *testing.T) {
	doc := New("a.txt", "ab", plain.New())
	root := syntax.NewNode("document", syntax.Leaf("word", "xy"))
	next := doc.WithRoot(root)
	if next.Text() != "xy" || !next.HasTree() {
		t.Fatalf("WithRoot text=%q hasTree=%v", next.Text(), next.HasTree())
	}
	tree, _ := next.Tree(context.Background())
	if tree.Root() != root {
		t.Fatalf("WithRoot must reuse the given root")
	}
}
