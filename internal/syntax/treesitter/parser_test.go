package treesitter

import (
	"context"
	"errors"
	"testing"

	"remedy/internal/source"
	"remedy/internal/syntax"
)

const sample = `

package demo

// Sum adds numbers.
func Sum(a, b int) int {
	return (a + b)
}
`

func TestParseFullFidelity(t *testing.T) {
	p := NewGoParser()
	root, err := p.Parse(context.Background(), sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := root.Text(); got != sample {
		t.Fatalf("round trip mismatch:\n%q\n%q", got, sample)
	}
	if int(root.Width()) != len(sample) {
		t.Fatalf("root width = %d, want %d", root.Width(), len(sample))
	}
}

func TestParseFindsGrammarNodes(t *testing.T) {
	p := NewGoParser()
	root, err := p.Parse(context.Background(), sample)
	if err != nil {
		t.Fatal(err)
	}
	tree := syntax.NewTree(root)

	off := indexOf(t, sample, "(a + b)")
	sp := source.Span{Start: off, End: off + uint32(len("(a + b)"))}
	paren := tree.FindNodeOfKind(sp, KindParenExpr)
	if paren == nil {
		t.Fatalf("parenthesized_expression not found in %s", syntax.Dump(root))
	}
	if paren.Text() != "(a + b)" {
		t.Errorf("paren text = %q", paren.Text())
	}

	coff := indexOf(t, sample, "// Sum")
	comment := tree.FindNodeOfKind(source.Span{Start: coff, End: coff + 2}, KindComment)
	if comment == nil || comment.Text() != "// Sum adds numbers." {
		t.Errorf("comment = %s", syntax.Dump(comment))
	}
}

func TestCapabilitiesProbed(t *testing.T) {
	caps := NewGoParser().Capabilities()
	if caps.Comment != KindComment || caps.ParenExpr != KindParenExpr || caps.Identifier != KindIdentifier {
		t.Errorf("caps = %+v", caps)
	}
	if caps.Language != "go" || !caps.Has(KindSourceFile) {
		t.Errorf("caps = %+v", caps)
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewGoParser().Parse(ctx, sample); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseBrokenSourceStillRoundTrips(t *testing.T) {
	in := "package x\nfunc (\n"
	root, err := NewGoParser().Parse(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if root.Text() != in {
		t.Fatalf("round trip mismatch: %q", root.Text())
	}
}

func indexOf(t *testing.T, s, sub string) uint32 {
	t.Helper()
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return uint32(i)
		}
	}
	t.Fatalf("%q not found", sub)
	return 0
}
