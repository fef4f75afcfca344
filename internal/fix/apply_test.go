package fix

import (
	"context"
	"errors"
	"strings"
	"testing"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/source"
	"remedy/internal/syntax"
	"remedy/internal/syntax/plain"
)

func finding(rule string, doc source.DocumentID, start, length int, props ...string) diag.Finding {
	f := diag.Finding{RuleID: rule, DocumentID: doc, Span: source.MustSpan(start, length)}
	for i := 0; i+1 < len(props); i += 2 {
		f = f.WithProperty(props[i], props[i+1])
	}
	return f
}

func replacementProvider(rule string) Provider {
	return TextProvider[None](rule, "replace span", TextFuncs[None]{
		Edit: func(f diag.Finding, text string, _ None) (TextEdit, bool) {
			return ReplacementEdit(f, text)
		},
	})
}

func TestScenarioTextReplacement(t *testing.T) {
	doc := document.New("a.txt", "a  b", plain.New())
	f := finding("SP1001", "a.txt", 1, 2, diag.PropReplacement, " ")

	res, err := ApplyOne(context.Background(), doc, f, replacementProvider("SP1001"))
	if err != nil {
		t.Fatalf("ApplyOne: %v", err)
	}
	if !res.Changed || res.Document.Text() != "a b" {
		t.Fatalf("got changed=%v text=%q, want \"a b\"", res.Changed, res.Document.Text())
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 0 {
		t.Fatalf("applied=%d skipped=%v", len(res.Applied), res.Skipped)
	}
	if doc.Text() != "a  b" {
		t.Fatalf("input document mutated: %q", doc.Text())
	}
	if res.Document.Version() != doc.Version()+1 {
		t.Errorf("version = %d, want %d", res.Document.Version(), doc.Version()+1)
	}
	if res.Document.HasTree() {
		t.Errorf("text fix must not carry a tree")
	}
}

// blockDoc строит Block[StatementA, StatementB].
func blockDoc() (*document.Document, *syntax.Node, *syntax.Node) {
	a := syntax.Leaf("StatementA", "a;")
	b := syntax.Leaf("StatementB", "b;")
	root := syntax.NewNode("Block", a, syntax.Leaf(syntax.KindTrivia, " "), b)
	return document.NewFromRoot("block", root, nil), root, a
}

func nestingProvider() Provider {
	return NodeProvider[None]("WRAP", "wrap and rename", NodeFuncs[None]{
		Replace: func(f diag.Finding, target *syntax.Node, _ None) *syntax.Node {
			switch target.Kind() {
			case "Block":
				return syntax.NewNode("Wrapped", syntax.Leaf("open", "{"), target, syntax.Leaf("close", "}"))
			case "StatementA":
				return target.WithText("renamed;")
			}
			return nil
		},
	})
}

func TestScenarioTreeNesting(t *testing.T) {
	doc, _, _ := blockDoc()
	findings := []diag.Finding{
		// Block целиком, затем StatementA
		finding("WRAP", "block", 0, 5),
		finding("WRAP", "block", 0, 2),
	}
	res, err := ApplyBatch(context.Background(), doc, findings, nestingProvider())
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if !res.Changed {
		t.Fatalf("expected change, skipped=%v", res.Skipped)
	}
	if got, want := res.Document.Text(), "{renamed; b;}"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	tree, err := res.Document.Tree(context.Background())
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	wrapped := tree.Root()
	if wrapped.Kind() != "Wrapped" {
		t.Fatalf("root kind = %s", wrapped.Kind())
	}
	block := wrapped.FirstChildOfKind("Block")
	if block == nil {
		t.Fatalf("Block missing: %s", syntax.Dump(wrapped))
	}
	if block.Child(0).Text() != "renamed;" || block.Child(2).Kind() != "StatementB" {
		t.Fatalf("nested rename lost: %s", syntax.Dump(block))
	}
	if len(res.Applied) != 2 {
		t.Errorf("applied = %d, want 2", len(res.Applied))
	}
	if len(res.Edits) != 1 || res.Edits[0].Span != source.MustSpan(0, 5) {
		t.Errorf("edits = %+v, want a single outer edit", res.Edits)
	}
}

func TestScenarioSoftFail(t *testing.T) {
	doc := document.New("a.txt", "abc", plain.New())
	f := finding("SP1001", "a.txt", 2, 10, diag.PropReplacement, "x")

	res, err := ApplyOne(context.Background(), doc, f, replacementProvider("SP1001"))
	if err != nil {
		t.Fatalf("soft failure must not error: %v", err)
	}
	if res.Changed || res.Document != doc {
		t.Fatalf("document must be returned unchanged")
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipUnlocatable {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestTextBatchSortsEdits(t *testing.T) {
	text := "0123456789abcdef"
	doc := document.New("d", text, nil)
	findings := []diag.Finding{
		finding("R", "d", 10, 1, diag.PropReplacement, "X"),
		finding("R", "d", 2, 1, diag.PropReplacement, "Y"),
		finding("R", "d", 7, 1, diag.PropReplacement, "Z"),
	}
	res, err := ApplyBatch(context.Background(), doc, findings, replacementProvider("R"))
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if got, want := res.Document.Text(), "01Y3456Z89Xbcdef"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	for i := 1; i < len(res.Edits); i++ {
		if res.Edits[i-1].Span.Start > res.Edits[i].Span.Start {
			t.Fatalf("edits not sorted: %+v", res.Edits)
		}
	}
}

func TestTextBatchLengthChangingEdits(t *testing.T) {
	doc := document.New("d", "aa bb cc", nil)
	findings := []diag.Finding{
		finding("R", "d", 6, 2, diag.PropReplacement, "C"),
		finding("R", "d", 0, 2, diag.PropReplacement, "AAAA"),
		finding("R", "d", 3, 2, diag.PropReplacement, ""),
	}
	res, err := ApplyBatch(context.Background(), doc, findings, replacementProvider("R"))
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if got, want := res.Document.Text(), "AAAA  C"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestTextBatchOverlapConflict(t *testing.T) {
	doc := document.New("d", "0123456789", nil)
	first := finding("R", "d", 2, 3, diag.PropReplacement, "abc")
	second := finding("R", "d", 4, 2, diag.PropReplacement, "zz")

	res, err := ApplyBatch(context.Background(), doc, []diag.Finding{second, first}, replacementProvider("R"))
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if got, want := res.Document.Text(), "01abc56789"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipConflict || res.Skipped[0].Finding.Span != second.Span {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestTextBatchInsertionsAtSameOffsetKeepOrder(t *testing.T) {
	doc := document.New("d", "ab", nil)
	findings := []diag.Finding{
		finding("R", "d", 1, 0, diag.PropReplacement, "1"),
		finding("R", "d", 1, 0, diag.PropReplacement, "2"),
	}
	res, err := ApplyBatch(context.Background(), doc, findings, replacementProvider("R"))
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if got := res.Document.Text(); got != "a12b" {
		t.Fatalf("text = %q, want \"a12b\"", got)
	}
}

func TestTextBatchStaleGuard(t *testing.T) {
	doc := document.New("d", "hello world", nil)
	ok := finding("R", "d", 0, 5, diag.PropReplacement, "HELLO", diag.PropExpect, "hello")
	stale := finding("R", "d", 6, 5, diag.PropReplacement, "EARTH", diag.PropExpect, "there")

	res, err := ApplyBatch(context.Background(), doc, []diag.Finding{ok, stale}, replacementProvider("R"))
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if got := res.Document.Text(); got != "HELLO world" {
		t.Fatalf("text = %q", got)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipStale {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestBatchSkipReasons(t *testing.T) {
	doc := document.New("d", "abc", nil)
	tests := []struct {
		name string
		f    diag.Finding
		want SkipReason
	}{
		{"suppressed", finding("R", "d", 0, 1, diag.PropReplacement, "x", diag.PropSuppressFix, "true"), SkipSuppressed},
		{"other rule", finding("Q", "d", 0, 1, diag.PropReplacement, "x"), SkipNoProvider},
		{"other document", finding("R", "e", 0, 1, diag.PropReplacement, "x"), SkipUnknownDocument},
		{"no replacement", finding("R", "d", 0, 1), SkipUnlocatable},
		{"noop", finding("R", "d", 0, 1, diag.PropReplacement, "a"), SkipNoop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ApplyOne(context.Background(), doc, tt.f, replacementProvider("R"))
			if err != nil {
				t.Fatalf("ApplyOne: %v", err)
			}
			if res.Changed || res.Document != doc {
				t.Fatalf("document changed")
			}
			if len(res.Skipped) != 1 || res.Skipped[0].Reason != tt.want {
				t.Fatalf("skipped = %+v, want %s", res.Skipped, tt.want)
			}
		})
	}
}

func TestApplyNilProvider(t *testing.T) {
	doc := document.New("d", "abc", nil)
	res, err := ApplyOne(context.Background(), doc, finding("R", "d", 0, 1), nil)
	if err != nil {
		t.Fatalf("ApplyOne: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipNoProvider {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestNoContextSkipsBatch(t *testing.T) {
	doc := document.New("d", "abc", nil)
	p := TextProvider[int]("R", "", TextFuncs[int]{
		Context: func(context.Context, *document.Document) (int, bool) { return 0, false },
		Edit: func(f diag.Finding, text string, _ int) (TextEdit, bool) {
			t.Fatalf("ComputeEdit called without context")
			return TextEdit{}, false
		},
	})
	findings := []diag.Finding{finding("R", "d", 0, 1), finding("R", "d", 1, 1)}
	res, err := ApplyBatch(context.Background(), doc, findings, p)
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if len(res.Skipped) != 2 || res.Skipped[0].Reason != SkipNoContext {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestNodeBatchWithoutParserSkips(t *testing.T) {
	doc := document.New("d", "abc", nil)
	res, err := ApplyOne(context.Background(), doc, finding("WRAP", "d", 0, 1), nestingProvider())
	if err != nil {
		t.Fatalf("ApplyOne: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipNoTree {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestNodeBatchDuplicateTargetLastWins(t *testing.T) {
	doc, _, _ := blockDoc()
	count := 0
	p := NodeProvider[None]("R", "", NodeFuncs[None]{
		Replace: func(f diag.Finding, target *syntax.Node, _ None) *syntax.Node {
			count++
			v, _ := f.Property("name")
			return target.WithText(v + ";")
		},
	})
	findings := []diag.Finding{
		finding("R", "block", 0, 2, "name", "first"),
		finding("R", "block", 0, 2, "name", "second"),
	}
	res, err := ApplyBatch(context.Background(), doc, findings, p)
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if got := res.Document.Text(); got != "second; b;" {
		t.Fatalf("text = %q", got)
	}
	if count != 1 {
		t.Errorf("ComputeReplacement called %d times, want 1", count)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipDuplicateTarget {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if v, _ := res.Applied[0].Property("name"); v != "second" {
		t.Errorf("applied finding = %v", res.Applied[0])
	}
}

func TestNodeBatchNilReplacementIsNoop(t *testing.T) {
	doc, _, _ := blockDoc()
	p := NodeProvider[None]("R", "", NodeFuncs[None]{})
	res, err := ApplyOne(context.Background(), doc, finding("R", "block", 0, 2), p)
	if err != nil {
		t.Fatalf("ApplyOne: %v", err)
	}
	if res.Changed || res.Document != doc {
		t.Fatalf("nil replacement must keep the document")
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipNoop {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestNodeBatchAnchorKind(t *testing.T) {
	doc := document.New("d", "f((x)) y", plain.New())
	var kinds []syntax.Kind
	p := NodeProvider[None]("R", "", NodeFuncs[None]{
		Replace: func(f diag.Finding, target *syntax.Node, _ None) *syntax.Node {
			kinds = append(kinds, target.Kind())
			return nil
		},
	})
	// span внутри "x", якорь на ближайшей paren
	f := finding("R", "d", 3, 1, diag.PropAnchorKind, string(plain.KindParen))
	if _, err := ApplyOne(context.Background(), doc, f, p); err != nil {
		t.Fatalf("ApplyOne: %v", err)
	}
	if len(kinds) != 1 || kinds[0] != plain.KindParen {
		t.Fatalf("targets = %v", kinds)
	}
}

func TestSingleBatchEquivalence(t *testing.T) {
	doc := document.New("d", "one  two   three", nil)
	findings := []diag.Finding{
		finding("R", "d", 3, 2, diag.PropReplacement, " "),
		finding("R", "d", 8, 3, diag.PropReplacement, " "),
	}
	p := replacementProvider("R")
	for _, f := range findings {
		one, err := ApplyOne(context.Background(), doc, f, p)
		if err != nil {
			t.Fatalf("ApplyOne: %v", err)
		}
		batch, err := ApplyBatch(context.Background(), doc, []diag.Finding{f}, p)
		if err != nil {
			t.Fatalf("ApplyBatch: %v", err)
		}
		if one.Document.Text() != batch.Document.Text() || one.Changed != batch.Changed {
			t.Fatalf("single %q != batch %q", one.Document.Text(), batch.Document.Text())
		}
	}
}

func TestTextBatchOrderIndependent(t *testing.T) {
	doc := document.New("d", "one  two   three", nil)
	a := finding("R", "d", 3, 2, diag.PropReplacement, " ")
	b := finding("R", "d", 8, 3, diag.PropReplacement, " ")
	p := replacementProvider("R")

	r1, err := ApplyBatch(context.Background(), doc, []diag.Finding{a, b}, p)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := ApplyBatch(context.Background(), doc, []diag.Finding{b, a}, p)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Document.Text() != r2.Document.Text() || r1.Document.Text() != "one two three" {
		t.Fatalf("order dependent: %q vs %q", r1.Document.Text(), r2.Document.Text())
	}
}

func upperProvider() Provider {
	return NodeProvider[None]("UP", "upper-case statements", NodeFuncs[None]{
		Replace: func(f diag.Finding, target *syntax.Node, _ None) *syntax.Node {
			if target.Kind() != "StatementA" && target.Kind() != "StatementB" {
				return nil
			}
			return target.WithText(strings.ToUpper(target.Text()))
		},
	})
}

func TestNodeSingleBatchEquivalence(t *testing.T) {
	doc, _, _ := blockDoc()
	p := upperProvider()
	for _, tt := range []struct {
		f    diag.Finding
		want string
	}{
		{finding("UP", "block", 0, 2), "A; b;"},
		{finding("UP", "block", 3, 2), "a; B;"},
	} {
		one, err := ApplyOne(context.Background(), doc, tt.f, p)
		if err != nil {
			t.Fatalf("ApplyOne: %v", err)
		}
		batch, err := ApplyBatch(context.Background(), doc, []diag.Finding{tt.f}, p)
		if err != nil {
			t.Fatalf("ApplyBatch: %v", err)
		}
		if one.Document.Text() != tt.want || batch.Document.Text() != tt.want {
			t.Fatalf("single %q, batch %q, want %q", one.Document.Text(), batch.Document.Text(), tt.want)
		}
		if one.Changed != batch.Changed || len(one.Applied) != len(batch.Applied) {
			t.Fatalf("single and batch disagree: %+v vs %+v", one, batch)
		}
	}
}

func TestNodeBatchOrderIndependent(t *testing.T) {
	doc, _, _ := blockDoc()
	a := finding("UP", "block", 0, 2)
	b := finding("UP", "block", 3, 2)
	p := upperProvider()

	r1, err := ApplyBatch(context.Background(), doc, []diag.Finding{a, b}, p)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := ApplyBatch(context.Background(), doc, []diag.Finding{b, a}, p)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Document.Text() != "A; B;" || r2.Document.Text() != r1.Document.Text() {
		t.Fatalf("order dependent: %q vs %q", r1.Document.Text(), r2.Document.Text())
	}
	tree, err := r2.Document.Tree(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	if root.Kind() != "Block" || root.Child(0).Kind() != "StatementA" || root.Child(2).Kind() != "StatementB" {
		t.Fatalf("tree shape changed: %s", root.Kind())
	}
}

func TestTextBatchIdempotent(t *testing.T) {
	trailing := TextProvider[None]("SP1028", "", TextFuncs[None]{
		Edit: func(f diag.Finding, text string, _ None) (TextEdit, bool) {
			return Delete(f.Span, strings.Repeat(" ", int(f.Span.Len()))), true
		},
	})
	doc := document.New("d", "a  \nb", nil)
	f := finding("SP1028", "d", 1, 2)
	first, err := ApplyOne(context.Background(), doc, f, trailing)
	if err != nil || !first.Changed {
		t.Fatalf("first run: changed=%v err=%v", first.Changed, err)
	}
	// повторный прогон по уже исправленному тексту: guard не совпадает
	second, err := ApplyOne(context.Background(), first.Document, f, trailing)
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed || second.Document.Text() != "a\nb" {
		t.Fatalf("second run changed the text: %q", second.Document.Text())
	}
}

func TestApplyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := document.New("d", "a  b", nil)
	res, err := ApplyOne(ctx, doc, finding("R", "d", 1, 2, diag.PropReplacement, " "), replacementProvider("R"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Document != doc || res.Changed {
		t.Fatalf("cancelled apply must return the input document")
	}
}

func TestApplyCancelledDuringBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc := document.New("d", strings.Repeat("x", 200), nil)
	p := TextProvider[None]("R", "", TextFuncs[None]{
		Edit: func(f diag.Finding, text string, _ None) (TextEdit, bool) {
			cancel()
			return Replace(f.Span, "y", ""), true
		},
	})
	findings := make([]diag.Finding, 0, 100)
	for i := range 100 {
		findings = append(findings, finding("R", "d", i*2, 1))
	}
	res, err := ApplyBatch(ctx, doc, findings, p)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Document != doc {
		t.Fatalf("cancelled batch must return the input document")
	}
}

func TestRemapSpan(t *testing.T) {
	edits := []TextEdit{Replace(source.MustSpan(0, 2), "x", "")}

	got, ok := RemapSpan(source.MustSpan(5, 1), edits)
	if !ok || got != source.MustSpan(4, 1) {
		t.Fatalf("RemapSpan([5,6)) = %v, %v; want [4,5)", got, ok)
	}
	if _, ok := RemapSpan(source.MustSpan(1, 2), edits); ok {
		t.Fatalf("[1,3) intersects the edit and must not map")
	}
	got, ok = RemapSpan(source.MustSpan(2, 1), edits)
	if !ok || got != source.MustSpan(1, 1) {
		t.Fatalf("span right after the edit = %v, %v", got, ok)
	}

	later := []TextEdit{Insert(10, "abc")}
	got, ok = RemapSpan(source.MustSpan(3, 2), later)
	if !ok || got != source.MustSpan(3, 2) {
		t.Fatalf("edits after the span must not move it: %v", got)
	}
}
