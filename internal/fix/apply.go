package fix

import (
	"context"
	"sort"
	"strconv"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/source"
	"remedy/internal/syntax"
	"remedy/internal/trace"
)

// ctxCheckEvery controls how often per-finding loops poll the context.
const ctxCheckEvery = 64

// ApplyOne fixes a single finding. It runs the batch algorithm with one
// finding, so ApplyOne and ApplyBatch agree on every outcome.
//
// Soft failures return the input document with Changed == false and the
// reason in Result.Skipped. Only cancellation returns an error; the input
// document is returned with it.
func ApplyOne(ctx context.Context, doc *document.Document, f diag.Finding, p Provider) (Result, error) {
	return ApplyBatch(ctx, doc, []diag.Finding{f}, p)
}

// ApplyBatch fixes all findings of one provider in one document in a single
// pass. See NodeProvider and TextProvider for the two algorithms.
func ApplyBatch(ctx context.Context, doc *document.Document, findings []diag.Finding, p Provider) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Document: doc}, err
	}
	if p == nil {
		res := Result{Document: doc}
		res.skipAll(findings, SkipNoProvider, "")
		return res, nil
	}
	sp, ctx := trace.Start(ctx, trace.ScopeBatch, "batch:"+p.RuleID())
	res, err := p.applyBatch(ctx, doc, findings)
	if err != nil {
		sp.End("cancelled")
		return Result{Document: doc}, err
	}
	for _, s := range res.Skipped {
		trace.PointCtx(ctx, trace.ScopeFinding, "skip", s.Reason.String(),
			trace.Str("rule", s.Finding.RuleID),
			trace.Str("span", s.Finding.Span.String()))
	}
	sp.SetInt("applied", len(res.Applied)).SetInt("skipped", len(res.Skipped)).End("")
	return res, nil
}

// admit filters findings every batch rejects before the strategy runs.
func admit(res *Result, doc *document.Document, rule string, findings []diag.Finding) []diag.Finding {
	out := make([]diag.Finding, 0, len(findings))
	for _, f := range findings {
		switch {
		case f.RuleID != rule:
			res.skip(f, SkipNoProvider, "finding belongs to "+f.RuleID)
		case f.DocumentID != "" && f.DocumentID != doc.ID():
			res.skip(f, SkipUnknownDocument, string(f.DocumentID))
		case f.Suppressed():
			res.skip(f, SkipSuppressed, "")
		case !f.Span.Within(doc.Len()):
			res.skip(f, SkipUnlocatable, "span "+f.Span.String()+" outside document")
		default:
			out = append(out, f)
		}
	}
	return out
}

// applyNodeBatch:
//  1. derive the tree and the strategy context once;
//  2. locate a target per finding, a later finding on the same node wins;
//  3. rebuild the tree in one post-order pass, so an ancestor replacement
//     sees the already rewritten descendants;
//  4. derive the text of the new document from the new tree.
func applyNodeBatch[C any](ctx context.Context, doc *document.Document, rule string, findings []diag.Finding, s NodeStrategy[C]) (Result, error) {
	res := Result{Document: doc}
	findings = admit(&res, doc, rule, findings)
	if len(findings) == 0 {
		return res, nil
	}

	tree, err := doc.Tree(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Document: doc}, ctxErr
		}
		res.skipAll(findings, SkipNoTree, err.Error())
		return res, nil
	}

	c, ok := s.CreateContext(ctx, doc)
	if err := ctx.Err(); err != nil {
		return Result{Document: doc}, err
	}
	if !ok {
		res.skipAll(findings, SkipNoContext, "")
		return res, nil
	}

	type located struct {
		finding diag.Finding
		target  *syntax.Node
	}
	byTarget := make(map[*syntax.Node]int, len(findings))
	order := make([]located, 0, len(findings))
	for i, f := range findings {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{Document: doc}, err
			}
		}
		target := s.LocateTarget(f, tree)
		if target == nil || !tree.Contains(target) {
			res.skip(f, SkipUnlocatable, "")
			continue
		}
		if prev, dup := byTarget[target]; dup {
			// последняя находка на том же узле побеждает
			res.skip(order[prev].finding, SkipDuplicateTarget, f.Span.String())
			order[prev].finding = f
			continue
		}
		byTarget[target] = len(order)
		order = append(order, located{finding: f, target: target})
	}
	if len(order) == 0 {
		return res, nil
	}

	targets := make(map[*syntax.Node]struct{}, len(order))
	for _, l := range order {
		targets[l.target] = struct{}{}
	}
	replaced := make(map[*syntax.Node]*syntax.Node, len(order))
	noop := make(map[*syntax.Node]bool)
	root, err := syntax.ReplaceNodes(ctx, tree, targets, func(original, rewritten *syntax.Node) *syntax.Node {
		f := order[byTarget[original]].finding
		repl := s.ComputeReplacement(f, rewritten, c)
		if repl == nil {
			noop[original] = true
			replaced[original] = rewritten
			return nil
		}
		replaced[original] = repl
		return repl
	})
	if err != nil {
		return Result{Document: doc}, err
	}

	for _, l := range order {
		if noop[l.target] {
			res.skip(l.finding, SkipNoop, "")
			continue
		}
		res.Applied = append(res.Applied, l.finding)
	}
	if root == tree.Root() {
		res.unchanged(doc)
		return res, nil
	}

	next := doc.WithRoot(root)
	if next.Text() == doc.Text() {
		res.unchanged(doc)
		return res, nil
	}

	// правки только для внешних целей: вложенные уже внутри их текста
	for _, l := range order {
		if hasTargetAncestor(tree, l.target, targets) {
			continue
		}
		span, _ := tree.Span(l.target)
		newText := replaced[l.target].Text()
		if newText == span.Slice(doc.Text()) {
			continue
		}
		res.Edits = append(res.Edits, TextEdit{Span: span, NewText: newText})
	}
	sortEdits(res.Edits)

	res.Document = next
	res.Changed = true
	return res, nil
}

func hasTargetAncestor(tree *syntax.Tree, n *syntax.Node, targets map[*syntax.Node]struct{}) bool {
	for p := tree.Parent(n); p != nil; p = tree.Parent(p) {
		if _, ok := targets[p]; ok {
			return true
		}
	}
	return false
}

// applyTextBatch:
//  1. compute one edit per finding against the unchanged text;
//  2. sort edits by start offset, stable for equal starts;
//  3. reject edits overlapping an earlier accepted one;
//  4. splice all accepted edits into the text at once.
//
// The new document carries no tree; it is re-derived on demand.
func applyTextBatch[C any](ctx context.Context, doc *document.Document, rule string, findings []diag.Finding, s TextStrategy[C]) (Result, error) {
	res := Result{Document: doc}
	findings = admit(&res, doc, rule, findings)
	if len(findings) == 0 {
		return res, nil
	}

	c, ok := s.CreateContext(ctx, doc)
	if err := ctx.Err(); err != nil {
		return Result{Document: doc}, err
	}
	if !ok {
		res.skipAll(findings, SkipNoContext, "")
		return res, nil
	}

	text := doc.Text()
	type pending struct {
		finding diag.Finding
		edit    TextEdit
	}
	cands := make([]pending, 0, len(findings))
	for i, f := range findings {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{Document: doc}, err
			}
		}
		edit, ok := s.ComputeEdit(f, text, c)
		switch {
		case !ok:
			res.skip(f, SkipUnlocatable, "")
			continue
		case !edit.Span.Within(len(text)):
			res.skip(f, SkipUnlocatable, "edit "+edit.Span.String()+" outside document")
			continue
		case edit.Expect != "" && edit.Span.Slice(text) != edit.Expect:
			res.skip(f, SkipStale, "expected "+strconv.Quote(edit.Expect))
			continue
		case edit.Span.Slice(text) == edit.NewText:
			res.skip(f, SkipNoop, "")
			continue
		}
		cands = append(cands, pending{finding: f, edit: edit})
	}

	// стабильная сортировка: равные начала сохраняют порядок находок
	edits := make([]TextEdit, len(cands))
	for i := range cands {
		edits[i] = cands[i].edit
	}
	idx := make([]int, len(cands))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return edits[idx[a]].Span.Start < edits[idx[b]].Span.Start
	})

	accepted := make([]TextEdit, 0, len(cands))
	for _, i := range idx {
		cand := cands[i]
		if conflictsWithAccepted(accepted, cand.edit) {
			res.skip(cand.finding, SkipConflict, "overlaps "+cand.edit.Span.String())
			continue
		}
		accepted = append(accepted, cand.edit)
		res.Applied = append(res.Applied, cand.finding)
	}
	if len(accepted) == 0 {
		return res, nil
	}

	newText := splice(text, accepted)
	if newText == text {
		res.unchanged(doc)
		return res, nil
	}
	res.Document = doc.WithText(newText)
	res.Changed = true
	res.Edits = accepted
	return res, nil
}

// RemapSpan maps a span of the document before edits onto the document after
// them. edits must be sorted and disjoint, in the coordinates of the earlier
// document. A span that intersects an edited region cannot be mapped.
func RemapSpan(sp source.Span, edits []TextEdit) (source.Span, bool) {
	delta := 0
	for _, e := range edits {
		switch {
		case e.Span.End <= sp.Start:
			delta += e.Delta()
		case e.Span.Start >= sp.End:
			// правка целиком после span
		default:
			return source.Span{}, false
		}
	}
	start := int(sp.Start) + delta
	if start < 0 {
		return source.Span{}, false
	}
	s, err := source.NewSpan(start, int(sp.Len()))
	if err != nil {
		return source.Span{}, false
	}
	return s, true
}
