package rules

import (
	"context"
	"strings"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/fix"
	"remedy/internal/source"
	"remedy/internal/syntax"
)

const (
	RuleCollapseSpaces     = "SP1001"
	RuleCommentMarkerSpace = "SP1003"
	RuleCommentSingleSpace = "SP1005"
	RuleTrailingWhitespace = "SP1028"
)

// literalKinds are kind fragments whose text must never be re-spaced.
var literalKinds = []string{"string", "rune", "comment"}

// SP1001: a run of spaces between two tokens is collapsed to one space.
func collapseSpacesRule() Rule {
	return Rule{
		ID:       RuleCollapseSpaces,
		Title:    "Collapse redundant spaces",
		Severity: diag.SevWarning,
		Detect:   detectRedundantSpaces,
		Provider: fix.TextProvider[fix.None](RuleCollapseSpaces, "Collapse redundant spaces", replacementStrategy{}),
	}
}

// replacementStrategy applies the replacement property of a finding.
type replacementStrategy struct {
	fix.Stateless
}

func (replacementStrategy) ComputeEdit(f diag.Finding, text string, _ fix.None) (fix.TextEdit, bool) {
	return fix.ReplacementEdit(f, text)
}

func detectRedundantSpaces(ctx context.Context, doc *document.Document, r diag.Reporter) error {
	tree, _, err := treeOf(ctx, doc)
	if err != nil {
		return err
	}
	text := doc.Text()
	for i := 0; i < len(text); {
		if text[i] != ' ' {
			i++
			continue
		}
		start, end := i, i
		for end < len(text) && text[end] == ' ' {
			end++
		}
		i = end
		// отступы и хвостовые пробелы принадлежат другим правилам
		if end-start < 2 || start == 0 || isWhitespace(text[start-1]) || end >= len(text) || isWhitespace(text[end]) {
			continue
		}
		run := span(start, end)
		if tree != nil && !isSpacingLeaf(tree, run) {
			continue
		}
		diag.ReportWarning(r, RuleCollapseSpaces, doc.ID(), run, "redundant spaces").
			WithReplacement(" ").
			WithExpect(run.Slice(text)).
			Emit()
	}
	return nil
}

// isSpacingLeaf reports whether run lies inside one whitespace-only leaf that
// is not part of a literal or a comment.
func isSpacingLeaf(tree *syntax.Tree, run source.Span) bool {
	leaf := tree.LeafAt(run.Start)
	if leaf == nil || strings.TrimSpace(leaf.Text()) != "" {
		return false
	}
	sp, ok := tree.Span(leaf)
	if !ok || !sp.ContainsSpan(run) {
		return false
	}
	return !hasAncestorKind(tree, leaf, literalKinds...)
}

// SP1028: spaces and tabs at the end of a line are removed.
func trailingWhitespaceRule() Rule {
	return Rule{
		ID:       RuleTrailingWhitespace,
		Title:    "Remove trailing whitespace",
		Severity: diag.SevWarning,
		Detect:   detectTrailingWhitespace,
		Provider: fix.TextProvider[fix.None](RuleTrailingWhitespace, "Remove trailing whitespace", trailingStrategy{}),
	}
}

type trailingStrategy struct {
	fix.Stateless
}

func (trailingStrategy) ComputeEdit(f diag.Finding, text string, _ fix.None) (fix.TextEdit, bool) {
	if !f.Span.Within(len(text)) {
		return fix.TextEdit{}, false
	}
	expect, ok := f.Property(diag.PropExpect)
	if !ok {
		expect = f.Span.Slice(text)
		if strings.Trim(expect, " \t") != "" {
			return fix.TextEdit{}, false
		}
	}
	return fix.Delete(f.Span, expect), true
}

func detectTrailingWhitespace(_ context.Context, doc *document.Document, r diag.Reporter) error {
	eachLine(doc.Text(), func(start int, line string) {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimRight(line, " \t")
		if len(trimmed) == len(line) {
			return
		}
		sp := span(start+len(trimmed), start+len(line))
		diag.ReportWarning(r, RuleTrailingWhitespace, doc.ID(), sp, "trailing whitespace").
			WithExpect(line[len(trimmed):]).
			Emit()
	})
	return nil
}

// SP1003: a line comment marker must be followed by a space ("//x" -> "// x").
// Comments that start with a configured directive are left alone.
func commentMarkerSpaceRule(settings Settings) Rule {
	s := commentMarkerStrategy{directives: settings.CommentDirectives}
	return Rule{
		ID:       RuleCommentMarkerSpace,
		Title:    "Space after comment marker",
		Severity: diag.SevWarning,
		Detect:   s.detect,
		Provider: fix.NodeProvider[syntax.Kind](RuleCommentMarkerSpace, "Space after comment marker", s),
	}
}

type commentMarkerStrategy struct {
	directives []string
}

func (s commentMarkerStrategy) Fingerprint() string {
	return "comment_directives=" + strings.Join(s.directives, "\x00")
}

func (s commentMarkerStrategy) LocateTarget(f diag.Finding, tree *syntax.Tree) *syntax.Node {
	return fix.LocateBySpan(f, tree)
}

// CreateContext resolves the comment kind of the document's grammar.
func (s commentMarkerStrategy) CreateContext(_ context.Context, doc *document.Document) (syntax.Kind, bool) {
	p := doc.Parser()
	if p == nil {
		return "", false
	}
	kind := p.Capabilities().Comment
	return kind, kind != ""
}

func (s commentMarkerStrategy) ComputeReplacement(_ diag.Finding, target *syntax.Node, commentKind syntax.Kind) *syntax.Node {
	if target.Kind() != commentKind || !target.IsLeaf() {
		return nil
	}
	text := target.Text()
	marker := commentMarker(text)
	if marker == "" || !s.needsSpace(marker, text[len(marker):]) {
		return nil
	}
	return target.WithText(marker + " " + text[len(marker):])
}

func (s commentMarkerStrategy) needsSpace(marker, body string) bool {
	if body == "" || isWhitespace(body[0]) {
		return false
	}
	// "////" закомментированный код, "#!" shebang
	if marker == "//" && body[0] == '/' || marker == "#" && (body[0] == '!' || body[0] == '#') {
		return false
	}
	for _, d := range s.directives {
		if strings.HasPrefix(body, d) {
			return false
		}
	}
	return true
}

func (s commentMarkerStrategy) detect(ctx context.Context, doc *document.Document, r diag.Reporter) error {
	comments, kind, err := lineComments(ctx, doc)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if !s.needsSpace(c.marker, c.body) {
			continue
		}
		diag.ReportWarning(r, RuleCommentMarkerSpace, doc.ID(), c.span, "comment marker must be followed by a space").
			WithProperty(diag.PropAnchorKind, string(kind)).
			Emit()
	}
	return nil
}

// SP1005: a line comment begins with exactly one space; extra blanks after
// the marker are collapsed.
func commentSingleSpaceRule() Rule {
	return Rule{
		ID:       RuleCommentSingleSpace,
		Title:    "Single-line comment must begin with a single space",
		Severity: diag.SevWarning,
		Detect:   detectCommentSpacing,
		Provider: fix.TextProvider[fix.None](RuleCommentSingleSpace, "Single space after comment marker", commentSpacingStrategy{}),
	}
}

type commentSpacingStrategy struct {
	fix.Stateless
}

// ComputeEdit replaces the blanks after the marker of the comment at the
// finding span with one space.
func (commentSpacingStrategy) ComputeEdit(f diag.Finding, text string, _ fix.None) (fix.TextEdit, bool) {
	if !f.Span.Within(len(text)) {
		return fix.TextEdit{}, false
	}
	sub := f.Span.Slice(text)
	marker := commentMarker(sub)
	if marker == "" {
		return fix.TextEdit{}, false
	}
	i := len(marker)
	for i < len(sub) && isBlank(sub[i]) {
		i++
	}
	start := int(f.Span.Start) + len(marker)
	blanks := span(start, int(f.Span.Start)+i)
	return fix.Replace(blanks, " ", sub[len(marker):i]), true
}

func detectCommentSpacing(ctx context.Context, doc *document.Document, r diag.Reporter) error {
	comments, _, err := lineComments(ctx, doc)
	if err != nil {
		return err
	}
	for _, c := range comments {
		n := 0
		for n < len(c.body) && isBlank(c.body[n]) {
			n++
		}
		// лишние пробелы только перед текстом; пустой комментарий не трогаем
		if n == len(c.body) || c.body[:n] == " " || n == 0 {
			continue
		}
		diag.ReportWarning(r, RuleCommentSingleSpace, doc.ID(), c.span, "comment must begin with a single space").
			Emit()
	}
	return nil
}
