package rules

import (
	"context"
	"strings"

	"remedy/internal/config"
	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/fix"
)

const (
	RuleNewlineAtEOF = "LY1518"
	RuleIndentation  = "RD1137"
)

// tabWidth is the column width of a tab for indentation rules.
const tabWidth = 4

// LY1518: the file ends with exactly one newline (require), with none (omit),
// or with at most one (allow).
func newlineAtEOFRule(settings Settings) Rule {
	s := eofStrategy{mode: settings.NewlineAtEOF}
	return Rule{
		ID:       RuleNewlineAtEOF,
		Title:    "Normalize newline at end of file",
		Severity: diag.SevWarning,
		Detect:   s.detect,
		Provider: fix.TextProvider[config.NewlineMode](RuleNewlineAtEOF, "Normalize newline at end of file", s),
	}
}

type eofStrategy struct {
	mode config.NewlineMode
}

func (s eofStrategy) Fingerprint() string { return "newline_at_eof=" + string(s.mode) }

func (s eofStrategy) CreateContext(context.Context, *document.Document) (config.NewlineMode, bool) {
	switch s.mode {
	case config.NewlineRequire, config.NewlineOmit, config.NewlineAllow:
		return s.mode, true
	case "":
		return config.NewlineRequire, true
	}
	return "", false
}

func (s eofStrategy) ComputeEdit(f diag.Finding, text string, mode config.NewlineMode) (fix.TextEdit, bool) {
	if !f.Span.Within(len(text)) {
		return fix.TextEdit{}, false
	}
	tail := f.Span.Slice(text)
	if strings.TrimSpace(tail) != "" {
		return fix.TextEdit{}, false
	}
	want, ok := desiredTail(mode, tail)
	if !ok {
		return fix.TextEdit{}, false
	}
	expect, _ := f.Property(diag.PropExpect)
	return fix.Replace(f.Span, want, expect), true
}

// desiredTail returns what the trailing whitespace of a file should become.
func desiredTail(mode config.NewlineMode, tail string) (string, bool) {
	switch mode {
	case config.NewlineOmit:
		return "", true
	case config.NewlineAllow:
		if tail == "" || tail == "\n" {
			return tail, true
		}
		if strings.Contains(tail, "\n") {
			return "\n", true
		}
		return "", true
	case config.NewlineRequire, "":
		return "\n", true
	}
	return "", false
}

func (s eofStrategy) detect(_ context.Context, doc *document.Document, r diag.Reporter) error {
	text := doc.Text()
	end := len(strings.TrimRight(text, " \t\r\n"))
	if end == 0 {
		// пустой файл или одни пробелы
		return nil
	}
	tail := text[end:]
	want, ok := desiredTail(s.mode, tail)
	if !ok || want == tail {
		return nil
	}
	msg := "file must end with a single newline"
	if want == "" {
		msg = "file must not end with a newline"
	}
	diag.ReportWarning(r, RuleNewlineAtEOF, doc.ID(), span(end, len(text)), msg).
		WithExpect(tail).
		Emit()
	return nil
}

// RD1137: indentation mixing tabs and spaces is rewritten as tabs followed
// by the spaces that do not fill a whole tab.
func indentationRule() Rule {
	return Rule{
		ID:       RuleIndentation,
		Title:    "Fix indentation",
		Severity: diag.SevInfo,
		Detect:   detectMixedIndentation,
		Provider: fix.TextProvider[fix.None](RuleIndentation, "Fix indentation", replacementStrategy{}),
	}
}

// normalizeIndent expands indent to columns and rebuilds it with tabs.
func normalizeIndent(indent string) string {
	cols := 0
	for i := 0; i < len(indent); i++ {
		if indent[i] == '\t' {
			cols += tabWidth - cols%tabWidth
		} else {
			cols++
		}
	}
	return strings.Repeat("\t", cols/tabWidth) + strings.Repeat(" ", cols%tabWidth)
}

func detectMixedIndentation(_ context.Context, doc *document.Document, r diag.Reporter) error {
	eachLine(doc.Text(), func(start int, line string) {
		n := 0
		for n < len(line) && isBlank(line[n]) {
			n++
		}
		if n == 0 || n == len(line) {
			return
		}
		indent := line[:n]
		if !strings.Contains(indent, "\t") || !strings.Contains(indent, " ") {
			return
		}
		want := normalizeIndent(indent)
		if want == indent {
			return
		}
		diag.ReportInfo(r, RuleIndentation, doc.ID(), span(start, start+n), "indentation mixes tabs and spaces").
			WithReplacement(want).
			WithExpect(indent).
			Emit()
	})
	return nil
}
