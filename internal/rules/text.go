package rules

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/fix"
)

const RuleNFC = "TX1001"

// TX1001: text is stored in Unicode normalization form C.
func nfcRule() Rule {
	return Rule{
		ID:       RuleNFC,
		Title:    "Normalize text to NFC",
		Severity: diag.SevInfo,
		Detect:   detectNonNFC,
		Provider: fix.TextProvider[fix.None](RuleNFC, "Normalize text to NFC", nfcStrategy{}),
	}
}

type nfcStrategy struct {
	fix.Stateless
}

// ComputeEdit recomputes the normal form from the current text rather than
// trusting a stored replacement.
func (nfcStrategy) ComputeEdit(f diag.Finding, text string, _ fix.None) (fix.TextEdit, bool) {
	if !f.Span.Within(len(text)) {
		return fix.TextEdit{}, false
	}
	cur := f.Span.Slice(text)
	expect, _ := f.Property(diag.PropExpect)
	return fix.Replace(f.Span, norm.NFC.String(cur), expect), true
}

func detectNonNFC(_ context.Context, doc *document.Document, r diag.Reporter) error {
	text := doc.Text()
	if norm.NFC.IsNormalString(text) {
		return nil
	}
	eachLine(text, func(start int, line string) {
		if norm.NFC.IsNormalString(line) {
			return
		}
		diag.ReportInfo(r, RuleNFC, doc.ID(), span(start, start+len(line)), "text is not in NFC").
			WithReplacement(norm.NFC.String(line)).
			WithExpect(line).
			Emit()
	})
	return nil
}
