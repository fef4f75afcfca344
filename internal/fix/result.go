package fix

import (
	"remedy/internal/diag"
	"remedy/internal/document"
)

// SkipReason explains why a finding was not fixed. None of them is an error:
// skipped findings leave the document untouched.
type SkipReason uint8

const (
	// SkipUnlocatable: the finding no longer maps to a node or a valid span.
	SkipUnlocatable SkipReason = iota + 1
	// SkipNoContext: the strategy could not build its context for the document.
	SkipNoContext
	// SkipNoTree: a node strategy needs a tree and the document has none.
	SkipNoTree
	// SkipConflict: the edit overlaps an edit that was accepted earlier.
	SkipConflict
	// SkipStale: the guarded text changed, or an earlier fix rewrote the span.
	SkipStale
	// SkipSuppressed: the finding asks not to be fixed.
	SkipSuppressed
	// SkipDuplicateTarget: a later finding targets the same node and wins.
	SkipDuplicateTarget
	// SkipNoProvider: no provider is registered for the rule.
	SkipNoProvider
	// SkipUnknownDocument: the finding names a document that was not supplied.
	SkipUnknownDocument
	// SkipNoop: the fix would not change the document.
	SkipNoop
)

func (r SkipReason) String() string {
	switch r {
	case SkipUnlocatable:
		return "unlocatable"
	case SkipNoContext:
		return "no-context"
	case SkipNoTree:
		return "no-tree"
	case SkipConflict:
		return "conflict"
	case SkipStale:
		return "stale"
	case SkipSuppressed:
		return "suppressed"
	case SkipDuplicateTarget:
		return "duplicate-target"
	case SkipNoProvider:
		return "no-provider"
	case SkipUnknownDocument:
		return "unknown-document"
	case SkipNoop:
		return "noop"
	default:
		return "unknown"
	}
}

// Skipped captures a finding that was not fixed with a reason.
type Skipped struct {
	Finding diag.Finding
	Reason  SkipReason
	Detail  string
}

// Result is the outcome of applying one batch to one document.
//
// Document is the new version when Changed is set, otherwise the input
// document itself. Edits are the applied changes in the coordinates of the
// input document, sorted by start.
type Result struct {
	Document *document.Document
	Changed  bool
	Applied  []diag.Finding
	Skipped  []Skipped
	Edits    []TextEdit
}

func (r *Result) skip(f diag.Finding, reason SkipReason, detail string) {
	r.Skipped = append(r.Skipped, Skipped{Finding: f, Reason: reason, Detail: detail})
}

func (r *Result) skipAll(findings []diag.Finding, reason SkipReason, detail string) {
	for _, f := range findings {
		r.skip(f, reason, detail)
	}
}

// unchanged resets r to "nothing applied" and reports applied findings as noops.
func (r *Result) unchanged(doc *document.Document) {
	for _, f := range r.Applied {
		r.skip(f, SkipNoop, "")
	}
	r.Document = doc
	r.Changed = false
	r.Applied = nil
	r.Edits = nil
}
