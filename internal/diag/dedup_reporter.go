package diag

import "remedy/internal/source"

type dedupKey struct {
	rule  string
	doc   source.DocumentID
	start uint32
	end   uint32
}

// DedupReporter wraps another Reporter and suppresses duplicate findings
// with the same rule, document and span.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique findings to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(f Finding) {
	if r == nil {
		return
	}
	key := dedupKey{
		rule:  f.RuleID,
		doc:   f.DocumentID,
		start: f.Span.Start,
		end:   f.Span.End,
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(f)
	}
}
