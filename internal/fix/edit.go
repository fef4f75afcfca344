package fix

import (
	"sort"
	"strings"

	"remedy/internal/source"
)

// TextEdit replaces Span with NewText. Expect, when set, is the text the span
// must still hold; an edit whose guard does not match is stale.
type TextEdit struct {
	Span    source.Span
	NewText string
	Expect  string
}

// Insert creates an edit that inserts text at offset.
func Insert(at uint32, text string) TextEdit {
	return TextEdit{Span: source.At(at), NewText: text}
}

// Delete removes text covered by span. expect guards the removed text.
func Delete(span source.Span, expect string) TextEdit {
	return TextEdit{Span: span, Expect: expect}
}

// Replace swaps the text covered by span for text.
func Replace(span source.Span, text, expect string) TextEdit {
	return TextEdit{Span: span, NewText: text, Expect: expect}
}

// Delta is the change in document length caused by the edit.
func (e TextEdit) Delta() int {
	return len(e.NewText) - int(e.Span.Len())
}

// spansConflict reports whether a and b touch the same bytes. An insert
// collides with a replacement whose half-open range holds its offset; two
// inserts never collide, even at one offset.
func spansConflict(a, b TextEdit) bool {
	as, ae, bs, be := a.Span.Start, a.Span.End, b.Span.Start, b.Span.End
	switch {
	case as == ae && bs == be:
		return false
	case as == ae:
		return bs <= as && as < be
	case bs == be:
		return as <= bs && bs < ae
	default:
		return as < be && bs < ae
	}
}

// sortEdits orders edits by start; ties keep their input order.
func sortEdits(edits []TextEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Span.Start < edits[j].Span.Start
	})
}

// splice applies sorted, non-conflicting edits to text in one pass.
func splice(text string, edits []TextEdit) string {
	if len(edits) == 0 {
		return text
	}
	grow := len(text)
	for _, e := range edits {
		grow += max(e.Delta(), 0)
	}
	var sb strings.Builder
	sb.Grow(grow)
	prev := uint32(0)
	for _, e := range edits {
		sb.WriteString(text[prev:e.Span.Start])
		sb.WriteString(e.NewText)
		prev = e.Span.End
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

// Splice sorts edits, drops those that conflict with an earlier one, and
// applies the rest. It returns the new text and the edits it applied.
func Splice(text string, edits []TextEdit) (string, []TextEdit) {
	sorted := make([]TextEdit, len(edits))
	copy(sorted, edits)
	sortEdits(sorted)
	accepted := make([]TextEdit, 0, len(sorted))
	for _, e := range sorted {
		if !e.Span.Within(len(text)) || conflictsWithAccepted(accepted, e) {
			continue
		}
		accepted = append(accepted, e)
	}
	return splice(text, accepted), accepted
}

// conflictsWithAccepted checks e against edits accepted so far. Accepted
// edits are sorted and disjoint, so their ends never decrease and the scan
// stops at the first edit that ends strictly before e starts.
func conflictsWithAccepted(accepted []TextEdit, e TextEdit) bool {
	for i := len(accepted) - 1; i >= 0; i-- {
		prev := accepted[i]
		if prev.Span.End < e.Span.Start {
			return false
		}
		if spansConflict(prev, e) {
			return true
		}
	}
	return false
}
