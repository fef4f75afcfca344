package diag

import (
	"fmt"
	"sort"

	"remedy/internal/source"
)

type Bag struct {
	items []Finding
	max   int
}

// NewBag creates a bag holding at most max findings; max <= 0 means unlimited.
func NewBag(max int) *Bag {
	capHint := max
	if capHint <= 0 || capHint > 1024 {
		capHint = 64
	}
	return &Bag{
		items: make([]Finding, 0, capHint),
		max:   max,
	}
}

// Add добавляет находку, учитывая лимит.
// Возвращает false, если находка не добавлена (достигнут лимит).
func (b *Bag) Add(f Finding) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, f)
	return true
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// HasErrors возвращает true, если есть хотя бы одна находка с Severity >= Error
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Items возвращает read-only slice находок.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Finding {
	return b.items
}

// Merge объединяет находки из другого Bag.
// Увеличивает max, если нужно вместить все элементы.
func (b *Bag) Merge(other *Bag) {
	newTotal := len(b.items) + len(other.items)
	if b.max > 0 && newTotal > b.max {
		b.max = newTotal
	}
	b.items = append(b.items, other.items...)
}

// Sort сортирует находки по: document, start, end, rule
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	SortFindings(b.items)
}

// SortFindings is the Bag ordering applied to a plain slice.
func SortFindings(items []Finding) {
	sort.SliceStable(items, func(i, j int) bool {
		fi, fj := items[i], items[j]
		if fi.DocumentID != fj.DocumentID {
			return fi.DocumentID < fj.DocumentID
		}
		if fi.Span.Start != fj.Span.Start {
			return fi.Span.Start < fj.Span.Start
		}
		if fi.Span.End != fj.Span.End {
			return fi.Span.End < fj.Span.End
		}
		return fi.RuleID < fj.RuleID
	})
}

// простая дедупликация (по Rule+Document+Span)
func (b *Bag) Dedup() {
	seen := make(map[string]bool)
	newitems := make([]Finding, 0, len(b.items))
	for _, f := range b.items {
		key := fmt.Sprintf("%s:%s:%s", f.RuleID, f.DocumentID, f.Span.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		newitems = append(newitems, f)
	}
	b.items = newitems
}

// ByDocument groups findings per document, keeping the bag order inside a group.
func (b *Bag) ByDocument() map[source.DocumentID][]Finding {
	out := make(map[source.DocumentID][]Finding)
	for _, f := range b.items {
		out[f.DocumentID] = append(out[f.DocumentID], f)
	}
	return out
}

// ByRule groups findings per rule id, keeping the bag order inside a group.
func (b *Bag) ByRule() map[string][]Finding {
	out := make(map[string][]Finding)
	for _, f := range b.items {
		out[f.RuleID] = append(out[f.RuleID], f)
	}
	return out
}
