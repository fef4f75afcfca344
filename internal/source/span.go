package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Span is a half-open byte interval [Start, End) inside one document.
type Span struct {
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// NewSpan builds a span from the {start, length} pair used by findings.
func NewSpan(start, length int) (Span, error) {
	if start < 0 || length < 0 {
		return Span{}, fmt.Errorf("source: negative span start=%d length=%d", start, length)
	}
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return Span{}, fmt.Errorf("source: span start overflow: %w", err)
	}
	end, err := safecast.Conv[uint32](start + length)
	if err != nil {
		return Span{}, fmt.Errorf("source: span end overflow: %w", err)
	}
	return Span{Start: s, End: end}, nil
}

// MustSpan is NewSpan for constant spans in tests and fixtures.
func MustSpan(start, length int) Span {
	sp, err := NewSpan(start, length)
	if err != nil {
		panic(err)
	}
	return sp
}

// At returns an empty span positioned at off.
func At(off uint32) Span {
	return Span{Start: off, End: off}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Valid reports whether Start <= End.
func (s Span) Valid() bool {
	return s.Start <= s.End
}

// Within reports whether the span is valid and fits into a buffer of size limit.
func (s Span) Within(limit int) bool {
	if !s.Valid() || limit < 0 {
		return false
	}
	return int(s.End) <= limit
}

// Contains reports whether off lies inside [Start, End).
func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off < s.End
}

// ContainsSpan reports whether other lies fully inside s. An empty span at End
// is considered contained.
func (s Span) ContainsSpan(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps reports whether two spans share at least one byte.
// Empty spans never overlap anything.
func (s Span) Overlaps(other Span) bool {
	if s.Empty() || other.Empty() {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// Cover returns the smallest span covering both s and other.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

func (s Span) ShiftLeft(n uint32) Span {
	if n > s.Start {
		return s
	}
	return Span{
		Start: s.Start - n,
		End:   s.End - n,
	}
}

func (s Span) ShiftRight(n uint32) Span {
	return Span{
		Start: s.Start + n,
		End:   s.End + n,
	}
}

// Slice returns text[Start:End]. The caller must check Within first.
func (s Span) Slice(text string) string {
	return text[s.Start:s.End]
}
