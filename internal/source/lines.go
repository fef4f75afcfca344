package source

import (
	"fmt"

	"fortio.org/safecast"
)

// LineIndex maps byte offsets to line/column positions.
// It stores the offset of every '\n' in the text.
type LineIndex struct {
	newlines []uint32
	size     uint32
}

// NewLineIndex scans text once and records line breaks.
func NewLineIndex(text string) *LineIndex {
	size, err := safecast.Conv[uint32](len(text))
	if err != nil {
		panic(fmt.Errorf("text length overflow: %w", err))
	}
	return &LineIndex{newlines: buildLineIndex(text), size: size}
}

// Lines returns the number of lines. A trailing newline does not open a new line.
func (idx *LineIndex) Lines() int {
	n := len(idx.newlines)
	if n == 0 || idx.newlines[n-1] != idx.size-1 {
		return n + 1
	}
	return n
}

// Resolve converts a span into line and column positions.
func (idx *LineIndex) Resolve(span Span) (start, end LineCol) {
	return toLineCol(idx.newlines, span.Start), toLineCol(idx.newlines, span.End)
}

// Position converts a single offset.
func (idx *LineIndex) Position(off uint32) LineCol {
	return toLineCol(idx.newlines, off)
}

// LineSpan returns the span of line lineNum (1-based) without its newline.
// The second result is false when the line does not exist.
func (idx *LineIndex) LineSpan(lineNum uint32) (Span, bool) {
	if lineNum == 0 {
		return Span{}, false
	}
	lenLineIdx, err := safecast.Conv[uint32](len(idx.newlines))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}

	var start, end uint32
	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = idx.newlines[lineNum-2] + 1
	default:
		return Span{}, false
	}

	if (lineNum - 1) < lenLineIdx {
		end = idx.newlines[lineNum-1]
	} else {
		end = idx.size
	}
	if start > idx.size || (start == idx.size && lineNum > 1) {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}
