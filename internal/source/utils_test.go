package source

import (
	"testing"
)

func TestNormalizeCRLF(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{in: "a\nb", want: "a\nb", changed: false},
		{in: "a\r\nb\r\n", want: "a\nb\n", changed: true},
		{in: "a\rb", want: "a\rb", changed: false},
	}
	for _, tt := range tests {
		got, changed := NormalizeCRLF([]byte(tt.in))
		if string(got) != tt.want || changed != tt.changed {
			t.Errorf("NormalizeCRLF(%q) = %q, %v; want %q, %v", tt.in, got, changed, tt.want, tt.changed)
		}
	}
	if got := RestoreCRLF("a\nb\n"); got != "a\r\nb\r\n" {
		t.Errorf("RestoreCRLF() = %q", got)
	}
}

func TestRemoveBOM(t *testing.T) {
	got, had := RemoveBOM([]byte("\xEF\xBB\xBFhello"))
	if !had || string(got) != "hello" {
		t.Fatalf("RemoveBOM() = %q, %v", got, had)
	}
	got, had = RemoveBOM([]byte("hi"))
	if had || string(got) != "hi" {
		t.Fatalf("RemoveBOM() on short input = %q, %v", got, had)
	}
	if RestoreBOM("x") != "\xEF\xBB\xBFx" {
		t.Fatalf("RestoreBOM() failed")
	}
}

func TestLineIndex(t *testing.T) {
	idx := NewLineIndex("ab\ncd\n\nef")
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{off: 0, want: LineCol{Line: 1, Col: 1}},
		{off: 2, want: LineCol{Line: 1, Col: 3}},
		{off: 3, want: LineCol{Line: 2, Col: 1}},
		{off: 6, want: LineCol{Line: 3, Col: 1}},
		{off: 8, want: LineCol{Line: 4, Col: 2}},
	}
	for _, tt := range tests {
		if got := idx.Position(tt.off); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.off, got, tt.want)
		}
	}
	if idx.Lines() != 4 {
		t.Errorf("Lines() = %d, want 4", idx.Lines())
	}
	sp, ok := idx.LineSpan(2)
	if !ok || sp != (Span{Start: 3, End: 5}) {
		t.Errorf("LineSpan(2) = %v, %v", sp, ok)
	}
	if _, ok := idx.LineSpan(9); ok {
		t.Errorf("LineSpan(9) should not exist")
	}
}

func TestLineIndexTrailingNewline(t *testing.T) {
	idx := NewLineIndex("a\nb\n")
	if idx.Lines() != 2 {
		t.Errorf("Lines() = %d, want 2", idx.Lines())
	}
	if _, ok := idx.LineSpan(3); ok {
		t.Errorf("line after trailing newline should not exist")
	}
}

func TestDigest(t *testing.T) {
	a, b := Sum("a"), Sum("b")
	if a == b {
		t.Fatalf("different texts must hash differently")
	}
	if Combine(a, b) == Combine(b, a) {
		t.Fatalf("Combine must depend on order")
	}
	if !(Digest{}).IsZero() || a.IsZero() {
		t.Fatalf("IsZero mismatch")
	}
	if len(a.String()) != 64 {
		t.Fatalf("hex digest length = %d", len(a.String()))
	}
}

func TestRelativePath(t *testing.T) {
	base := t.TempDir()
	got, err := RelativePath(base+"/pkg/a.go", base)
	if err != nil {
		t.Fatalf("RelativePath: %v", err)
	}
	if got != "pkg/a.go" {
		t.Errorf("RelativePath() = %q", got)
	}
	if BaseName("x/y/z.go") != "z.go" {
		t.Errorf("BaseName failed")
	}
}
