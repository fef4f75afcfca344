package fix

import (
	"testing"

	"remedy/internal/source"
)

func TestSpansConflict(t *testing.T) {
	repl := func(start, length int) TextEdit { return Replace(source.MustSpan(start, length), "x", "") }
	tests := []struct {
		name string
		a, b TextEdit
		want bool
	}{
		{"inserts at one offset", Insert(3, "a"), Insert(3, "b"), false},
		{"insert inside range", Insert(3, "a"), repl(2, 3), true},
		{"insert at range start", repl(3, 2), Insert(3, "a"), true},
		{"insert at range end", Insert(5, "a"), repl(3, 2), false},
		{"overlap", repl(2, 3), repl(4, 2), true},
		{"adjacent", repl(2, 2), repl(4, 2), false},
		{"nested", repl(0, 10), repl(4, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spansConflict(tt.a, tt.b); got != tt.want {
				t.Fatalf("spansConflict = %v, want %v", got, tt.want)
			}
			if got := spansConflict(tt.b, tt.a); got != tt.want {
				t.Fatalf("spansConflict is not symmetric")
			}
		})
	}
}
