package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"remedy/internal/fix"
)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.FixApplied("SP1001")
	r.FixApplied("SP1001")
	r.FixSkipped("SP1001", fix.SkipConflict)
	r.DocumentChanged()
	r.DocumentDuration(3 * time.Millisecond)

	if got := testutil.ToFloat64(r.applied.WithLabelValues("SP1001")); got != 2 {
		t.Errorf("applied = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.skipped.WithLabelValues("SP1001", "conflict")); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.changed); got != 1 {
		t.Errorf("changed = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.duration); n != 1 {
		t.Errorf("histogram series = %d", n)
	}
}

func TestRecordersAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.FixApplied("R")
	if got := testutil.ToFloat64(b.applied.WithLabelValues("R")); got != 0 {
		t.Fatalf("recorders share state: %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.FixApplied("LY1518")
	path := filepath.Join(t.TempDir(), "remedy.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `remedy_fixes_applied_total{rule="LY1518"} 1`) {
		t.Fatalf("textfile missing counter:\n%s", data)
	}
}
