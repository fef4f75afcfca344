package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLevelScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelError, ScopeRun, false},
		{LevelPhase, ScopeRun, true},
		{LevelPhase, ScopeDocument, true},
		{LevelPhase, ScopeBatch, false},
		{LevelDetail, ScopeBatch, true},
		{LevelDetail, ScopeFinding, false},
		{LevelDebug, ScopeFinding, true},
		{LevelDebug, 0, false},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel(" DETAIL "); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if l, err := ParseLevel(""); err != nil || l != LevelOff {
		t.Fatalf("ParseLevel(\"\") = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if m, err := ParseMode(""); err != nil || m != ModeStream {
		t.Fatalf("ParseMode(\"\") = %v, %v", m, err)
	}
	if m, err := ParseMode("Both"); err != nil || m != ModeBoth || m.String() != "both" {
		t.Fatalf("ParseMode(Both) = %v, %v", m, err)
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestStartPropagatesParent(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	run, ctx := Start(ctx, ScopeRun, "fix-all")
	doc, dctx := Start(ctx, ScopeDocument, "a.go")
	PointCtx(dctx, ScopeFinding, "skip", "conflict", Str("rule", "SP1001"))
	doc.End("")
	run.End("")

	events := ring.Snapshot()
	if len(events) != 5 {
		t.Fatalf("events = %d, want 5", len(events))
	}
	if events[1].ParentID != run.ID() {
		t.Errorf("document parent = %d, want %d", events[1].ParentID, run.ID())
	}
	if events[2].Kind != KindPoint || events[2].ParentID != doc.ID() {
		t.Errorf("point event = %+v", events[2])
	}
	if v, ok := events[2].Attr("rule"); !ok || v != "SP1001" {
		t.Errorf("rule attr = %q, %v", v, ok)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("sequence not increasing at %d", i)
		}
	}
}

func TestRingKeepsNewest(t *testing.T) {
	ring := NewRingTracer(3, LevelPhase)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ring, ScopeRun, name, 0, "")
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ""); got != "cde" {
		t.Fatalf("snapshot = %q, want cde", got)
	}
	if ring.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", ring.Dropped())
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("dump:\n%s", buf.String())
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	sp := Begin(tr, ScopeRun, "fix-all", 0)
	Begin(tr, ScopeBatch, "batch:SP1001", sp.ID()).End("")
	sp.SetInt("docs", 2).Set("note", "two words").End("done")
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if strings.Contains(out, "batch:SP1001") {
		t.Errorf("batch scope leaked at phase level:\n%s", out)
	}
	if !strings.Contains(out, `< fix-all (done) docs=2 note="two words"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Point(tr, ScopeDocument, "cache-put", 7, "disk full", Str("z", "1"), Str("a", "2"))
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	line := buf.String()
	if !strings.Contains(line, `"attrs":{"z":"1","a":"2"}`) {
		t.Fatalf("attrs lost their order: %s", line)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["parent"] != float64(7) || decoded["scope"] != "document" {
		t.Fatalf("decoded = %v", decoded)
	}
}

type failWriter struct{ n int }

func (w *failWriter) Write(p []byte) (int, error) {
	w.n++
	return 0, errors.New("broken pipe")
}

func TestStreamTracerReportsWriteError(t *testing.T) {
	w := &failWriter{}
	tr := NewStreamTracer(w, LevelPhase, FormatText)
	Point(tr, ScopeRun, "a", 0, "")
	Point(tr, ScopeRun, "b", 0, "")
	if err := tr.Close(); err == nil {
		t.Fatalf("expected write error")
	}
	if w.n != 1 {
		t.Fatalf("writes after failure = %d, want 1", w.n)
	}
}

func TestNewPicksFormatFromPath(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, OutputPath: "run.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	Point(tr, ScopeRun, "x", 0, "")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected ndjson, got %q", buf.String())
	}
	multi, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("both mode gave %T", tr)
	}
	if ring, ok := multi.Ring(); !ok || len(ring.Snapshot()) != 1 {
		t.Fatalf("ring member missing or empty")
	}

	off, err := New(Config{Level: LevelOff})
	if err != nil || off != Nop {
		t.Fatalf("LevelOff = %v, %v", off, err)
	}
}

func TestHeartbeat(t *testing.T) {
	ring := NewRingTracer(64, LevelError)
	hb := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()

	events := ring.Snapshot()
	if len(events) == 0 || events[0].Kind != KindHeartbeat {
		t.Fatalf("no heartbeat recorded: %+v", events)
	}
	if n, _ := events[0].Attr("n"); n != "1" {
		t.Fatalf("first beat n = %q", n)
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("disabled tracer must not beat")
	}
	var nilBeat *Heartbeat
	nilBeat.Stop()
}

func TestNopIsSilent(t *testing.T) {
	sp := Begin(Nop, ScopeRun, "x", 0)
	if sp.ID() != 0 || sp.Set("k", "v").End("") != 0 {
		t.Fatalf("nop span should be inert")
	}
	ctx := context.Background()
	if FromContext(ctx) != Nop {
		t.Fatalf("empty context should give Nop")
	}
	s, got := Start(ctx, ScopeRun, "x")
	if s.ID() != 0 || got != ctx {
		t.Fatalf("Start without tracer must return the same context")
	}
}
