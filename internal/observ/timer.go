// Package observ measures wall-clock phases of a CLI run.
package observ

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remedy/internal/trace"
)

// Phase is one finished step of a run.
type Phase struct {
	Name string
	Took time.Duration
	Err  error
}

// Timer records run phases in order, e.g. load, detect, fix, write. Each
// phase is also a trace span under the run span in ctx. A nil Timer runs fn
// without recording. Not safe for concurrent use.
type Timer struct {
	started time.Time
	phases  []Phase
}

func NewTimer() *Timer { return &Timer{started: time.Now()} }

// Measure runs fn as phase name. fn receives a context carrying the phase span.
func (t *Timer) Measure(ctx context.Context, name string, fn func(context.Context) error) error {
	sp, pctx := trace.Start(ctx, trace.ScopeDocument, "phase:"+name)
	start := time.Now()
	err := fn(pctx)
	took := time.Since(start)
	if err != nil {
		sp.End(err.Error())
	} else {
		sp.End("")
	}
	if t != nil {
		t.phases = append(t.phases, Phase{Name: name, Took: took, Err: err})
	}
	return err
}

// Phases returns the recorded phases.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	return t.phases
}

// Elapsed is the wall time since NewTimer.
func (t *Timer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.started)
}

// Summary renders one line per phase with its share of the measured time.
func (t *Timer) Summary() string {
	var sum time.Duration
	for _, p := range t.Phases() {
		sum += p.Took
	}
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range t.Phases() {
		share := 0.0
		if sum > 0 {
			share = 100 * float64(p.Took) / float64(sum)
		}
		fmt.Fprintf(&sb, "  %-8s %9s %5.1f%%", p.Name, p.Took.Round(time.Microsecond), share)
		if p.Err != nil {
			fmt.Fprintf(&sb, "  failed: %v", p.Err)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-8s %9s\n", "total", t.Elapsed().Round(time.Microsecond))
	return sb.String()
}
