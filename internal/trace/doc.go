// Package trace records span and point events for remedy runs: one span per
// run, per document and per rule batch, plus point events for skipped
// findings and cache misses.
//
//	remedy fix --trace=- --trace-level=detail .
//	remedy fix --trace=run.ndjson --trace-mode=both --trace-heartbeat=1s .
//
// Spans nest through the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	sp, ctx := trace.Start(ctx, trace.ScopeDocument, "a.go")
//	defer sp.SetInt("applied", n).End("")
//
// The level picks the deepest scope that is recorded: phase keeps run and
// document events, detail adds batches, debug adds single findings.
package trace
