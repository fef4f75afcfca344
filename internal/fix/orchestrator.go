package fix

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/source"
	"remedy/internal/trace"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJobs limits the number of documents fixed concurrently.
// Zero or negative means GOMAXPROCS.
func WithJobs(n int) Option {
	return func(o *Orchestrator) {
		o.jobs = n
	}
}

// WithRules restricts the run to the given rule ids. Findings of other rules
// are ignored altogether.
func WithRules(ids ...string) Option {
	return func(o *Orchestrator) {
		if len(ids) == 0 {
			o.scope = nil
			return
		}
		o.scope = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			o.scope[id] = struct{}{}
		}
	}
}

// WithCache enables memoization of per-document results.
func WithCache(c ResultCache) Option {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

// WithMetrics sets the counter sink.
func WithMetrics(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithProgress sets the progress sink.
func WithProgress(s ProgressSink) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.progress = s
		}
	}
}

// Orchestrator runs fix-all over a set of documents. Documents are
// independent: each one is fixed by its own task that owns its contexts and
// intermediate versions. Inside a document, rule batches run one after
// another in rule id order.
type Orchestrator struct {
	registry *Registry
	jobs     int
	scope    map[string]struct{}
	cache    ResultCache
	metrics  Recorder
	progress ProgressSink
}

// NewOrchestrator creates an orchestrator over registry.
func NewOrchestrator(registry *Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		metrics:  nopRecorder{},
		progress: nopSink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// BatchReport summarises one rule batch inside a document.
type BatchReport struct {
	RuleID  string
	Applied int
	Skipped int
	Edits   []TextEdit
}

// DocumentReport is the outcome for one document.
type DocumentReport struct {
	ID       source.DocumentID
	Original *document.Document
	Fixed    *document.Document
	Changed  bool
	Cached   bool
	Applied  []diag.Finding
	Skipped  []Skipped
	Batches  []BatchReport
	Elapsed  time.Duration
}

// Report aggregates a fix-all run.
type Report struct {
	RunID string
	// Changed holds the new version of every document with at least one
	// applied fix.
	Changed   map[source.DocumentID]*document.Document
	Documents []DocumentReport
	// Orphans are findings for documents that were not supplied.
	Orphans   []Skipped
	Applied   int
	Unfixable int
}

// Skipped returns every skipped finding of the run, orphans first.
func (r *Report) Skipped() []Skipped {
	out := slices.Clone(r.Orphans)
	for _, d := range r.Documents {
		out = append(out, d.Skipped...)
	}
	return out
}

func (o *Orchestrator) inScope(rule string) bool {
	if o.scope == nil {
		return true
	}
	_, ok := o.scope[rule]
	return ok
}

// FixAll applies every in-scope finding to its document.
//
// On cancellation FixAll returns ctx.Err() and no report: no document is
// considered changed.
func (o *Orchestrator) FixAll(ctx context.Context, docs []*document.Document, findings []diag.Finding) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := &Report{
		RunID:   uuid.NewString(),
		Changed: make(map[source.DocumentID]*document.Document),
	}
	runSpan, ctx := trace.Start(ctx, trace.ScopeRun, "fix-all")
	runSpan.Set("run", report.RunID)

	byID := make(map[source.DocumentID]*document.Document, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		if _, dup := byID[d.ID()]; dup {
			runSpan.End("error")
			return nil, fmt.Errorf("fix: duplicate document %q", d.ID())
		}
		byID[d.ID()] = d
	}

	grouped := make(map[source.DocumentID][]diag.Finding)
	for _, f := range findings {
		if !o.inScope(f.RuleID) {
			continue
		}
		if _, ok := byID[f.DocumentID]; !ok {
			report.Orphans = append(report.Orphans, Skipped{Finding: f, Reason: SkipUnknownDocument, Detail: string(f.DocumentID)})
			o.metrics.FixSkipped(f.RuleID, SkipUnknownDocument)
			continue
		}
		grouped[f.DocumentID] = append(grouped[f.DocumentID], f)
	}

	ids := make([]source.DocumentID, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	jobs := o.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]DocumentReport, len(ids))

	for _, id := range ids {
		o.progress.OnEvent(Event{Document: id, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(ids))))
	for i, id := range ids {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			rep, err := o.fixDocument(gctx, byID[id], grouped[id])
			if err != nil {
				o.progress.OnEvent(Event{Document: id, Status: StatusError, Err: err})
				return err
			}
			results[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		runSpan.End("cancelled")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	report.Documents = results
	report.Unfixable = len(report.Orphans)
	for _, rep := range results {
		report.Applied += len(rep.Applied)
		report.Unfixable += len(rep.Skipped)
		if rep.Changed {
			report.Changed[rep.ID] = rep.Fixed
		}
	}
	runSpan.SetInt("documents", len(results)).
		SetInt("applied", report.Applied).
		SetInt("unfixable", report.Unfixable).
		End("")
	o.progress.OnEvent(Event{Status: StatusDone, Applied: report.Applied})
	return report, nil
}

// fixDocument runs the rule batches of one document in order. Findings of a
// later batch are carried through the edits of earlier batches; a finding
// whose span was rewritten is stale.
func (o *Orchestrator) fixDocument(ctx context.Context, doc *document.Document, findings []diag.Finding) (DocumentReport, error) {
	started := time.Now()
	sp, ctx := trace.Start(ctx, trace.ScopeDocument, string(doc.ID()))
	o.progress.OnEvent(Event{Document: doc.ID(), Status: StatusWorking})

	rep := DocumentReport{ID: doc.ID(), Original: doc, Fixed: doc}

	byRule := make(map[string][]diag.Finding)
	for _, f := range findings {
		byRule[f.RuleID] = append(byRule[f.RuleID], f)
	}
	rules := make([]string, 0, len(byRule))
	for id := range byRule {
		rules = append(rules, id)
	}
	slices.Sort(rules)

	parser := ""
	if doc.Parser() != nil {
		parser = doc.Parser().Name()
	}
	key := CacheKey(doc.Text(), parser, o.ruleTokens(rules), findings)
	if o.cache != nil {
		if hit, ok := o.cache.Get(key); ok {
			rep.Cached = true
			rep.Applied = hit.Applied
			rep.Skipped = hit.Skipped
			if hit.Text != doc.Text() {
				rep.Fixed = doc.WithText(hit.Text)
				rep.Changed = true
			}
			o.finishDocument(&rep, started, sp, StatusCached)
			return rep, nil
		}
	}

	cur := doc
	var history [][]TextEdit
	for _, rule := range rules {
		batch := byRule[rule]
		p, ok := o.registry.Lookup(rule)
		if !ok {
			for _, f := range batch {
				rep.Skipped = append(rep.Skipped, Skipped{Finding: f, Reason: SkipNoProvider})
			}
			continue
		}

		mapped := batch
		if len(history) > 0 {
			mapped = make([]diag.Finding, 0, len(batch))
			for _, f := range batch {
				moved, ok := remapThrough(f.Span, history)
				if !ok {
					rep.Skipped = append(rep.Skipped, Skipped{Finding: f, Reason: SkipStale, Detail: "span rewritten by an earlier fix"})
					continue
				}
				mapped = append(mapped, f.WithSpan(moved))
			}
		}

		res, err := ApplyBatch(ctx, cur, mapped, p)
		if err != nil {
			sp.End("cancelled")
			return DocumentReport{}, err
		}
		rep.Applied = append(rep.Applied, res.Applied...)
		rep.Skipped = append(rep.Skipped, res.Skipped...)
		rep.Batches = append(rep.Batches, BatchReport{
			RuleID:  rule,
			Applied: len(res.Applied),
			Skipped: len(res.Skipped),
			Edits:   res.Edits,
		})
		if res.Changed {
			cur = res.Document
			history = append(history, res.Edits)
		}
	}

	if cur != doc {
		rep.Fixed = cur
		rep.Changed = cur.Text() != doc.Text()
		if !rep.Changed {
			rep.Fixed = doc
		}
	}

	if o.cache != nil {
		entry := CachedResult{Text: rep.Fixed.Text(), Applied: rep.Applied, Skipped: rep.Skipped}
		if err := o.cache.Put(key, entry); err != nil {
			trace.PointCtx(ctx, trace.ScopeDocument, "cache-put", err.Error())
		}
	}
	o.finishDocument(&rep, started, sp, StatusDone)
	return rep, nil
}

func (o *Orchestrator) finishDocument(rep *DocumentReport, started time.Time, sp *trace.Span, status Status) {
	rep.Elapsed = time.Since(started)
	for _, f := range rep.Applied {
		o.metrics.FixApplied(f.RuleID)
	}
	for _, s := range rep.Skipped {
		o.metrics.FixSkipped(s.Finding.RuleID, s.Reason)
	}
	if rep.Changed {
		o.metrics.DocumentChanged()
	}
	o.metrics.DocumentDuration(rep.Elapsed)
	sp.SetInt("applied", len(rep.Applied)).
		SetInt("skipped", len(rep.Skipped)).
		End(string(status))
	o.progress.OnEvent(Event{Document: rep.ID, Status: status, Applied: len(rep.Applied), Elapsed: rep.Elapsed})
}

func remapThrough(sp source.Span, history [][]TextEdit) (source.Span, bool) {
	for _, edits := range history {
		var ok bool
		sp, ok = RemapSpan(sp, edits)
		if !ok {
			return source.Span{}, false
		}
	}
	return sp, true
}
