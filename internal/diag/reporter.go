package diag

import "remedy/internal/source"

// Reporter: минимальный контракт получения находок от детекторов.
// Реализации: BagReporter (кладёт в Bag), DedupReporter, NopReporter.
type Reporter interface {
	Report(f Finding)
}

// ReportBuilder accumulates finding details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	finding  Finding
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, rule string, doc source.DocumentID, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		finding: Finding{
			RuleID:     rule,
			DocumentID: doc,
			Span:       primary,
			Severity:   sev,
			Message:    msg,
		},
	}
}

// ReportWarning is a shortcut for SevWarning findings.
func ReportWarning(r Reporter, rule string, doc source.DocumentID, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, rule, doc, primary, msg)
}

// ReportInfo is a shortcut for SevInfo findings.
func ReportInfo(r Reporter, rule string, doc source.DocumentID, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevInfo, rule, doc, primary, msg)
}

// WithProperty attaches a fixer hint.
func (b *ReportBuilder) WithProperty(key, value string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.finding = b.finding.WithProperty(key, value)
	return b
}

// WithReplacement is WithProperty(PropReplacement, text).
func (b *ReportBuilder) WithReplacement(text string) *ReportBuilder {
	return b.WithProperty(PropReplacement, text)
}

// WithExpect records the text currently at the span as a staleness guard.
func (b *ReportBuilder) WithExpect(text string) *ReportBuilder {
	return b.WithProperty(PropExpect, text)
}

// Emit sends finding to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.finding)
	}
	b.emitted = true
}

// Finding returns accumulated finding without emitting.
func (b *ReportBuilder) Finding() Finding {
	if b == nil {
		return Finding{}
	}
	return b.finding
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(f Finding) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(f)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(Finding) {}
