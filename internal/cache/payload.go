package cache

import (
	"time"

	"remedy/internal/diag"
	"remedy/internal/fix"
	"remedy/internal/source"
)

func toPayload(entry fix.CachedResult) *Payload {
	p := &Payload{
		Schema:   diskSchemaVersion,
		Text:     entry.Text,
		Applied:  make([]FindingRecord, len(entry.Applied)),
		Skipped:  make([]SkipRecord, len(entry.Skipped)),
		StoredAt: time.Now().Unix(),
	}
	for i, f := range entry.Applied {
		p.Applied[i] = toRecord(f)
	}
	for i, s := range entry.Skipped {
		p.Skipped[i] = SkipRecord{Finding: toRecord(s.Finding), Reason: uint8(s.Reason), Detail: s.Detail}
	}
	return p
}

func fromPayload(p *Payload) fix.CachedResult {
	out := fix.CachedResult{Text: p.Text}
	if len(p.Applied) > 0 {
		out.Applied = make([]diag.Finding, len(p.Applied))
		for i, r := range p.Applied {
			out.Applied[i] = fromRecord(r)
		}
	}
	if len(p.Skipped) > 0 {
		out.Skipped = make([]fix.Skipped, len(p.Skipped))
		for i, r := range p.Skipped {
			out.Skipped[i] = fix.Skipped{Finding: fromRecord(r.Finding), Reason: fix.SkipReason(r.Reason), Detail: r.Detail}
		}
	}
	return out
}

func toRecord(f diag.Finding) FindingRecord {
	return FindingRecord{
		Rule:       f.RuleID,
		Document:   string(f.DocumentID),
		Start:      f.Span.Start,
		End:        f.Span.End,
		Severity:   uint8(f.Severity),
		Message:    f.Message,
		Properties: f.Properties,
	}
}

func fromRecord(r FindingRecord) diag.Finding {
	return diag.Finding{
		RuleID:     r.Rule,
		DocumentID: source.DocumentID(r.Document),
		Span:       source.Span{Start: r.Start, End: r.End},
		Severity:   diag.Severity(r.Severity),
		Message:    r.Message,
		Properties: r.Properties,
	}
}
