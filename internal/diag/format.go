package diag

import (
	"fmt"
	"sort"
	"strings"

	"remedy/internal/source"
)

// Locator resolves a finding position for display.
type Locator interface {
	Locate(doc source.DocumentID, sp source.Span) (path string, pos source.LineCol, ok bool)
}

type shortFinding struct {
	Severity string
	Rule     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShort renders findings into a stable, single-line-per-entry form:
// "<severity> <rule> <path>:<line>:<col> <message>". Findings the locator
// cannot place are dropped.
func FormatShort(findings []Finding, loc Locator) string {
	if loc == nil || len(findings) == 0 {
		return ""
	}

	rendered := make([]shortFinding, 0, len(findings))
	for _, f := range findings {
		path, pos, ok := loc.Locate(f.DocumentID, f.Span)
		if !ok {
			continue
		}
		rendered = append(rendered, shortFinding{
			Severity: f.Severity.Label(),
			Rule:     f.RuleID,
			Path:     path,
			Line:     pos.Line,
			Column:   pos.Col,
			Message:  sanitizeMessage(f.Message),
		})
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Rule != dj.Rule {
			return di.Rule < dj.Rule
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Rule, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
