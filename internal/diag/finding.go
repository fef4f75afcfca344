package diag

import (
	"fmt"
	"maps"

	"remedy/internal/source"
)

// Property keys understood by the engine and the built-in rules.
const (
	// PropReplacement carries literal replacement text.
	PropReplacement = "replacement"
	// PropSuppressFix set to "true" excludes the finding from fixing.
	PropSuppressFix = "suppressFix"
	// PropAnchorKind names the node kind a node fix should anchor on.
	PropAnchorKind = "anchorKind"
	// PropExpect is guard text that must still be present at Span.
	PropExpect = "expect"
)

// Finding is a located, rule-tagged potential issue.
type Finding struct {
	RuleID     string
	DocumentID source.DocumentID
	Span       source.Span
	Properties map[string]string
	Severity   Severity
	Message    string
}

// Property returns the value for key and whether it was set.
func (f Finding) Property(key string) (string, bool) {
	v, ok := f.Properties[key]
	return v, ok
}

// WithProperty returns a copy of f with key set. f itself is not modified.
func (f Finding) WithProperty(key, value string) Finding {
	props := make(map[string]string, len(f.Properties)+1)
	maps.Copy(props, f.Properties)
	props[key] = value
	f.Properties = props
	return f
}

// WithSpan returns a copy of f pointing at sp.
func (f Finding) WithSpan(sp source.Span) Finding {
	f.Span = sp
	return f
}

// Suppressed reports whether the producer asked to skip fixing this finding.
func (f Finding) Suppressed() bool {
	return f.Properties[PropSuppressFix] == "true"
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s%s", f.RuleID, f.DocumentID, f.Span)
}
