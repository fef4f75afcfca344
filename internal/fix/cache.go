package fix

import (
	"sort"
	"strconv"
	"strings"

	"remedy/internal/diag"
	"remedy/internal/source"
)

// cacheSchema is mixed into every key; bump it when fix semantics change.
const cacheSchema = "remedy-fix-v2"

// CachedResult is what a ResultCache stores for one document run.
type CachedResult struct {
	Text    string
	Applied []diag.Finding
	Skipped []Skipped
}

// ResultCache memoizes fix-all results per document. Implementations must be
// safe for concurrent use.
type ResultCache interface {
	Get(key source.Digest) (CachedResult, bool)
	Put(key source.Digest, entry CachedResult) error
}

// CacheKey identifies a document run: the text, the parser name, the rule
// tokens in run order and the findings in input order. A rule token is the
// rule id followed by its provider fingerprint, if any. Input order is kept
// because last-wins and same-offset inserts depend on it.
func CacheKey(text, parser string, rules []string, findings []diag.Finding) source.Digest {
	var sb strings.Builder
	for i, f := range findings {
		if i > 0 {
			sb.WriteByte('\x01')
		}
		sb.WriteString(f.RuleID)
		sb.WriteByte('\x00')
		sb.WriteString(strconv.FormatUint(uint64(f.Span.Start), 10))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(f.Span.End), 10))
		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte('\x00')
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(f.Properties[k])
		}
	}
	return source.Combine(
		source.Sum(cacheSchema),
		source.Sum(text),
		source.Sum(parser),
		source.Sum(strings.Join(rules, "\x00")),
		source.Sum(sb.String()),
	)
}

// ruleTokens pairs each rule id with the fingerprint of its provider.
func (o *Orchestrator) ruleTokens(rules []string) []string {
	tokens := make([]string, len(rules))
	for i, id := range rules {
		tokens[i] = id
		if p, ok := o.registry.Lookup(id); ok {
			if fp := p.Fingerprint(); fp != "" {
				tokens[i] = id + "\x02" + fp
			}
		}
	}
	return tokens
}
