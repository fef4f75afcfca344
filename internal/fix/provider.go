package fix

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"remedy/internal/diag"
	"remedy/internal/document"
)

var (
	// ErrDuplicateRule is returned when two providers claim one rule id.
	ErrDuplicateRule = errors.New("fix: duplicate rule id")
	// ErrEmptyRule is returned for providers without a rule id.
	ErrEmptyRule = errors.New("fix: empty rule id")
	// ErrNoFixes is returned by callers that require at least one applied fix.
	ErrNoFixes = errors.New("no applicable fixes found")
)

// Granularity tells which batch algorithm a provider uses.
type Granularity uint8

const (
	GranularityNode Granularity = iota + 1
	GranularityText
)

func (g Granularity) String() string {
	switch g {
	case GranularityNode:
		return "node"
	case GranularityText:
		return "text"
	default:
		return "unknown"
	}
}

// Provider binds a rule id to exactly one strategy. Providers are created with
// NodeProvider or TextProvider; the set of batch algorithms is closed.
type Provider interface {
	RuleID() string
	Title() string
	Granularity() Granularity
	// Fingerprint describes the settings the strategy was built with. It is
	// part of the result cache key; empty when the strategy has none.
	Fingerprint() string
	applyBatch(ctx context.Context, doc *document.Document, findings []diag.Finding) (Result, error)
}

// Fingerprinter is implemented by strategies whose edits depend on
// configuration beyond the document and its findings.
type Fingerprinter interface {
	Fingerprint() string
}

func fingerprintOf(strategy any) string {
	if fp, ok := strategy.(Fingerprinter); ok {
		return fp.Fingerprint()
	}
	return ""
}

type providerInfo struct {
	rule  string
	title string
}

func (p providerInfo) RuleID() string { return p.rule }
func (p providerInfo) Title() string  { return p.title }

type nodeProvider[C any] struct {
	providerInfo
	strategy NodeStrategy[C]
}

// NodeProvider registers a tree based strategy for rule.
func NodeProvider[C any](rule, title string, s NodeStrategy[C]) Provider {
	return &nodeProvider[C]{providerInfo: providerInfo{rule: rule, title: title}, strategy: s}
}

func (p *nodeProvider[C]) Granularity() Granularity { return GranularityNode }
func (p *nodeProvider[C]) Fingerprint() string      { return fingerprintOf(p.strategy) }

func (p *nodeProvider[C]) applyBatch(ctx context.Context, doc *document.Document, findings []diag.Finding) (Result, error) {
	return applyNodeBatch(ctx, doc, p.rule, findings, p.strategy)
}

type textProvider[C any] struct {
	providerInfo
	strategy TextStrategy[C]
}

// TextProvider registers a text edit strategy for rule.
func TextProvider[C any](rule, title string, s TextStrategy[C]) Provider {
	return &textProvider[C]{providerInfo: providerInfo{rule: rule, title: title}, strategy: s}
}

func (p *textProvider[C]) Granularity() Granularity { return GranularityText }
func (p *textProvider[C]) Fingerprint() string      { return fingerprintOf(p.strategy) }

func (p *textProvider[C]) applyBatch(ctx context.Context, doc *document.Document, findings []diag.Finding) (Result, error) {
	return applyTextBatch(ctx, doc, p.rule, findings, p.strategy)
}

// Registry is the static rule id -> provider table. It is built once and
// never changes afterwards, so it can be shared freely.
type Registry struct {
	byID map[string]Provider
	ids  []string
}

// NewRegistry validates and indexes providers.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{byID: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		id := p.RuleID()
		if id == "" {
			return nil, fmt.Errorf("%w (title %q)", ErrEmptyRule, p.Title())
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, id)
		}
		r.byID[id] = p
		r.ids = append(r.ids, id)
	}
	slices.Sort(r.ids)
	return r, nil
}

// Lookup returns the provider for rule.
func (r *Registry) Lookup(rule string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.byID[rule]
	return p, ok
}

// IDs returns registered rule ids in sorted order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.ids)
}

// Providers returns providers ordered by rule id.
func (r *Registry) Providers() []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ids)
}
