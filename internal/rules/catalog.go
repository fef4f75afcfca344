// Package rules holds the built-in detectors and their fix providers.
//
// Every rule pairs a detector, which turns a document into findings, with a
// provider registered in the fix engine. Rules are built explicitly by
// NewCatalog; nothing registers itself.
package rules

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"remedy/internal/config"
	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/fix"
)

// Settings are the rule options taken from remedy.toml.
type Settings struct {
	NewlineAtEOF      config.NewlineMode
	CommentDirectives []string
}

// SettingsFrom extracts rule settings from a loaded config.
func SettingsFrom(cfg config.Config) Settings {
	return Settings{
		NewlineAtEOF:      cfg.Layout.NewlineAtEOF,
		CommentDirectives: slices.Clone(cfg.Spacing.CommentDirectives),
	}
}

// DefaultSettings mirrors config.Default.
func DefaultSettings() Settings {
	return SettingsFrom(config.Default())
}

// DetectFunc reports findings for one document.
type DetectFunc func(ctx context.Context, doc *document.Document, r diag.Reporter) error

// Rule is one built-in rule.
type Rule struct {
	ID       string
	Title    string
	Severity diag.Severity
	Detect   DetectFunc
	Provider fix.Provider
}

// Catalog is the fixed set of built-in rules, ordered by id.
type Catalog struct {
	rules []Rule
}

// NewCatalog builds every built-in rule for settings.
func NewCatalog(settings Settings) *Catalog {
	rules := []Rule{
		collapseSpacesRule(),
		commentMarkerSpaceRule(settings),
		commentSingleSpaceRule(),
		trailingWhitespaceRule(),
		newlineAtEOFRule(settings),
		indentationRule(),
		redundantParensRule(),
		nfcRule(),
	}
	slices.SortFunc(rules, func(a, b Rule) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return &Catalog{rules: rules}
}

// Rules returns all rules ordered by id.
func (c *Catalog) Rules() []Rule {
	return slices.Clone(c.rules)
}

// Lookup finds a rule by id.
func (c *Catalog) Lookup(id string) (Rule, bool) {
	i, ok := slices.BinarySearchFunc(c.rules, id, func(r Rule, id string) int {
		switch {
		case r.ID < id:
			return -1
		case r.ID > id:
			return 1
		}
		return 0
	})
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Registry returns the fix registry of the rules accepted by enabled.
// A nil enabled accepts every rule.
func (c *Catalog) Registry(enabled func(string) bool) (*fix.Registry, error) {
	providers := make([]fix.Provider, 0, len(c.rules))
	for _, r := range c.rules {
		if enabled != nil && !enabled(r.ID) {
			continue
		}
		providers = append(providers, r.Provider)
	}
	return fix.NewRegistry(providers...)
}

// Detect runs the enabled detectors over docs with up to jobs documents in
// parallel. Findings come back sorted.
func (c *Catalog) Detect(ctx context.Context, docs []*document.Document, enabled func(string) bool, jobs int) ([]diag.Finding, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	bags := make([]*diag.Bag, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(docs))))
	for i, doc := range docs {
		g.Go(func() error {
			bag := diag.NewBag(0)
			rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
			for _, r := range c.rules {
				if enabled != nil && !enabled(r.ID) {
					continue
				}
				if err := r.Detect(gctx, doc, rep); err != nil {
					return fmt.Errorf("%s on %s: %w", r.ID, doc.ID(), err)
				}
			}
			bags[i] = bag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := diag.NewBag(0)
	for _, b := range bags {
		all.Merge(b)
	}
	all.Sort()
	return slices.Clone(all.Items()), nil
}
