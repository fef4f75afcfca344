package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"remedy/internal/cache"
	"remedy/internal/config"
	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/fix"
	"remedy/internal/metrics"
	"remedy/internal/observ"
	"remedy/internal/rules"
	"remedy/internal/source"
	"remedy/internal/trace"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [path...]",
	Short: "Apply every available fix to files or directories",
	Long:  "Detect findings with the built-in rules (or read them from --findings) and apply all fixes per document in one pass.",
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().String("findings", "", "read findings from a YAML/JSON file instead of running detectors")
	fixCmd.Flags().StringArray("rule", nil, "limit fixing to this rule id (repeatable)")
	fixCmd.Flags().Bool("dry-run", false, "print a diff instead of writing files")
	fixCmd.Flags().Int("jobs", 0, "max parallel documents (0=config or GOMAXPROCS)")
	fixCmd.Flags().Bool("no-cache", false, "disable the fix result cache")
	fixCmd.Flags().String("metrics", "", "write Prometheus metrics in text format to FILE")
	fixCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	fixCmd.Flags().Bool("verbose", false, "list every skipped finding")
}

type fixOptions struct {
	findingsPath string
	ruleScope    []string
	dryRun       bool
	jobs         int
	noCache      bool
	metricsPath  string
	ui           uiMode
	verbose      bool
	quiet        bool
	timings      bool
}

func readFixOptions(cmd *cobra.Command) (fixOptions, error) {
	var opts fixOptions
	var err error
	if opts.findingsPath, err = cmd.Flags().GetString("findings"); err != nil {
		return opts, fmt.Errorf("failed to get findings flag: %w", err)
	}
	if opts.ruleScope, err = cmd.Flags().GetStringArray("rule"); err != nil {
		return opts, fmt.Errorf("failed to get rule flag: %w", err)
	}
	if opts.dryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return opts, fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.jobs < 0 {
		return opts, fmt.Errorf("--jobs must not be negative, got %d", opts.jobs)
	}
	if opts.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return opts, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if opts.metricsPath, err = cmd.Flags().GetString("metrics"); err != nil {
		return opts, fmt.Errorf("failed to get metrics flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}
	if opts.verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return opts, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	opts, err := readFixOptions(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	if opts.jobs == 0 {
		opts.jobs = cfg.Fix.Jobs
	}

	ctx := cmd.Context()
	span, ctx := trace.Start(ctx, trace.ScopeRun, "fix")
	defer span.End("")

	timer := observ.NewTimer()
	catalog := rules.NewCatalog(rules.SettingsFrom(cfg))

	var (
		set      *document.Set
		docs     []*document.Document
		findings []diag.Finding
	)
	err = timer.Measure(ctx, "load", func(ctx context.Context) error {
		paths, err := collectPaths(args)
		if err != nil {
			return err
		}
		set, docs, err = loadDocuments(paths)
		return err
	})
	if err != nil {
		return err
	}

	err = timer.Measure(ctx, "detect", func(ctx context.Context) error {
		if opts.findingsPath != "" {
			var lerr error
			findings, lerr = diag.LoadFindingsFile(opts.findingsPath)
			return lerr
		}
		var derr error
		findings, derr = catalog.Detect(ctx, docs, cfg.Enabled, opts.jobs)
		return derr
	})
	if err != nil {
		return err
	}

	registry, err := catalog.Registry(cfg.Enabled)
	if err != nil {
		return err
	}

	var recorder *metrics.Recorder
	baseOpts := []fix.Option{fix.WithJobs(opts.jobs)}
	if len(opts.ruleScope) > 0 {
		baseOpts = append(baseOpts, fix.WithRules(opts.ruleScope...))
	}
	if cfg.Fix.Cache && !opts.noCache {
		rc, err := openResultCache(cfg)
		if err != nil {
			return err
		}
		baseOpts = append(baseOpts, fix.WithCache(rc))
	}
	if opts.metricsPath != "" {
		recorder = metrics.New()
		baseOpts = append(baseOpts, fix.WithMetrics(recorder))
	}
	newOrch := func(sink fix.ProgressSink) *fix.Orchestrator {
		o := baseOpts
		if sink != nil {
			o = append(slices.Clone(baseOpts), fix.WithProgress(sink))
		}
		return fix.NewOrchestrator(registry, o...)
	}

	var report *fix.Report
	err = timer.Measure(ctx, "fix", func(ctx context.Context) error {
		var ferr error
		if !opts.quiet && shouldUseTUI(opts.ui, len(docs)) {
			ids, names := labels(set, docs)
			report, ferr = runFixWithUI(ctx, "remedy fix", ids, names, newOrch, docs, findings)
			return ferr
		}
		report, ferr = newOrch(nil).FixAll(ctx, docs, findings)
		return ferr
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	err = timer.Measure(ctx, "write", func(ctx context.Context) error {
		if opts.dryRun {
			return printDiffs(out, set, report)
		}
		return writeChanged(set, report)
	})
	if err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(opts.metricsPath); err != nil {
			return err
		}
	}
	if !opts.quiet {
		if err := printFixSummary(out, set, report, opts); err != nil {
			return err
		}
	}
	if opts.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

// openResultCache layers an in-process cache over the on-disk one.
func openResultCache(cfg config.Config) (fix.ResultCache, error) {
	disk, err := cache.OpenDiskCache(cfg.Fix.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return cache.Layered{cache.NewMemoryCache(0), disk}, nil
}

func changedIDs(report *fix.Report) []source.DocumentID {
	ids := make([]source.DocumentID, 0, len(report.Changed))
	for id := range report.Changed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func writeChanged(set *document.Set, report *fix.Report) error {
	var errs []error
	for _, id := range changedIDs(report) {
		doc := report.Changed[id]
		if err := set.WriteBack(doc); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := set.Replace(doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func printDiffs(out io.Writer, set *document.Set, report *fix.Report) error {
	for _, id := range changedIDs(report) {
		before, ok := set.Latest(id)
		if !ok {
			continue
		}
		diff, err := unifiedDiff(set.FormatPath(id, "relative"), before.Text(), report.Changed[id].Text())
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, colorizeDiff(diff)); err != nil {
			return err
		}
	}
	return nil
}

func printFixSummary(out io.Writer, set *document.Set, report *fix.Report, opts fixOptions) error {
	verb := "Applied"
	if opts.dryRun {
		verb = "Would apply"
	}
	if report.Applied == 0 {
		_, err := fmt.Fprintln(out, "No fixes applied.")
		return err
	}
	if _, err := fmt.Fprintf(out, "%s %d fix(es) in %d file(s)\n", verb, report.Applied, len(report.Changed)); err != nil {
		return err
	}

	skipped := report.Skipped()
	if len(skipped) == 0 {
		return nil
	}
	if !opts.verbose {
		_, err := fmt.Fprintf(out, "%d finding(s) left unfixed (use --verbose to list them)\n", len(skipped))
		return err
	}
	loc := newSetLocator(set)
	if _, err := fmt.Fprintln(out, "Skipped fixes:"); err != nil {
		return err
	}
	for _, s := range skipped {
		where := string(s.Finding.DocumentID)
		if path, pos, ok := loc.Locate(s.Finding.DocumentID, s.Finding.Span); ok {
			where = fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col)
		}
		line := fmt.Sprintf("  [%s] %s: %s", s.Finding.RuleID, where, s.Reason)
		if s.Detail != "" {
			line += " (" + s.Detail + ")"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
