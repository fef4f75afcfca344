package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"remedy/internal/diag"
	"remedy/internal/observ"
	"remedy/internal/rules"
	"remedy/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path...]",
	Short: "Report findings of the built-in rules",
	Long:  "Run the built-in detectors over files or directories and print what they find. Exits with status 1 when anything is found.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|yaml)")
	checkCmd.Flags().Int("jobs", 0, "max parallel documents (0=config or GOMAXPROCS)")
}

var (
	sevErrorColor   = color.New(color.FgRed, color.Bold)
	sevWarningColor = color.New(color.FgYellow, color.Bold)
	sevInfoColor    = color.New(color.FgCyan)
	ruleColor       = color.New(color.Faint)
	pathColor       = color.New(color.Bold)
)

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "yaml":
	default:
		return fmt.Errorf("unknown format %q (must be pretty, short or yaml)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
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
	if jobs == 0 {
		jobs = cfg.Fix.Jobs
	}

	ctx := cmd.Context()
	span, ctx := trace.Start(ctx, trace.ScopeRun, "check")
	defer span.End("")

	timer := observ.NewTimer()
	var findings []diag.Finding
	var loc *setLocator
	err = timer.Measure(ctx, "load", func(ctx context.Context) error {
		paths, err := collectPaths(args)
		if err != nil {
			return err
		}
		set, _, err := loadDocuments(paths)
		if err != nil {
			return err
		}
		loc = newSetLocator(set)
		return nil
	})
	if err != nil {
		return err
	}

	err = timer.Measure(ctx, "detect", func(ctx context.Context) error {
		catalog := rules.NewCatalog(rules.SettingsFrom(cfg))
		var derr error
		findings, derr = catalog.Detect(ctx, loc.set.Documents(), cfg.Enabled, jobs)
		return derr
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "yaml":
		err = diag.WriteFindings(out, findings)
	case "short":
		if s := diag.FormatShort(findings, loc); s != "" {
			_, err = fmt.Fprintln(out, s)
		}
	default:
		err = printFindingsPretty(out, findings, loc)
	}
	if err != nil {
		return err
	}

	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if len(findings) > 0 {
		return exitError{code: 1}
	}
	return nil
}

func printFindingsPretty(out io.Writer, findings []diag.Finding, loc diag.Locator) error {
	for _, f := range findings {
		path, pos, ok := loc.Locate(f.DocumentID, f.Span)
		if !ok {
			continue
		}
		_, err := fmt.Fprintf(out, "%s %s %s %s\n",
			pathColor.Sprintf("%s:%d:%d:", path, pos.Line, pos.Col),
			severityColor(f.Severity).Sprint(f.Severity.Label()),
			ruleColor.Sprintf("[%s]", f.RuleID),
			f.Message,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return sevErrorColor
	case diag.SevWarning:
		return sevWarningColor
	default:
		return sevInfoColor
	}
}
