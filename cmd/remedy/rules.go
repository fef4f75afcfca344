package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"remedy/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List built-in rules and their fix granularity",
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	catalog := rules.NewCatalog(rules.SettingsFrom(cfg))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFIX\tSEVERITY\tENABLED\tTITLE")
	for _, r := range catalog.Rules() {
		enabled := "yes"
		if !cfg.Enabled(r.ID) {
			enabled = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Provider.Granularity(), r.Severity.Label(), enabled, r.Title)
	}
	return w.Flush()
}
