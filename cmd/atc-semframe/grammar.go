package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func grammarCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Inspect the grammar files",
	}
	cmd.AddCommand(grammarCheckCmd(configPath))
	return cmd
}

func grammarCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configured grammar and report its contents",
		Long: `Parses the configured pattern and rule files (or the embedded
defaults), builds the lexicons, and prints per-category counts. Exits
non-zero when any file fails to parse.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(*configPath)
			if err != nil {
				return err
			}
			g, err := a.loadGrammar()
			if err != nil {
				return err
			}
			if _, err := g.BuildLexicon(nil); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stats := g.Stats()
			if files := g.Files(); len(files) > 0 {
				fmt.Fprintln(out, "Files:")
				for _, f := range files {
					fmt.Fprintf(out, "  %s\n", f)
				}
			} else {
				fmt.Fprintln(out, "Using embedded default grammar")
			}
			fmt.Fprintf(out, "Patterns: %d\nRules: %d\n", stats.Patterns, stats.Rules)

			cats := make([]string, 0, len(stats.Categories))
			for cat := range stats.Categories {
				cats = append(cats, cat)
			}
			sort.Strings(cats)
			fmt.Fprintln(out, "Categories:")
			for _, cat := range cats {
				fmt.Fprintf(out, "  %-20s %d pattern(s), budget %d\n", cat, stats.Categories[cat], g.Budget(cat))
			}
			return nil
		},
	}
}
