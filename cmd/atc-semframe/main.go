// Command atc-semframe parses ATC radio transmissions into semantic
// frames, either as a one-shot CLI or as an HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yegors/atc-semframe/internal/config"
	"github.com/yegors/atc-semframe/internal/grammar"
	"github.com/yegors/atc-semframe/internal/semparse"
	"github.com/yegors/atc-semframe/pkg/logger"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "atc-semframe",
		Short:   "Semantic frame parser for ATC radio transmissions",
		Version: version,
		Long: `atc-semframe maps air traffic control transmissions to nested semantic
frames using a combinatory categorial grammar over category placeholders.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	cmd.AddCommand(
		serveCmd(&configPath),
		parseCmd(&configPath),
		batchCmd(&configPath),
		grammarCmd(&configPath),
	)
	return cmd
}

// app bundles the pieces every subcommand needs.
type app struct {
	cfg *config.Config
	log *logger.Logger
}

func initApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) loadGrammar() (*grammar.Grammar, error) {
	return grammar.Load(grammar.Config{
		PatternGlobs:  a.cfg.Grammar.PatternGlobs,
		RuleGlobs:     a.cfg.Grammar.RuleGlobs,
		DefaultBudget: a.cfg.Grammar.DefaultBudget,
	}, a.log)
}

func (a *app) buildParser() (*semparse.Parser, error) {
	g, err := a.loadGrammar()
	if err != nil {
		return nil, err
	}
	return semparse.New(g, semparse.Config{
		MaxSegmentTokens: a.cfg.Parser.MaxSegmentTokens,
		MaxExpansions:    a.cfg.Parser.MaxExpansions,
		RefinePasses:     a.cfg.Parser.RefinePasses,
	}, a.log)
}
