package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/avouch/pkg/avouch/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "avouch",
	Short: "Avouch - AI involvement statements, badges and assessment",
	Long: `Avouch encodes statements about AI involvement in a piece of work
into a single compact string, renders them as shields.io badges, and
assesses them against configurable classification rules.

A statement is a semicolon-delimited string such as

  v:1;o:acme;code.assistant:copilot;review.human:full

that travels well in commit trailers, README badges and HTTP headers.
Scoring rules in the configuration turn decoded fields into numeric
context, and level rules classify that context into outcomes like
"red" or "semi_auto", each with its own badge color.`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "avouch.yaml", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig loads the configuration named by --config, with AVOUCH_*
// environment overrides applied. --verbose lowers the log level to debug.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
