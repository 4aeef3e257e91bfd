package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file",
	Long: `Load the configuration file, apply defaults and compile every level
condition. Prints a summary of the rule set when the configuration is
valid; exits with status 1 and the first error otherwise.

Examples:
  avouch validate

  avouch validate --config deploy/avouch.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Load already compiles every condition, but building the engine
	// exercises exactly what assess and serve will run.
	engine, err := avouch.NewEngine(cfg.Engine())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "configuration OK: %s\n", cfgFile)
	fmt.Fprintf(w, "  origin:  %s\n", cfg.Origin)
	fmt.Fprintf(w, "  scoring: %d rules\n", len(cfg.Scoring))
	fmt.Fprintf(w, "  levels:  %d\n", len(engine.Rules()))
	for _, r := range engine.Rules() {
		fmt.Fprintf(w, "    %s (%s): %s\n", r.Name, r.Outcome.Color, r.Condition)
	}
	def := engine.Default()
	fmt.Fprintf(w, "  default: %s (%s)\n", def.Level, def.Color)

	if cfg.Storage.Enabled {
		fmt.Fprintf(w, "  storage: %s (retention %s)\n", cfg.Storage.Path, cfg.Storage.Retention.MaxAge)
	}
	return nil
}
