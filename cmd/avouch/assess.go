package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

var assessFlags struct {
	output string
}

var assessCmd = &cobra.Command{
	Use:   "assess [statement]",
	Short: "Classify a statement against the configured rules",
	Long: `Decode a statement, derive its scoring context and classify it
against the level rules in the configuration. The statement is taken
from the argument, or from stdin when no argument is given.

Exits with status 1 when the input does not decode.

Examples:
  avouch assess 'v:1;o:acme;risk.deploy:critical;review.human:none'

  avouch assess --output json 'v:1;o:acme;code.assistant:copilot'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVarP(&assessFlags.output, "output", "o", "text", "output format: text, json")
}

func runAssess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := avouch.NewEngine(cfg.Engine())
	if err != nil {
		return err
	}

	raw, err := statementArg(cmd, args)
	if err != nil {
		return err
	}

	a, err := engine.Assess(raw)
	if err != nil {
		return err
	}

	switch assessFlags.output {
	case "json":
		out, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	case "text", "":
		printAssessment(cmd, a)
	default:
		return fmt.Errorf("unknown output format: %s", assessFlags.output)
	}
	return nil
}

func printAssessment(cmd *cobra.Command, a *avouch.Assessment) {
	w := cmd.OutOrStdout()

	rule := a.Rule
	if rule == "" {
		rule = "(default)"
	}

	fmt.Fprintf(w, "Level:   %s\n", a.Outcome.Level)
	fmt.Fprintf(w, "Label:   %s\n", a.Outcome.Label)
	fmt.Fprintf(w, "Color:   %s\n", a.Outcome.Color)
	fmt.Fprintf(w, "Rule:    %s\n", rule)
	fmt.Fprintf(w, "Origin:  %s\n", a.Origin)

	if len(a.Context) == 0 {
		return
	}

	names := make([]string, 0, len(a.Context))
	for name := range a.Context {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Context:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s = %s\n", name, a.Context[name].Inspect())
	}
}
