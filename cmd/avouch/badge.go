package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

var badgeCmd = &cobra.Command{
	Use:   "badge [statement]",
	Short: "Render the badge for a statement",
	Long: `Assess a statement and print its badge image URL, share link and a
ready-to-paste Markdown snippet. The statement is taken from the
argument, or from stdin when no argument is given.

The badge status and color come from the matched level; the share
link carries the encoded statement as a URL fragment and is omitted
when no link base is configured.

Examples:
  avouch badge 'v:1;o:acme;risk.deploy:critical;review.human:none'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBadge,
}

func init() {
	rootCmd.AddCommand(badgeCmd)
}

func runBadge(cmd *cobra.Command, args []string) error {
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

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Badge:    %s\n", cfg.Badge.BadgeURL(a.Outcome.Label, a.Outcome.Color))
	if link := cfg.Badge.LinkURL(a.Encoded); link != "" {
		fmt.Fprintf(w, "Link:     %s\n", link)
	}
	fmt.Fprintf(w, "Markdown: %s\n", cfg.Badge.Markdown(a.Outcome.Label, a.Outcome.Color, a.Encoded))
	return nil
}
