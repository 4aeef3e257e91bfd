package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/avouch/pkg/avouch"
	"github.com/chosenoffset/avouch/pkg/avouch/codec"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [statement]",
	Short: "Decode a statement and print it as JSON",
	Long: `Decode an encoded statement and print its version, origin and fields
as JSON. The statement is taken from the argument, or from stdin when
no argument is given.

Exits with status 1 when the input does not decode.

Examples:
  avouch decode 'v:1;o:acme;code.assistant:copilot;review.human:full'

  git log -1 --format=%b | grep '^AI:' | cut -d' ' -f2- | avouch decode`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	raw, err := statementArg(cmd, args)
	if err != nil {
		return err
	}

	st := codec.Decode(raw)
	if st == nil {
		return avouch.ErrInvalidStatement
	}

	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// statementArg returns the encoded statement from the first positional
// argument, falling back to stdin.
func statementArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
