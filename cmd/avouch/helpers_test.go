package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const testConfigYAML = `origin: acme
scoring:
  - context: risk
    paths: [risk]
    aggregate: max
    values:
      none: 0
      low: 1
      high: 3
      critical: 4
levels:
  - name: red
    label: high-risk
    color: red
    when: "risk >= 4"
  - name: orange
    label: semi-auto
    color: orange
    when: "risk >= 2"
default:
  name: green
  label: reviewed
  color: brightgreen
badge:
  link_base: https://example.com/statement
`

// useConfig points the global --config flag at a fresh file holding the
// given YAML and restores the previous value when the test ends.
func useConfig(t *testing.T, yaml string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "avouch.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
	return path
}

// useMissingConfig points --config at a path that does not exist.
func useMissingConfig(t *testing.T) {
	t.Helper()

	prev := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { cfgFile = prev })
}

// newTestCommand returns a bare command whose output is captured.
func newTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

func resetEncodeFlags(t *testing.T) {
	t.Helper()

	prev := encodeFlags
	encodeFlags.fields = nil
	encodeFlags.json = false
	encodeFlags.version = 0
	encodeFlags.origin = ""
	t.Cleanup(func() { encodeFlags = prev })
}

func resetAssessFlags(t *testing.T) {
	t.Helper()

	prev := assessFlags
	assessFlags.output = "text"
	t.Cleanup(func() { assessFlags = prev })
}
