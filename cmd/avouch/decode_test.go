package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

func TestStatementArg(t *testing.T) {
	cmd, _ := newTestCommand(t)
	cmd.SetIn(strings.NewReader("ignored"))

	got, err := statementArg(cmd, []string{"v:1;o:acme"})
	if err != nil {
		t.Fatalf("statementArg: %v", err)
	}
	if got != "v:1;o:acme" {
		t.Errorf("statementArg = %q, want argument", got)
	}
}

func TestStatementArgStdin(t *testing.T) {
	cmd, _ := newTestCommand(t)
	cmd.SetIn(strings.NewReader("v:1;o:acme\n"))

	got, err := statementArg(cmd, nil)
	if err != nil {
		t.Fatalf("statementArg: %v", err)
	}
	if got != "v:1;o:acme" {
		t.Errorf("statementArg = %q, want trimmed stdin", got)
	}
}

func TestRunDecode(t *testing.T) {
	cmd, buf := newTestCommand(t)
	if err := runDecode(cmd, []string{"v:2;o:acme;code.assistant:copilot"}); err != nil {
		t.Fatalf("runDecode: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got["_v"] != float64(2) {
		t.Errorf("_v = %v, want 2", got["_v"])
	}
	if got["_o"] != "acme" {
		t.Errorf("_o = %v, want acme", got["_o"])
	}
	code, ok := got["code"].(map[string]any)
	if !ok || code["assistant"] != "copilot" {
		t.Errorf("code.assistant = %v, want copilot", got["code"])
	}
}

func TestRunDecodeInvalid(t *testing.T) {
	cmd, _ := newTestCommand(t)
	err := runDecode(cmd, []string{"garbage"})
	if !errors.Is(err, avouch.ErrInvalidStatement) {
		t.Errorf("runDecode error = %v, want ErrInvalidStatement", err)
	}
}

func TestRunDecodeFromStdin(t *testing.T) {
	cmd, buf := newTestCommand(t)
	cmd.SetIn(strings.NewReader("v:1;o:acme;risk:3\n"))

	if err := runDecode(cmd, nil); err != nil {
		t.Fatalf("runDecode: %v", err)
	}
	if !strings.Contains(buf.String(), `"risk": 3`) {
		t.Errorf("output missing decoded field:\n%s", buf.String())
	}
}
