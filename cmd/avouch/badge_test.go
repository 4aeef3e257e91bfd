package main

import (
	"strings"
	"testing"
)

func TestRunBadge(t *testing.T) {
	useConfig(t, testConfigYAML)

	cmd, buf := newTestCommand(t)
	if err := runBadge(cmd, []string{"v:1;o:acme;risk:critical"}); err != nil {
		t.Fatalf("runBadge: %v", err)
	}

	out := buf.String()
	wantBadge := "Badge:    https://img.shields.io/badge/AI_disclosure-high--risk-red"
	if !strings.Contains(out, wantBadge) {
		t.Errorf("output missing badge URL:\n%s", out)
	}
	wantLink := "Link:     https://example.com/statement#v:1;o:acme;risk:critical"
	if !strings.Contains(out, wantLink) {
		t.Errorf("output missing share link:\n%s", out)
	}
	wantMarkdown := "Markdown: [![AI disclosure](https://img.shields.io/badge/AI_disclosure-high--risk-red)](https://example.com/statement#v:1;o:acme;risk:critical)"
	if !strings.Contains(out, wantMarkdown) {
		t.Errorf("output missing markdown snippet:\n%s", out)
	}
}

func TestRunBadgeWithoutLinkBase(t *testing.T) {
	noLink := strings.Replace(testConfigYAML, "badge:\n  link_base: https://example.com/statement\n", "", 1)
	useConfig(t, noLink)

	cmd, buf := newTestCommand(t)
	if err := runBadge(cmd, []string{"v:1;o:acme;risk:none"}); err != nil {
		t.Fatalf("runBadge: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "Link:") {
		t.Errorf("output has share link without a link base:\n%s", out)
	}
	if !strings.Contains(out, "Markdown: ![AI disclosure](") {
		t.Errorf("markdown should be a bare image:\n%s", out)
	}
}

func TestRunBadgeInvalidStatement(t *testing.T) {
	useConfig(t, testConfigYAML)

	cmd, _ := newTestCommand(t)
	if err := runBadge(cmd, []string{"garbage"}); err == nil {
		t.Fatal("runBadge accepted an undecodable statement")
	}
}
