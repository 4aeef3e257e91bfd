package actions

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

func sampleAssessment(level, rule string) *avouch.Assessment {
	return &avouch.Assessment{
		ID:      "test-id",
		Time:    time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC),
		Version: 1,
		Origin:  "co",
		Encoded: "v:1;o:co;risk:high",
		Outcome: avouch.Outcome{Level: level, Label: level, Color: "red"},
		Rule:    rule,
	}
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(&buf)

	if err := h.Handle(sampleAssessment("red", "high-risk")); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	want := "[09:30:15] RED [high-risk]: v:1;o:co;risk:high\n"
	if got != want {
		t.Errorf("console output = %q, want %q", got, want)
	}
}

func TestConsoleHandlerDefaultRule(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(&buf)

	if err := h.Handle(sampleAssessment("green", "")); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[default]") {
		t.Errorf("output %q should name the default rule", buf.String())
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := NewSlogHandler(logger)

	if err := h.Handle(sampleAssessment("orange", "semi-auto")); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{`"origin":"co"`, `"level":"orange"`, `"rule":"semi-auto"`, `"id":"test-id"`} {
		if !strings.Contains(got, want) {
			t.Errorf("log record %q missing %s", got, want)
		}
	}
}

func TestHandlerFunc(t *testing.T) {
	called := false
	var h Handler = HandlerFunc(func(a *avouch.Assessment) error {
		called = true
		return nil
	})

	if err := h.Handle(sampleAssessment("red", "r")); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !called {
		t.Error("adapted function was not invoked")
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	var redHits, allHits int
	r.Register("red", HandlerFunc(func(a *avouch.Assessment) error {
		redHits++
		return nil
	}))
	r.Register("", HandlerFunc(func(a *avouch.Assessment) error {
		allHits++
		return nil
	}))

	r.Dispatch(sampleAssessment("red", "high-risk"))
	if redHits != 1 || allHits != 1 {
		t.Errorf("after red dispatch: redHits=%d allHits=%d, want 1 and 1", redHits, allHits)
	}

	r.Dispatch(sampleAssessment("green", ""))
	if redHits != 1 || allHits != 2 {
		t.Errorf("after green dispatch: redHits=%d allHits=%d, want 1 and 2", redHits, allHits)
	}
}

func TestRegistryContinuesAfterHandlerError(t *testing.T) {
	var logBuf bytes.Buffer
	r := NewRegistry(slog.New(slog.NewTextHandler(&logBuf, nil)))

	var secondRan bool
	r.Register("red", HandlerFunc(func(a *avouch.Assessment) error {
		return errors.New("notification endpoint unreachable")
	}))
	r.Register("red", HandlerFunc(func(a *avouch.Assessment) error {
		secondRan = true
		return nil
	}))

	r.Dispatch(sampleAssessment("red", "high-risk"))

	if !secondRan {
		t.Error("handler after a failing one did not run")
	}
	if !strings.Contains(logBuf.String(), "assessment handler failed") {
		t.Errorf("failure was not logged: %q", logBuf.String())
	}
	if !strings.Contains(logBuf.String(), "notification endpoint unreachable") {
		t.Errorf("logged failure missing handler error: %q", logBuf.String())
	}
}

func TestRegistryDispatchNil(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("", HandlerFunc(func(a *avouch.Assessment) error {
		t.Error("handler ran for nil assessment")
		return nil
	}))
	r.Dispatch(nil)
}

func TestRegistryHandlerCount(t *testing.T) {
	r := NewRegistry(nil)
	if got := r.HandlerCount("red"); got != 0 {
		t.Errorf("empty registry HandlerCount = %d, want 0", got)
	}

	r.Register("red", NewConsoleHandler(&bytes.Buffer{}))
	r.Register("red", NewConsoleHandler(&bytes.Buffer{}))
	r.Register("", NewConsoleHandler(&bytes.Buffer{}))

	if got := r.HandlerCount("red"); got != 3 {
		t.Errorf("HandlerCount(red) = %d, want 3", got)
	}
	if got := r.HandlerCount("green"); got != 1 {
		t.Errorf("HandlerCount(green) = %d, want 1", got)
	}
	if got := r.HandlerCount(""); got != 1 {
		t.Errorf("HandlerCount(\"\") = %d, want 1", got)
	}
}
