// Package actions dispatches completed assessments to registered
// handlers, keyed by the level the statement classified into.
package actions

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

// Handler reacts to one completed assessment.
type Handler interface {
	Handle(a *avouch.Assessment) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(a *avouch.Assessment) error

func (f HandlerFunc) Handle(a *avouch.Assessment) error {
	return f(a)
}

// ConsoleHandler writes a one-line summary of each assessment.
type ConsoleHandler struct {
	w io.Writer
}

// NewConsoleHandler creates a handler writing to w. A nil writer
// defaults to stdout.
func NewConsoleHandler(w io.Writer) *ConsoleHandler {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleHandler{w: w}
}

func (h *ConsoleHandler) Handle(a *avouch.Assessment) error {
	timestamp := a.Time.Format("15:04:05")
	rule := a.Rule
	if rule == "" {
		rule = "default"
	}
	_, err := fmt.Fprintf(h.w, "[%s] %s [%s]: %s\n", timestamp, strings.ToUpper(a.Outcome.Level), rule, a.Encoded)
	return err
}

// SlogHandler emits each assessment as a structured log record.
type SlogHandler struct {
	logger *slog.Logger
}

// NewSlogHandler creates a handler logging through logger. A nil logger
// defaults to slog.Default.
func NewSlogHandler(logger *slog.Logger) *SlogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHandler{logger: logger}
}

func (h *SlogHandler) Handle(a *avouch.Assessment) error {
	h.logger.Info("assessment",
		"id", a.ID,
		"origin", a.Origin,
		"level", a.Outcome.Level,
		"rule", a.Rule,
		"encoded", a.Encoded,
	)
	return nil
}

// Registry fans assessments out to handlers registered for the
// assessment's level. Handlers registered for the empty level receive
// every assessment.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger defaults to
// slog.Default; it only receives handler failures.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Register adds a handler for assessments classified into level. An
// empty level subscribes the handler to all assessments.
func (r *Registry) Register(level string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[level] = append(r.handlers[level], handler)
}

// Dispatch delivers the assessment to every matching handler. A failing
// handler is logged and the remaining handlers still run.
func (r *Registry) Dispatch(a *avouch.Assessment) {
	if a == nil {
		return
	}

	r.mu.RLock()
	matched := r.handlers[a.Outcome.Level]
	catchAll := r.handlers[""]
	// Copy handlers to release the lock before running them.
	handlers := make([]Handler, 0, len(matched)+len(catchAll))
	handlers = append(handlers, matched...)
	handlers = append(handlers, catchAll...)
	r.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(a); err != nil {
			r.logger.Error("assessment handler failed",
				"level", a.Outcome.Level,
				"assessment_id", a.ID,
				"error", err,
			)
		}
	}
}

// HandlerCount reports how many handlers would receive an assessment
// classified into level, including catch-all handlers.
func (r *Registry) HandlerCount(level string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.handlers[level]) + len(r.handlers[""])
	if level == "" {
		n = len(r.handlers[""])
	}
	return n
}
