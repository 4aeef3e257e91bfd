package avouch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chosenoffset/avouch/pkg/avouch/codec"
	"github.com/chosenoffset/avouch/pkg/avouch/parser"
)

// Outcome is a classification result: the level name plus the label and
// color used for badges and display.
type Outcome struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// LevelRule pairs a condition with its outcome. Declaration order is the
// tie-break: assessment is first-match-wins.
type LevelRule struct {
	Name      string
	Label     string
	Color     string
	Condition string
}

// EngineConfig is the fully materialized configuration an engine is built
// from. Loading and validating it from a file is the config package's
// job; the engine itself does no I/O.
type EngineConfig struct {
	Scoring []ScoreRule
	Levels  []LevelRule
	Default Outcome
	Limits  Limits
}

// Predicate is a compiled condition: a pure function over a context, safe
// for unlimited concurrent calls.
type Predicate func(Context) bool

// Compile tokenizes and parses a condition once and returns its
// predicate. All malformed input fails here, never at evaluation.
func Compile(condition string) (Predicate, error) {
	return CompileWithLimits(condition, DefaultLimits())
}

func CompileWithLimits(condition string, limits Limits) (Predicate, error) {
	limits = limits.withDefaults()
	if len(condition) > limits.MaxExpressionLength {
		return nil, fmt.Errorf("condition length %d exceeds limit %d", len(condition), limits.MaxExpressionLength)
	}

	expr, err := parser.ParseWithDepth(condition, limits.MaxNestingDepth)
	if err != nil {
		return nil, err
	}

	return func(ctx Context) bool {
		return isTruthy(Eval(expr, ctx))
	}, nil
}

// Rule is one compiled level. Immutable after engine construction.
type Rule struct {
	Name      string  `json:"name"`
	Condition string  `json:"condition"`
	Outcome   Outcome `json:"outcome"`

	predicate Predicate
}

// Engine holds the compiled rule set and scoring configuration. It is
// immutable after NewEngine returns, so one engine may serve any number
// of concurrent assessments.
type Engine struct {
	rules   []*Rule
	scoring []ScoreRule
	def     Outcome
	limits  Limits
}

// NewEngine compiles every level condition eagerly and fails on the first
// bad one, so a configuration with a malformed rule is rejected whole
// before anything is assessed.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	limits := cfg.Limits.withDefaults()

	if len(cfg.Levels) > limits.MaxRules {
		return nil, fmt.Errorf("%d level rules exceeds limit %d", len(cfg.Levels), limits.MaxRules)
	}

	for _, rule := range cfg.Scoring {
		if !rule.Aggregate.valid() {
			return nil, fmt.Errorf("scoring rule %q: unknown aggregate %q", rule.Context, rule.Aggregate)
		}
	}

	e := &Engine{
		scoring: cfg.Scoring,
		def:     cfg.Default,
		limits:  limits,
	}

	for _, lvl := range cfg.Levels {
		predicate, err := CompileWithLimits(lvl.Condition, limits)
		if err != nil {
			return nil, &CompileError{Rule: lvl.Name, Err: err}
		}
		e.rules = append(e.rules, &Rule{
			Name:      lvl.Name,
			Condition: lvl.Condition,
			Outcome:   Outcome{Level: lvl.Name, Label: lvl.Label, Color: lvl.Color},
			predicate: predicate,
		})
	}

	return e, nil
}

// Rules returns the compiled rules in declaration order.
func (e *Engine) Rules() []*Rule {
	rules := make([]*Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

// Default returns the outcome used when no rule matches.
func (e *Engine) Default() Outcome {
	return e.def
}

// ClassifyWithDefault evaluates the rules in declaration order against
// one context and returns the first match's outcome and rule name. When
// nothing matches it returns the supplied default and an empty rule name.
func (e *Engine) ClassifyWithDefault(ctx Context, def Outcome) (Outcome, string) {
	for _, rule := range e.rules {
		if rule.predicate(ctx) {
			return rule.Outcome, rule.Name
		}
	}
	return def, ""
}

// Classify is ClassifyWithDefault with the engine's configured default.
func (e *Engine) Classify(ctx Context) (Outcome, string) {
	return e.ClassifyWithDefault(ctx, e.def)
}

// Assessment is one classified statement.
type Assessment struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Version int       `json:"version"`
	Origin  string    `json:"origin"`
	Encoded string    `json:"encoded"`
	Context Context   `json:"context"`
	Outcome Outcome   `json:"outcome"`
	Rule    string    `json:"rule,omitempty"`
}

// Assess decodes an encoded statement, derives its context and classifies
// it. A statement that does not decode returns ErrInvalidStatement.
func (e *Engine) Assess(encoded string) (*Assessment, error) {
	st := codec.Decode(encoded)
	if st == nil {
		return nil, ErrInvalidStatement
	}

	a := e.AssessStatement(st)
	a.Encoded = encoded
	return a, nil
}

// AssessStatement classifies an already-decoded statement.
func (e *Engine) AssessStatement(st *codec.Statement) *Assessment {
	ctx := e.DeriveContext(st)
	outcome, rule := e.Classify(ctx)
	encoded, _ := st.Encode()

	return &Assessment{
		ID:      uuid.NewString(),
		Time:    time.Now().UTC(),
		Version: st.Version,
		Origin:  st.Origin,
		Encoded: encoded,
		Context: ctx,
		Outcome: outcome,
		Rule:    rule,
	}
}
