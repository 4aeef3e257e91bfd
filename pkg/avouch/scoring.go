package avouch

import (
	"strings"

	"github.com/chosenoffset/avouch/pkg/avouch/codec"
)

// Aggregate selects how a scoring rule combines multiple matching leaves
// into one context value.
type Aggregate string

const (
	// AggregateSum adds the scores of all matching leaves.
	AggregateSum Aggregate = "sum"
	// AggregateMax takes the highest score among matching leaves.
	AggregateMax Aggregate = "max"
	// AggregateCount counts matching leaves, ignoring their scores.
	AggregateCount Aggregate = "count"
	// AggregateAny yields a boolean: true when any leaf scores non-zero.
	AggregateAny Aggregate = "any"
)

func (a Aggregate) valid() bool {
	switch a {
	case "", AggregateSum, AggregateMax, AggregateCount, AggregateAny:
		return true
	}
	return false
}

// ScoreRule derives one context variable from a statement. Every leaf
// under any of the rule's paths contributes: numeric leaves pass through
// as their own score, string leaves look up their score in Values and
// score 0 when unlisted. List elements contribute individually.
type ScoreRule struct {
	Context   string
	Paths     []string
	Values    map[string]float64
	Aggregate Aggregate
}

// DeriveContext builds the evaluation context for one decoded statement
// by applying every scoring rule. Rules whose paths match nothing still
// define their variable (0 or false), so conditions referencing them
// behave the same as with explicit zero values.
func (e *Engine) DeriveContext(st *codec.Statement) Context {
	ctx := Context{}
	pairs := st.Flatten()
	for _, rule := range e.scoring {
		ctx[rule.Context] = rule.apply(collectLeaves(pairs, rule.Paths))
	}
	return ctx
}

// collectLeaves gathers leaf values whose path equals one of the rule
// paths or sits below it, expanding lists into their elements.
func collectLeaves(pairs []codec.Pair, paths []string) []any {
	var leaves []any
	for _, pair := range pairs {
		if !matchesAny(pair.Path, paths) {
			continue
		}
		if list, ok := pair.Value.(*codec.List); ok {
			for _, el := range list.Elements {
				leaves = append(leaves, el)
			}
			continue
		}
		leaves = append(leaves, pair.Value)
	}
	return leaves
}

func matchesAny(path string, paths []string) bool {
	for _, p := range paths {
		if path == p || strings.HasPrefix(path, p+".") {
			return true
		}
	}
	return false
}

func (r ScoreRule) apply(leaves []any) Object {
	switch r.Aggregate {
	case AggregateCount:
		return &Number{Value: float64(len(leaves))}
	case AggregateAny:
		for _, leaf := range leaves {
			if r.score(leaf) != 0 {
				return TRUE
			}
		}
		return FALSE
	case AggregateMax:
		if len(leaves) == 0 {
			return &Number{Value: 0}
		}
		max := r.score(leaves[0])
		for _, leaf := range leaves[1:] {
			if s := r.score(leaf); s > max {
				max = s
			}
		}
		return &Number{Value: max}
	default:
		total := 0.0
		for _, leaf := range leaves {
			total += r.score(leaf)
		}
		return &Number{Value: total}
	}
}

func (r ScoreRule) score(leaf any) float64 {
	switch v := leaf.(type) {
	case *codec.Number:
		return float64(v.Value)
	case *codec.String:
		return r.Values[v.Value]
	case string:
		return r.Values[v]
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}
