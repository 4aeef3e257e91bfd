// Package avouch assesses statements about AI involvement in a piece of
// work: how much of it a model produced, what tools were used, and how
// much human review it received.
//
// # Overview
//
// A statement travels as one compact string that fits in a commit
// trailer, an HTTP header or a badge link. Scoring rules turn its
// decoded fields into numeric context, condition rules classify that
// context into a level, and each level carries a badge color and label.
// The surrounding packages add a YAML configuration layer, a SQLite
// history store, a Prometheus-instrumented dashboard and a CLI.
//
// # Quick Start
//
//	engine, err := avouch.NewEngine(avouch.EngineConfig{
//		Scoring: []avouch.ScoreRule{{
//			Context:   "risk",
//			Paths:     []string{"risk"},
//			Aggregate: avouch.AggregateMax,
//			Values:    map[string]float64{"low": 1, "high": 3, "critical": 4},
//		}},
//		Levels: []avouch.LevelRule{{
//			Name:      "red",
//			Label:     "high-risk",
//			Color:     "red",
//			Condition: "risk >= 4",
//		}},
//		Default: avouch.Outcome{Level: "green", Label: "reviewed", Color: "brightgreen"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	a, err := engine.Assess("v:1;o:acme;risk:critical")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(a.Outcome.Level) // red
//
// # Statement Format
//
// A statement is a semicolon-delimited list of key:value segments:
//
//	v:1;o:acme;code.assistant:copilot;review.human:full;tools:copilot,cursor
//
// The v (format version) and o (origin) segments are mandatory and come
// first. Keys are dotted paths into a nested mapping. Values are
// classified on decode in a fixed order: a '~' prefix marks a
// base64url-escaped string, a comma splits a list, an integer parses as
// a number, and anything else is a literal string. Escaping is what
// lets arbitrary text ride inside the delimiter characters. Decoding is
// total: malformed input yields nil rather than an error.
//
// # Rule Language
//
// Level conditions are boolean expressions over the scoring context:
//
//	risk >= 4 AND oversight <= 2
//	(exposure > 100 OR risk >= 4) AND NOT waived
//
// Operators: comparisons (<, <=, >, >=, ==, !=), logical AND, OR, NOT
// (case-insensitive, with &&, || and ! as aliases), parentheses, and
// the literals TRUE and FALSE (case-sensitive). AND and OR share one
// precedence level and fold strictly left to right. Conditions compile
// eagerly, so a malformed rule is rejected with its source position
// before anything is assessed; evaluation never fails, with missing
// identifiers reading as false in boolean position and 0 in
// comparisons.
//
// # Architecture
//
// The module is organized into focused packages:
//
//   - avouch: condition compiler, scoring, classification engine
//   - avouch/codec: statement wire format and badge URL helpers
//   - avouch/config: YAML configuration, validation, hot reload
//   - avouch/store: SQLite assessment history with retention pruning
//   - avouch/dashboard: HTTP API, websocket feed, embedded web page
//   - avouch/metrics: Prometheus collectors for the dashboard
//   - avouch/actions: assessment handlers (console, slog, custom)
//
// # Dashboard
//
// The embedded dashboard serves a live feed of assessments over
// websockets, a JSON API (/api/assess, /api/assessments, /api/rules,
// /api/badge), badge redirects under /badge/, and Prometheus metrics
// at /metrics. Start it with the CLI:
//
//	avouch serve --config avouch.yaml
//
// # Example Application
//
// The avouch-example directory integrates the module into a small CI
// pipeline service that records builds with disclosure statements and
// streams their assessments to the dashboard. Run it with:
//
//	go run ./avouch-example/cmd/server
//
// and generate traffic with:
//
//	go run ./avouch-example/cmd/loadgen
package avouch
