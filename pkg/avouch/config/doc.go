// Package config loads, validates and watches avouch configuration.
//
// Configuration lives in a single YAML file covering statement metadata,
// scoring rules, classification levels, badge output and the optional
// dashboard server and history store:
//
//	origin: co
//
//	scoring:
//	  - context: risk
//	    paths: [risk]
//	    aggregate: max
//	    values: {none: 0, low: 1, high: 3, critical: 4}
//	  - context: oversight
//	    paths: [oversight]
//	    aggregate: max
//	    values: {none: 0, spot: 1, full: 4}
//
//	levels:
//	  - name: red
//	    label: unsupervised
//	    color: red
//	    when: risk >= 4 AND oversight <= 2
//	  - name: orange
//	    label: semi-auto
//	    color: orange
//	    when: risk >= 2
//
//	default: {name: green, label: human-led, color: green}
//
// # Loading
//
// Load reads a file, applies defaults and validates:
//
//	cfg, err := config.Load("avouch.yaml")
//
// LoadWithEnvOverrides additionally applies AVOUCH_SECTION_FIELD
// environment variables (for example AVOUCH_SERVER_ADDRESS overrides
// server.address) and re-validates the result.
//
// Validation compiles every level condition, so a file that Load accepts
// is guaranteed to build an engine: a single malformed rule rejects the
// whole file with its field path and parse position.
//
// # Watching
//
// Watcher reloads the file on change with debouncing. A change that no
// longer validates is logged and discarded, leaving the previous
// configuration in effect.
package config
