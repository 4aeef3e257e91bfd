package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field, e.g.
	// "levels[2].when".
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and reported together.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// The rule language reads identifiers as a letter or underscore followed
// by letters, digits and underscores, so scoring contexts outside this
// alphabet could never be referenced by a condition.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the whole configuration and returns a ValidationError
// listing every problem found. Level conditions are compiled here, so a
// configuration with any malformed rule is rejected before an engine is
// ever built from it.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStatement(cfg)...)
	errs = append(errs, validateScoring(cfg.Scoring)...)
	errs = append(errs, validateLevels(cfg)...)
	errs = append(errs, validateBadge(&cfg.Badge)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateStatement(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.Version < 1 {
		errs = append(errs, FieldError{
			Field:   "version",
			Message: "statement version must be at least 1",
		})
	}
	if cfg.Origin == "" {
		errs = append(errs, FieldError{
			Field:   "origin",
			Message: "origin is required",
		})
	}

	return errs
}

func validateScoring(rules []ScoringRule) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool)
	for i, rule := range rules {
		field := func(name string) string {
			return fmt.Sprintf("scoring[%d].%s", i, name)
		}

		switch {
		case rule.Context == "":
			errs = append(errs, FieldError{
				Field:   field("context"),
				Message: "context variable name is required",
			})
		case !identPattern.MatchString(rule.Context):
			errs = append(errs, FieldError{
				Field:   field("context"),
				Message: fmt.Sprintf("%q is not a valid identifier", rule.Context),
			})
		case seen[rule.Context]:
			errs = append(errs, FieldError{
				Field:   field("context"),
				Message: fmt.Sprintf("duplicate context variable %q", rule.Context),
			})
		}
		seen[rule.Context] = true

		if len(rule.Paths) == 0 {
			errs = append(errs, FieldError{
				Field:   field("paths"),
				Message: "at least one statement path is required",
			})
		}
		for j, path := range rule.Paths {
			if path == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("scoring[%d].paths[%d]", i, j),
					Message: "path must not be empty",
				})
			}
		}

		switch rule.Aggregate {
		case "", "sum", "max", "count", "any":
		default:
			errs = append(errs, FieldError{
				Field:   field("aggregate"),
				Message: fmt.Sprintf("unknown aggregate %q (want sum, max, count or any)", rule.Aggregate),
			})
		}
	}

	return errs
}

func validateLevels(cfg *Config) []FieldError {
	var errs []FieldError

	limits := cfg.engineLimits()

	seen := make(map[string]bool)
	for i, lvl := range cfg.Levels {
		field := func(name string) string {
			return fmt.Sprintf("levels[%d].%s", i, name)
		}

		switch {
		case lvl.Name == "":
			errs = append(errs, FieldError{
				Field:   field("name"),
				Message: "level name is required",
			})
		case seen[lvl.Name]:
			errs = append(errs, FieldError{
				Field:   field("name"),
				Message: fmt.Sprintf("duplicate level name %q", lvl.Name),
			})
		}
		seen[lvl.Name] = true

		if lvl.Color == "" {
			errs = append(errs, FieldError{
				Field:   field("color"),
				Message: "level color is required",
			})
		}

		if lvl.When == "" {
			errs = append(errs, FieldError{
				Field:   field("when"),
				Message: "level condition is required",
			})
			continue
		}
		if _, err := avouch.CompileWithLimits(lvl.When, limits); err != nil {
			errs = append(errs, FieldError{
				Field:   field("when"),
				Message: err.Error(),
			})
		}
	}

	return errs
}

func validateBadge(cfg *BadgeConfig) []FieldError {
	var errs []FieldError

	for _, placeholder := range []string{"{label}", "{status}", "{color}"} {
		if !strings.Contains(cfg.Template, placeholder) {
			errs = append(errs, FieldError{
				Field:   "badge.template",
				Message: fmt.Sprintf("template is missing the %s placeholder", placeholder),
			})
		}
	}

	if cfg.LinkBase != "" {
		u, err := url.Parse(cfg.LinkBase)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "badge.link_base",
				Message: "link base must be an absolute URL",
			})
		}
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Address == "" {
		errs = append(errs, FieldError{
			Field:   "server.address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must not be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must not be negative",
		})
	}
	if cfg.History < 1 {
		errs = append(errs, FieldError{
			Field:   "server.history",
			Message: "history must be at least 1",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.path",
			Message: "database path is required when storage is enabled",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}
	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention.max_age",
			Message: "retention max age must not be negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "storage.retention.schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown log level %q (want debug, info, warn or error)", cfg.Level),
		})
	}

	switch cfg.Format {
	case "text", "json":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown log format %q (want text or json)", cfg.Format),
		})
	}

	return errs
}
