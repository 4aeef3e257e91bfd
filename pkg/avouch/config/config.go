package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chosenoffset/avouch/pkg/avouch"
	"github.com/chosenoffset/avouch/pkg/avouch/codec"
)

// Config is the root configuration structure for avouch. It contains the
// statement metadata stamped on encode, the scoring and level rules the
// assessment engine is built from, and the badge, server, storage and
// logging sections used by the CLI and dashboard.
type Config struct {
	// Version is the statement format version stamped on encoded
	// statements and reported by decode.
	// Default: 1
	Version int `yaml:"version"`

	// Origin identifies the producer of encoded statements, typically an
	// organization or project slug. Required.
	Origin string `yaml:"origin"`

	// Scoring contains the rules that derive context variables from
	// decoded statements. Each rule defines one variable that level
	// conditions can reference by name.
	Scoring []ScoringRule `yaml:"scoring"`

	// Levels contains the classification rules, evaluated in declaration
	// order. The first level whose condition matches wins.
	Levels []Level `yaml:"levels"`

	// Default is the outcome reported when no level condition matches.
	Default DefaultOutcome `yaml:"default"`

	// Badge configures badge image and share link generation.
	Badge BadgeConfig `yaml:"badge"`

	// Server configures the embedded dashboard server.
	Server ServerConfig `yaml:"server"`

	// Storage configures the assessment history store.
	Storage StorageConfig `yaml:"storage"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Limits bounds rule compilation. Zero fields fall back to the
	// engine's built-in defaults.
	Limits LimitsConfig `yaml:"limits"`
}

// ScoringRule derives one context variable from statement fields.
type ScoringRule struct {
	// Context is the variable name the rule defines. Must be a plain
	// identifier so level conditions can reference it.
	Context string `yaml:"context"`

	// Paths lists the statement subtrees whose leaves feed the variable,
	// as dotted paths. A path matches its own leaf and everything below it.
	Paths []string `yaml:"paths"`

	// Aggregate combines multiple matching leaves: "sum", "max", "count"
	// or "any". An empty value means "sum".
	Aggregate string `yaml:"aggregate"`

	// Values maps string leaves to scores. Numeric leaves pass through
	// unchanged; strings missing from the map score 0.
	Values map[string]float64 `yaml:"values"`
}

// Level is one classification rule.
type Level struct {
	// Name identifies the level, e.g. "red" or "semi_auto". Required.
	Name string `yaml:"name"`

	// Label is the human-readable wording shown as the badge status.
	// Default: the level name.
	Label string `yaml:"label"`

	// Color is the badge color for this level. Required.
	Color string `yaml:"color"`

	// When is the boolean condition over scoring variables, e.g.
	// "risk >= 4 AND oversight <= 2". Compiled at load time. Required.
	When string `yaml:"when"`
}

// DefaultOutcome is the classification reported when no level matches.
type DefaultOutcome struct {
	// Name identifies the fallback level.
	// Default: "unclassified"
	Name string `yaml:"name"`

	// Label is the badge status wording. Default: the name.
	Label string `yaml:"label"`

	// Color is the badge color.
	// Default: "lightgrey"
	Color string `yaml:"color"`
}

// BadgeConfig configures badge image and share link generation.
type BadgeConfig struct {
	// Label is the left-hand badge text shared by every level.
	// Default: "AI disclosure"
	Label string `yaml:"label"`

	// Template is the badge image URL template containing {label},
	// {status} and {color} placeholders.
	// Default: the shields.io static badge endpoint.
	Template string `yaml:"template"`

	// LinkBase is the page URL encoded statements are appended to as a
	// fragment to form share links. Links are omitted when empty.
	LinkBase string `yaml:"link_base"`
}

// ServerConfig configures the embedded dashboard server.
type ServerConfig struct {
	// Address is the address and port to listen on.
	// Default: "127.0.0.1:8931"
	Address string `yaml:"address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// History is the number of recent assessments the dashboard keeps in
	// memory for the feed.
	// Default: 100
	History int `yaml:"history"`
}

// StorageConfig configures the assessment history store.
type StorageConfig struct {
	// Enabled turns the SQLite history store on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "data/avouch.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Retention configures pruning of old assessment rows.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig configures pruning of stored assessments.
type RetentionConfig struct {
	// MaxAge is how long assessment rows are kept.
	// Default: 2160h (90 days)
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is a standard five-field cron expression for the prune job.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`
}

// LimitsConfig bounds rule compilation.
type LimitsConfig struct {
	// MaxExpressionLength caps condition length in bytes.
	MaxExpressionLength int `yaml:"max_expression_length"`

	// MaxRules caps the number of levels.
	MaxRules int `yaml:"max_rules"`

	// MaxNestingDepth caps parenthesis nesting in conditions.
	MaxNestingDepth int `yaml:"max_nesting_depth"`
}

// Engine maps the configuration onto an engine configuration. The result
// still has to pass avouch.NewEngine, which compiles every condition.
func (c *Config) Engine() avouch.EngineConfig {
	cfg := avouch.EngineConfig{
		Default: c.DefaultOutcome(),
		Limits:  c.engineLimits(),
	}

	for _, rule := range c.Scoring {
		cfg.Scoring = append(cfg.Scoring, avouch.ScoreRule{
			Context:   rule.Context,
			Paths:     rule.Paths,
			Values:    rule.Values,
			Aggregate: avouch.Aggregate(rule.Aggregate),
		})
	}

	for _, lvl := range c.Levels {
		cfg.Levels = append(cfg.Levels, avouch.LevelRule{
			Name:      lvl.Name,
			Label:     lvl.Label,
			Color:     lvl.Color,
			Condition: lvl.When,
		})
	}

	return cfg
}

// DefaultOutcome returns the fallback outcome as the engine sees it.
func (c *Config) DefaultOutcome() avouch.Outcome {
	return avouch.Outcome{
		Level: c.Default.Name,
		Label: c.Default.Label,
		Color: c.Default.Color,
	}
}

func (c *Config) engineLimits() avouch.Limits {
	return avouch.Limits{
		MaxExpressionLength: c.Limits.MaxExpressionLength,
		MaxRules:            c.Limits.MaxRules,
		MaxNestingDepth:     c.Limits.MaxNestingDepth,
	}
}

// BadgeURL builds the badge image URL for one outcome.
func (b BadgeConfig) BadgeURL(status, color string) string {
	return codec.BadgeURL(b.Template, b.Label, status, color)
}

// LinkURL builds the share link for an encoded statement. Returns "" when
// no link base is configured.
func (b BadgeConfig) LinkURL(encoded string) string {
	if b.LinkBase == "" {
		return ""
	}
	return codec.LinkURL(b.LinkBase, encoded)
}

// Markdown renders the badge as a Markdown image, linked to the share
// page when a link base is configured.
func (b BadgeConfig) Markdown(status, color, encoded string) string {
	badge := fmt.Sprintf("![%s](%s)", b.Label, b.BadgeURL(status, color))
	if link := b.LinkURL(encoded); link != "" {
		return fmt.Sprintf("[%s](%s)", badge, link)
	}
	return badge
}

// NewLogger builds a slog logger from the logging configuration. A nil
// writer logs to stderr.
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch l.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", l.Format)
	}

	return slog.New(handler), nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
