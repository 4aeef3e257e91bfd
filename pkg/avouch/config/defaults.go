package config

import (
	"time"

	"github.com/chosenoffset/avouch/pkg/avouch/codec"
)

// Default values for configuration fields.
const (
	// Statement defaults
	DefaultVersion = 1

	// Outcome defaults
	DefaultOutcomeName  = "unclassified"
	DefaultOutcomeColor = "lightgrey"

	// Badge defaults
	DefaultBadgeLabel    = "AI disclosure"
	DefaultBadgeTemplate = codec.DefaultBadgeTemplate

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8931"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultHistory         = 100

	// Storage defaults
	DefaultStoragePath       = "data/avouch.db"
	DefaultBusyTimeout       = 5 * time.Second
	DefaultRetentionMaxAge   = 90 * 24 * time.Hour
	DefaultRetentionSchedule = "0 3 * * *"

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
)

// ApplyDefaults fills zero-valued fields with their defaults. It is
// idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = DefaultVersion
	}

	for i := range cfg.Levels {
		if cfg.Levels[i].Label == "" {
			cfg.Levels[i].Label = cfg.Levels[i].Name
		}
	}

	if cfg.Default.Name == "" {
		cfg.Default.Name = DefaultOutcomeName
	}
	if cfg.Default.Label == "" {
		cfg.Default.Label = cfg.Default.Name
	}
	if cfg.Default.Color == "" {
		cfg.Default.Color = DefaultOutcomeColor
	}

	if cfg.Badge.Label == "" {
		cfg.Badge.Label = DefaultBadgeLabel
	}
	if cfg.Badge.Template == "" {
		cfg.Badge.Template = DefaultBadgeTemplate
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.History == 0 {
		cfg.Server.History = DefaultHistory
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Storage.Retention.MaxAge == 0 {
		cfg.Storage.Retention.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.Storage.Retention.Schedule == "" {
		cfg.Storage.Retention.Schedule = DefaultRetentionSchedule
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
}
