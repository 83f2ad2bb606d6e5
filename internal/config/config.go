// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config filled with defaults.
// - Load layers a YAML file and the environment over those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendPGX      = "pgx"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the encoder: json or console.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorageBackend is memory, postgres (lib/pq) or pgx.
	StorageBackend string `koanf:"storage_backend"`

	// DatabaseURL is the DSN for the SQL backends.
	DatabaseURL string `koanf:"database_url"`

	DBMaxOpenConns int `koanf:"db_max_open_conns"`
	DBMaxIdleConns int `koanf:"db_max_idle_conns"`

	// SeedPositions inserts the default positions on startup.
	SeedPositions bool `koanf:"seed_positions"`

	// RedisAddr enables the position cache when set.
	RedisAddr        string        `koanf:"redis_addr"`
	RedisPassword    string        `koanf:"redis_password"`
	RedisDB          int           `koanf:"redis_db"`
	PositionCacheTTL time.Duration `koanf:"position_cache_ttl"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// MaxUploadBytes caps the size of an upload request.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// NeutralSkillScore is the skill sub-score for positions without requirements.
	NeutralSkillScore int `koanf:"neutral_skill_score"`

	// ExperiencePolicy is years or count.
	ExperiencePolicy string `koanf:"experience_policy"`

	// RelevanceBonus adds a bonus when the declared position matches.
	RelevanceBonus bool `koanf:"relevance_bonus"`

	// MinutesSavedPerCV feeds the dashboard time-saved figure.
	MinutesSavedPerCV int `koanf:"minutes_saved_per_cv"`

	// MaxListLimit caps GET /api/candidates?limit.
	MaxListLimit int `koanf:"max_list_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "json",
		Addr:              ":9080",
		StorageBackend:    BackendMemory,
		DBMaxOpenConns:    10,
		DBMaxIdleConns:    5,
		SeedPositions:     true,
		PositionCacheTTL:  5 * time.Minute,
		WorkerCount:       runtime.NumCPU() * 4,
		QueueSize:         10_000,
		MaxUploadBytes:    10 << 20,
		NeutralSkillScore: 85,
		ExperiencePolicy:  "years",
		MinutesSavedPerCV: 10,
		MaxListLimit:      1000,
	}
}

// Validate reports every invalid field, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Addr == "" {
		bad("addr must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		bad("unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		bad("unknown log_format %q", c.LogFormat)
	}
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres, BackendPGX:
		if c.DatabaseURL == "" {
			bad("database_url is required for the %s backend", c.StorageBackend)
		}
	default:
		bad("unknown storage_backend %q", c.StorageBackend)
	}
	if c.RedisDB < 0 {
		bad("redis_db must not be negative")
	}
	if c.PositionCacheTTL < 0 {
		bad("position_cache_ttl must not be negative")
	}
	if c.WorkerCount < 1 {
		bad("worker_count must be at least 1")
	}
	if c.QueueSize < 1 {
		bad("queue_size must be at least 1")
	}
	if c.MaxUploadBytes < 1 {
		bad("max_upload_bytes must be positive")
	}
	if c.NeutralSkillScore < 0 || c.NeutralSkillScore > 100 {
		bad("neutral_skill_score must be within 0..100")
	}
	switch c.ExperiencePolicy {
	case "years", "count":
	default:
		bad("unknown experience_policy %q", c.ExperiencePolicy)
	}
	if c.MinutesSavedPerCV < 0 {
		bad("minutes_saved_per_cv must not be negative")
	}
	if c.MaxListLimit < 1 {
		bad("max_list_limit must be at least 1")
	}
	return errors.Join(errs...)
}
