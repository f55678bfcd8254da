// Package config loads the chessaudit configuration from an optional YAML
// file with CHESSAUDIT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hailam/chessaudit/internal/replay"
)

// Storage backends.
const (
	BackendNone     = "none"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type ReplayConfig struct {
	RoundLimit     int  `yaml:"round_limit"`
	MaxMoveLength  int  `yaml:"max_move_length"`
	AbortOnIllegal bool `yaml:"abort_on_illegal"`
	FoldWidth      bool `yaml:"fold_width"`
}

// Options converts the section into replay options.
func (c ReplayConfig) Options() replay.Options {
	return replay.Options{
		RoundLimit:     c.RoundLimit,
		MaxMoveLength:  c.MaxMoveLength,
		AbortOnIllegal: c.AbortOnIllegal,
		FoldWidth:      c.FoldWidth,
	}
}

type StorageConfig struct {
	Backend     string        `yaml:"backend"`
	BadgerDir   string        `yaml:"badger_dir"` // empty means <data dir>/db
	RedisURL    string        `yaml:"redis_url"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`
	DatabaseURL string        `yaml:"database_url"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxBodyBytes   int           `yaml:"max_body_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ShutdownPeriod time.Duration `yaml:"shutdown_period"`
}

type FeedConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // legacy, console or json
	Console bool   `yaml:"console"`
	File    string `yaml:"file"` // empty disables file output
	Caller  bool   `yaml:"caller"`
}

// Config is the full application configuration.
type Config struct {
	Replay  ReplayConfig  `yaml:"replay"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Feed    FeedConfig    `yaml:"feed"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Replay: ReplayConfig{
			RoundLimit:    replay.DefaultRoundLimit,
			MaxMoveLength: replay.DefaultMaxMoveLength,
			FoldWidth:     true,
		},
		Storage: StorageConfig{
			Backend:  BackendBadger,
			RedisTTL: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxBodyBytes:   1 << 20,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			ShutdownPeriod: 5 * time.Second,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "legacy",
			Console: true,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	get := func(k string) string { return strings.TrimSpace(getenv("CHESSAUDIT_" + k)) }

	if v := get("ROUND_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHESSAUDIT_ROUND_LIMIT: %w", err)
		}
		c.Replay.RoundLimit = n
	}
	if v := get("MAX_MOVE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHESSAUDIT_MAX_MOVE_LENGTH: %w", err)
		}
		c.Replay.MaxMoveLength = n
	}
	if v := get("ABORT_ON_ILLEGAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHESSAUDIT_ABORT_ON_ILLEGAL: %w", err)
		}
		c.Replay.AbortOnIllegal = b
	}
	if v := get("FOLD_WIDTH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHESSAUDIT_FOLD_WIDTH: %w", err)
		}
		c.Replay.FoldWidth = b
	}

	if v := get("STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := get("BADGER_DIR"); v != "" {
		c.Storage.BadgerDir = v
	}
	if v := get("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := get("REDIS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESSAUDIT_REDIS_TTL: %w", err)
		}
		c.Storage.RedisTTL = d
	}
	if v := get("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}

	if v := get("ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := get("FEED_URL"); v != "" {
		c.Feed.URL = v
	}

	if v := get("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := get("LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := get("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	return nil
}

// Validate checks the configuration for values the program cannot run with.
func (c *Config) Validate() error {
	if c.Replay.RoundLimit < 0 {
		return errors.New("replay.round_limit must not be negative")
	}
	if c.Replay.MaxMoveLength < 0 {
		return errors.New("replay.max_move_length must not be negative")
	}
	switch c.Storage.Backend {
	case BackendNone, BackendBadger:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required for the redis backend")
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("storage.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Log.Format {
	case "legacy", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	return nil
}
