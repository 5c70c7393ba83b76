package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Sessions SessionConfig  `yaml:"sessions"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit"`
}

// DatabaseConfig selects the store backend. Driver is one of postgres,
// sqlite or memory.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	URL         string `yaml:"url"`
	Path        string `yaml:"path"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	Weights     []scoring.Weight `yaml:"weights"`
	SourceScale float64          `yaml:"source_scale"`
}

type SessionConfig struct {
	DefaultID   string `yaml:"default_id"`
	TTLMinutes  int    `yaml:"ttl_minutes"`
	MaxSessions int    `yaml:"max_sessions"`
}

type RefreshConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMs int  `yaml:"interval_ms"`
}

// ExportConfig controls ranking report exports. Backend is one of local, s3
// or gcs. An empty Schedule disables scheduled exports.
type ExportConfig struct {
	Backend  string `yaml:"backend"`
	Dir      string `yaml:"dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalMs) * time.Millisecond
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTLMinutes) * time.Minute
}

// DefaultWeights returns the configured starting weight vector.
func (c *Config) DefaultWeights() scoring.WeightVector {
	return scoring.WeightVector(c.Scoring.Weights).Clone()
}

// SlogLevel maps Logging.Level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			Path:        "mrat.db",
			AutoMigrate: true,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			Weights:     scoring.DefaultWeights(),
			SourceScale: scoring.MaxScore,
		},
		Sessions: SessionConfig{
			DefaultID:   "default",
			TTLMinutes:  60,
			MaxSessions: 1000,
		},
		Refresh: RefreshConfig{
			Enabled:    true,
			IntervalMs: 60000,
		},
		Export: ExportConfig{
			Backend:  "local",
			Dir:      "./exports",
			Prefix:   "reports",
			Region:   "us-east-1",
			Timezone: "UTC",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := scoring.WeightVector(c.Scoring.Weights).Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("scoring.weights: %w", err))
	}
	if c.Scoring.SourceScale != 10 && c.Scoring.SourceScale != 100 {
		result = multierror.Append(result, fmt.Errorf("scoring.source_scale must be 10 or 100, got %v", c.Scoring.SourceScale))
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			result = multierror.Append(result, fmt.Errorf("database.url is required for the postgres driver"))
		}
	case "sqlite":
		if c.Database.Path == "" {
			result = multierror.Append(result, fmt.Errorf("database.path is required for the sqlite driver"))
		}
	case "memory":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	switch c.Export.Backend {
	case "local", "s3", "gcs":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown export.backend %q", c.Export.Backend))
	}
	if (c.Export.Backend == "s3" || c.Export.Backend == "gcs") && c.Export.Bucket == "" {
		result = multierror.Append(result, fmt.Errorf("export.bucket is required for the %s backend", c.Export.Backend))
	}
	if c.Server.Port <= 0 || c.Server.MetricsPort <= 0 {
		result = multierror.Append(result, fmt.Errorf("server ports must be positive"))
	}
	if c.Refresh.Enabled && c.Refresh.IntervalMs <= 0 {
		result = multierror.Append(result, fmt.Errorf("refresh.interval_ms must be positive"))
	}

	return result.ErrorOrNil()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MRAT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("MRAT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("MRAT_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("MRAT_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("MRAT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("MRAT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MRAT_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("MRAT_REFRESH_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Refresh.IntervalMs = n
		}
	}
	if v := os.Getenv("MRAT_REFRESH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Refresh.Enabled = b
		}
	}
	if v := os.Getenv("MRAT_EXPORT_BACKEND"); v != "" {
		cfg.Export.Backend = v
	}
	if v := os.Getenv("MRAT_EXPORT_BUCKET"); v != "" {
		cfg.Export.Bucket = v
	}
	if v := os.Getenv("MRAT_EXPORT_SCHEDULE"); v != "" {
		cfg.Export.Schedule = v
	}
	if v := os.Getenv("MRAT_SESSION_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sessions.TTLMinutes = n
		}
	}
	if v := os.Getenv("MRAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
