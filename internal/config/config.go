// Package config assembles process configuration from, in increasing
// precedence: built-in defaults, an optional YAML file named by
// LAUNCHDASH_CONFIG, a .env file, and LAUNCHDASH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/star/launchdash/internal/api"
	"github.com/star/launchdash/internal/auth"
	"github.com/star/launchdash/internal/launch"
)

// RenderConfig sets the size of rendered charts in pixels.
type RenderConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the full process configuration.
type Config struct {
	Server   api.Config          `yaml:"server"`
	Auth     auth.Config         `yaml:"auth"`
	Data     launch.SourceConfig `yaml:"data"`
	Render   RenderConfig        `yaml:"render"`
	LogLevel string              `yaml:"log_level"`
}

// Default returns the zero-configuration settings.
func Default() Config {
	return Config{
		Server: api.Config{
			Addr:                     ":8050",
			RenderMaxConcurrentPerIP: 4,
		},
		Data: launch.SourceConfig{
			Source:           launch.DefaultSource,
			FetchTimeout:     30 * time.Second,
			SnapshotMaxFiles: 5,
		},
		Render:   RenderConfig{Width: 800, Height: 450},
		LogLevel: "info",
	}
}

// Load builds the configuration. Invalid numeric values are logged and
// replaced by defaults; an unreadable config file or inconsistent auth
// settings are returned as errors.
func Load(logger *slog.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to read .env file", "error", err)
	}

	cfg := Default()
	if path := os.Getenv("LAUNCHDASH_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
		logger.Info("loaded config file", "path", path)
	}

	if err := applyEnv(logger, &cfg); err != nil {
		return cfg, err
	}
	if err := validateAuth(cfg.Auth); err != nil {
		return cfg, err
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		logger.Warn("invalid log level, using info", "value", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	logger.Info("config",
		"addr", cfg.Server.Addr,
		"data_source", redactSource(cfg.Data.Source),
		"snapshot_dir", cfg.Data.SnapshotDir,
		"fetch_timeout_seconds", cfg.Data.FetchTimeout.Seconds(),
		"auth_enabled", cfg.Auth.Enabled,
		"log_level", cfg.LogLevel,
	)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(logger *slog.Logger, cfg *Config) error {
	if v := os.Getenv("LAUNCHDASH_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LAUNCHDASH_DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv("LAUNCHDASH_SNAPSHOT_DIR"); v != "" {
		cfg.Data.SnapshotDir = v
	}
	if v := os.Getenv("LAUNCHDASH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.Data.SnapshotMaxFiles = envPositiveInt(logger, "LAUNCHDASH_SNAPSHOT_MAX_FILES", cfg.Data.SnapshotMaxFiles)
	cfg.Data.FetchTimeout = envSeconds(logger, "LAUNCHDASH_FETCH_TIMEOUT", cfg.Data.FetchTimeout)
	cfg.Server.RenderMaxConcurrentPerIP = envPositiveInt(logger, "LAUNCHDASH_RENDER_MAX_CONCURRENT", cfg.Server.RenderMaxConcurrentPerIP)
	cfg.Render.Width = envPositiveInt(logger, "LAUNCHDASH_CHART_WIDTH", cfg.Render.Width)
	cfg.Render.Height = envPositiveInt(logger, "LAUNCHDASH_CHART_HEIGHT", cfg.Render.Height)

	if v := os.Getenv("LAUNCHDASH_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid LAUNCHDASH_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.Server.TrustProxy = b
		}
	}

	if v := os.Getenv("LAUNCHDASH_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("LAUNCHDASH_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Auth.Enabled = enabled
	}
	if v := os.Getenv("LAUNCHDASH_AUTH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	return nil
}

func envPositiveInt(logger *slog.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def)
		return def
	}
	return n
}

// envSeconds overrides def with a whole number of seconds from key. Unset
// keeps def untouched, including sub-second durations from the config file.
func envSeconds(logger *slog.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def.String())
		return def
	}
	return time.Duration(n) * time.Second
}

func validateAuth(cfg auth.Config) error {
	if cfg.Enabled && cfg.Token == "" {
		return errors.New("LAUNCHDASH_AUTH_TOKEN is required when auth is enabled")
	}
	return nil
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, err
	}
	return l, nil
}

// redactSource hides credentials in DSN or URL sources before logging.
func redactSource(s string) string {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return s
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return s
}
