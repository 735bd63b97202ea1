// Package config loads the server configuration from a JSON file, an
// optional .env file and ELECTIONS_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"

	"github.com/banshee-data/election.report/internal/aggregate"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/elections.defaults.json"

// EnvPrefix prefixes every environment override, e.g. ELECTIONS_LISTEN.
const EnvPrefix = "ELECTIONS_"

// Config is the server configuration. Unset fields fall back to the
// defaults returned by the Get* methods, so partial files are safe.
type Config struct {
	Listen          *string `json:"listen,omitempty"`
	DBPath          *string `json:"db_path,omitempty"`
	RankingSize     *int    `json:"ranking_size,omitempty"`
	SessionLimit    *int    `json:"session_limit,omitempty"`
	DefaultScheme   *string `json:"default_scheme,omitempty"`
	AssetsHost      *string `json:"assets_host,omitempty"`
	HistogramBins   *int    `json:"histogram_bins,omitempty"`
	ShutdownTimeout *string `json:"shutdown_timeout,omitempty"` // duration string like "5s"
	DevMode         *bool   `json:"dev_mode,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }

// Load reads a config file. The file must have a .json extension and be
// under 1MB; comments and trailing commas are allowed.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	data, err = hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithEnv loads path (skipped when empty), then applies a .env file from
// envFile if it exists, then ELECTIONS_* variables.
func LoadWithEnv(path, envFile string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ELECTIONS_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst **string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = ptrString(v)
		}
	}
	integer := func(name string, dst **int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = ptrInt(n)
		return nil
	}

	str("LISTEN", &c.Listen)
	str("DB_PATH", &c.DBPath)
	str("DEFAULT_SCHEME", &c.DefaultScheme)
	str("ASSETS_HOST", &c.AssetsHost)
	str("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	if err := integer("RANKING_SIZE", &c.RankingSize); err != nil {
		return err
	}
	if err := integer("SESSION_LIMIT", &c.SessionLimit); err != nil {
		return err
	}
	if err := integer("HISTOGRAM_BINS", &c.HistogramBins); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "DEV_MODE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sDEV_MODE: %w", EnvPrefix, err)
		}
		c.DevMode = ptrBool(b)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.RankingSize != nil && *c.RankingSize < 1 {
		return fmt.Errorf("ranking_size must be positive, got %d", *c.RankingSize)
	}
	if c.SessionLimit != nil && *c.SessionLimit < 1 {
		return fmt.Errorf("session_limit must be positive, got %d", *c.SessionLimit)
	}
	if c.HistogramBins != nil && (*c.HistogramBins < 1 || *c.HistogramBins > 200) {
		return fmt.Errorf("histogram_bins must be between 1 and 200, got %d", *c.HistogramBins)
	}
	if c.DefaultScheme != nil {
		if _, err := aggregate.ParseScheme(*c.DefaultScheme); err != nil {
			return fmt.Errorf("default_scheme: %w", err)
		}
	}
	if c.ShutdownTimeout != nil && *c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(*c.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdown_timeout '%s': %w", *c.ShutdownTimeout, err)
		}
	}
	if c.DBPath != nil && strings.TrimSpace(*c.DBPath) == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	return nil
}

// GetListen returns the listen address (default ":8080").
func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080"
	}
	return *c.Listen
}

// GetDBPath returns the SQLite database path (default "elections.db").
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return "elections.db"
	}
	return *c.DBPath
}

// GetRankingSize returns the closest/furthest table length (default 10).
func (c *Config) GetRankingSize() int {
	if c.RankingSize == nil {
		return aggregate.DefaultRankingSize
	}
	return *c.RankingSize
}

// GetSessionLimit returns how many election-night boards are kept (default 1024).
func (c *Config) GetSessionLimit() int {
	if c.SessionLimit == nil {
		return 1024
	}
	return *c.SessionLimit
}

// GetDefaultScheme returns the scheme used when a request names none.
func (c *Config) GetDefaultScheme() aggregate.Scheme {
	if c.DefaultScheme == nil {
		return aggregate.Basic
	}
	s, _ := aggregate.ParseScheme(*c.DefaultScheme)
	return s
}

// GetAssetsHost returns where chart pages load echarts from. Empty means
// the go-echarts default.
func (c *Config) GetAssetsHost() string {
	if c.AssetsHost == nil {
		return ""
	}
	return *c.AssetsHost
}

// GetHistogramBins returns the margin histogram bin count (default 20).
func (c *Config) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 20
	}
	return *c.HistogramBins
}

// GetShutdownTimeout returns the graceful shutdown deadline (default 5s).
func (c *Config) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == nil || *c.ShutdownTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetDevMode reports whether migrations are read from disk.
func (c *Config) GetDevMode() bool {
	return c.DevMode != nil && *c.DevMode
}
