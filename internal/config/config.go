// Package config loads depmap configuration from .depmap/config.json with
// environment overrides (DEPMAP_*).
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete depmap configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	GitHost  GitHostConfig  `json:"gitHost" mapstructure:"gitHost"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Analyzer AnalyzerConfig `json:"analyzer" mapstructure:"analyzer"`
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// GitHostConfig configures the remote code-hosting client
type GitHostConfig struct {
	BaseURL    string `json:"baseUrl" mapstructure:"baseUrl"`
	Token      string `json:"token" mapstructure:"token"`
	TimeoutMs  int    `json:"timeoutMs" mapstructure:"timeoutMs"`
	MaxRetries int    `json:"maxRetries" mapstructure:"maxRetries"`
}

// CacheConfig configures TTLs per cache category.
// Listings use short TTLs because repository contents change; raw content
// changes less often and may live longer.
type CacheConfig struct {
	RepoListingTTLSeconds int `json:"repoListingTtlSeconds" mapstructure:"repoListingTtlSeconds"`
	DirListingTTLSeconds  int `json:"dirListingTtlSeconds" mapstructure:"dirListingTtlSeconds"`
	FileContentTTLSeconds int `json:"fileContentTtlSeconds" mapstructure:"fileContentTtlSeconds"`
	ParsedRefsTTLSeconds  int `json:"parsedRefsTtlSeconds" mapstructure:"parsedRefsTtlSeconds"`
	ParsedRefsMaxEntries  int `json:"parsedRefsMaxEntries" mapstructure:"parsedRefsMaxEntries"`
	Persist               bool `json:"persist" mapstructure:"persist"`
}

// AnalyzerConfig configures traversal limits
type AnalyzerConfig struct {
	DefaultMaxDepth  int `json:"defaultMaxDepth" mapstructure:"defaultMaxDepth"`
	MaxNodes         int `json:"maxNodes" mapstructure:"maxNodes"`
	TimeBudgetMs     int `json:"timeBudgetMs" mapstructure:"timeBudgetMs"`
	FetchConcurrency int `json:"fetchConcurrency" mapstructure:"fetchConcurrency"`
}

// ServerConfig configures the HTTP API surface
type ServerConfig struct {
	Addr      string `json:"addr" mapstructure:"addr"`
	TokenHash string `json:"tokenHash" mapstructure:"tokenHash"`
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the configuration used when no config file exists
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		GitHost: GitHostConfig{
			BaseURL:    "https://api.github.com",
			TimeoutMs:  10000,
			MaxRetries: 3,
		},
		Cache: CacheConfig{
			RepoListingTTLSeconds: 300,
			DirListingTTLSeconds:  300,
			FileContentTTLSeconds: 1800,
			ParsedRefsTTLSeconds:  1800,
			ParsedRefsMaxEntries:  2048,
			Persist:               true,
		},
		Analyzer: AnalyzerConfig{
			DefaultMaxDepth:  2,
			MaxNodes:         200,
			TimeBudgetMs:     30000,
			FetchConcurrency: 5,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7410",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <root>/.depmap/config.json, applying
// defaults and DEPMAP_* environment overrides. A missing file is not an
// error; defaults are returned.
func Load(root string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("gitHost.baseUrl", defaults.GitHost.BaseURL)
	v.SetDefault("gitHost.timeoutMs", defaults.GitHost.TimeoutMs)
	v.SetDefault("gitHost.maxRetries", defaults.GitHost.MaxRetries)
	v.SetDefault("cache.repoListingTtlSeconds", defaults.Cache.RepoListingTTLSeconds)
	v.SetDefault("cache.dirListingTtlSeconds", defaults.Cache.DirListingTTLSeconds)
	v.SetDefault("cache.fileContentTtlSeconds", defaults.Cache.FileContentTTLSeconds)
	v.SetDefault("cache.parsedRefsTtlSeconds", defaults.Cache.ParsedRefsTTLSeconds)
	v.SetDefault("cache.parsedRefsMaxEntries", defaults.Cache.ParsedRefsMaxEntries)
	v.SetDefault("cache.persist", defaults.Cache.Persist)
	v.SetDefault("analyzer.defaultMaxDepth", defaults.Analyzer.DefaultMaxDepth)
	v.SetDefault("analyzer.maxNodes", defaults.Analyzer.MaxNodes)
	v.SetDefault("analyzer.timeBudgetMs", defaults.Analyzer.TimeBudgetMs)
	v.SetDefault("analyzer.fetchConcurrency", defaults.Analyzer.FetchConcurrency)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".depmap"))

	v.SetEnvPrefix("DEPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.GitHost.BaseURL == "" {
		return fmt.Errorf("gitHost.baseUrl must not be empty")
	}
	if c.Analyzer.MaxNodes <= 0 {
		return fmt.Errorf("analyzer.maxNodes must be positive")
	}
	if c.Analyzer.FetchConcurrency <= 0 {
		return fmt.Errorf("analyzer.fetchConcurrency must be positive")
	}
	if c.Analyzer.DefaultMaxDepth < 0 {
		return fmt.Errorf("analyzer.defaultMaxDepth must not be negative")
	}
	return nil
}

// GitHostTimeout returns the per-request timeout for the code-hosting client
func (c *Config) GitHostTimeout() time.Duration {
	return time.Duration(c.GitHost.TimeoutMs) * time.Millisecond
}

// TimeBudget returns the wall-clock budget for a single analysis
func (c *Config) TimeBudget() time.Duration {
	return time.Duration(c.Analyzer.TimeBudgetMs) * time.Millisecond
}

// RepoListingTTL returns the TTL for cached repository catalogs
func (c *Config) RepoListingTTL() time.Duration {
	return time.Duration(c.Cache.RepoListingTTLSeconds) * time.Second
}

// DirListingTTL returns the TTL for cached directory listings
func (c *Config) DirListingTTL() time.Duration {
	return time.Duration(c.Cache.DirListingTTLSeconds) * time.Second
}

// FileContentTTL returns the TTL for cached raw file content
func (c *Config) FileContentTTL() time.Duration {
	return time.Duration(c.Cache.FileContentTTLSeconds) * time.Second
}

// ParsedRefsTTL returns the TTL for memoized reference extraction
func (c *Config) ParsedRefsTTL() time.Duration {
	return time.Duration(c.Cache.ParsedRefsTTLSeconds) * time.Second
}
