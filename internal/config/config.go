package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HomeEnv overrides the base directory (default ~/.curatr).
const HomeEnv = "CURATR_HOME"

// Config holds application configuration.
type Config struct {
	// ExpiryHours is how long a decorated recommendation's price stays valid
	ExpiryHours int `json:"expiry_hours" yaml:"expiry_hours"`

	// UpcomingLimit caps the number of entries returned by upcoming occasions
	UpcomingLimit int `json:"upcoming_limit" yaml:"upcoming_limit"`

	// AffiliateTag is appended to mock buy links.
	AffiliateTag string `json:"affiliate_tag,omitempty" yaml:"affiliate_tag,omitempty"`

	// AllowDuplicateSaves permits more than one Memory Box entry per
	// (item, recipient) pair. Off by default: a second save is a CONFLICT.
	AllowDuplicateSaves bool `json:"allow_duplicate_saves,omitempty" yaml:"allow_duplicate_saves,omitempty"`

	// ResetExpiryOnRefresh restarts the expiry window when a price is refreshed.
	// Off by default: a refreshed item keeps its original expiry and may stay
	// "Expired" alongside the new price.
	ResetExpiryOnRefresh bool `json:"reset_expiry_on_refresh,omitempty" yaml:"reset_expiry_on_refresh,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// AllowedPaths lists extra absolute directories backups may be written to
	// or read from, in addition to <base>/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ExpiryHours:   23,
		UpcomingLimit: 3,
		AffiliateTag:  "giftcuratr-20",
		LogLevel:      "info",
	}
}

// ExpiryTTL returns the expiry window as a duration.
func (c *Config) ExpiryTTL() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

// BaseDir resolves the data directory: $CURATR_HOME if set, else ~/.curatr.
func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".curatr"), nil
}

// Load loads configuration from baseDir/config.json, falling back to
// baseDir/config.yaml. Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.curatr.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg, err = loadFileRaw(filepath.Join(baseDir, "config.yaml"))
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = &Config{}
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.ExpiryHours < 0 {
		return fmt.Errorf("expiry_hours must be non-negative, got %d", c.ExpiryHours)
	}
	if c.UpcomingLimit < 0 {
		return fmt.Errorf("upcoming_limit must be non-negative, got %d", c.UpcomingLimit)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}

// loadFileRaw loads configuration from a specific file path, choosing the
// decoder by extension. Returns nil (no error) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch filepath.Ext(configPath) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.ExpiryHours = overlay.ExpiryHours
	if result.ExpiryHours == 0 {
		result.ExpiryHours = base.ExpiryHours
	}

	result.UpcomingLimit = overlay.UpcomingLimit
	if result.UpcomingLimit == 0 {
		result.UpcomingLimit = base.UpcomingLimit
	}

	result.AffiliateTag = strings.TrimSpace(overlay.AffiliateTag)
	if result.AffiliateTag == "" {
		result.AffiliateTag = base.AffiliateTag
	}

	result.LogLevel = strings.ToLower(strings.TrimSpace(overlay.LogLevel))
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.AllowDuplicateSaves = base.AllowDuplicateSaves || overlay.AllowDuplicateSaves
	result.ResetExpiryOnRefresh = base.ResetExpiryOnRefresh || overlay.ResetExpiryOnRefresh

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
