package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	appLog "opsdash/internal/log"
)

// NOTE: This file provides the configuration model and YAML load/save,
// including first-run config creation and 0600 permissions.

const (
	defaultListen   = "127.0.0.1:8080"
	defaultRefresh  = "*/15 * * * *"
	defaultCacheTTL = 30
	defaultBasePath = "/dashboard"
	defaultCurrency = "£"
	defaultCacheDir = "/var/lib/opsdash/ics-cache"
	defaultLogLevel = "info"
)

// ICSConfig describes a single ICS job feed.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for logging and job IDs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	}
	return c.URL
}

// SourcesConfig lists where jobs come from. All configured sources are
// queried and merged.
type SourcesConfig struct {
	ICS []ICSConfig `yaml:"ics" json:"ics"`
	// Files are YAML job lists.
	Files []string `yaml:"files" json:"files"`
	// SQLite is the path of a database with a jobs table. Empty disables it.
	SQLite string `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone whose calendar defines "today" and in
	// which ICS event times are read. Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron schedule on which cached jobs are dropped so
	// the next request refetches them. An omitted key keeps the default;
	// an explicit empty string disables scheduled refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheTTLSeconds bounds how long fetched jobs are reused.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// BasePath is the path navigation links point at.
	BasePath string `yaml:"base_path" json:"base_path"`

	// CurrencySymbol prefixes amounts in text output.
	CurrencySymbol string `yaml:"currency_symbol" json:"currency_symbol"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Sources SourcesConfig `yaml:"sources" json:"sources"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		LogLevel:        defaultLogLevel,
		RefreshCron:     defaultRefresh,
		CacheTTLSeconds: defaultCacheTTL,
		BasePath:        defaultBasePath,
		CurrencySymbol:  defaultCurrency,
		CacheDir:        defaultCacheDir,
		Sources: SourcesConfig{
			ICS:   []ICSConfig{},
			Files: []string{},
		},
	}
}

// Normalize fills in missing/zero values with defaults so partially filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok || c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.CacheTTLSeconds < 0 {
		c.CacheTTLSeconds = 0
	}
	if c.BasePath == "" {
		c.BasePath = defaultBasePath
	}
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = defaultCurrency
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.Sources.ICS == nil {
		c.Sources.ICS = []ICSConfig{}
	}
	if c.Sources.Files == nil {
		c.Sources.Files = []string{}
	}
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 perms and returned.
//   - Otherwise the YAML is read, unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".opsdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
