// Package config holds the application configuration: term boundary,
// feed subscriptions, sync cadence and storage location. Loading
// creates a default file on first run; saving is atomic.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"weekplan/internal/model"
)

// BasicAuthConfig protects the HTTP API. Blank credentials disable it.
type BasicAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// FeedConfig describes one calendar-feed subscription.
type FeedConfig struct {
	// URL is the subscription endpoint; it doubles as the feed's
	// stable identity for merge isolation.
	URL string `yaml:"url"`
	// Name is a human-friendly label.
	Name string `yaml:"name,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// DBPath locates the schedule database.
	DBPath string `yaml:"db_path"`

	// TermEnd is the academic term's closing date (YYYY-MM-DD). It
	// bounds all recurrence expansion and feed ingestion.
	TermEnd string `yaml:"term_end"`

	// RefreshCron is the background sync cadence in cron syntax.
	RefreshCron string `yaml:"refresh"`

	// FetchTimeoutSeconds bounds each feed download.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	// IncludeClosingWeek lets automatic recurrence populate the term's
	// final week. Off by default: finals week stays clear.
	IncludeClosingWeek bool `yaml:"include_closing_week"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Listen is the daemon's HTTP API address ("127.0.0.1:8080").
	// Empty disables the API.
	Listen string `yaml:"listen,omitempty"`

	// BasicAuth guards the HTTP API when set.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty"`

	// Feeds lists the subscribed calendar feeds.
	Feeds []FeedConfig `yaml:"feeds"`
}

// DefaultConfig returns the in-memory defaults. The default term end
// is the last day of the current year so a fresh install expands
// recurrence over a sane horizon until the real term is configured.
func DefaultConfig() *Config {
	return &Config{
		DBPath:              defaultDBPath(),
		TermEnd:             fmt.Sprintf("%d-12-31", time.Now().Year()),
		RefreshCron:         "@daily",
		FetchTimeoutSeconds: 10,
		LogLevel:            "info",
		Feeds:               []FeedConfig{},
	}
}

func defaultDBPath() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".weekplan", "weekplan.db")
	}
	return "weekplan.db"
}

// Normalize fills missing or invalid fields with defaults so partially
// written configs keep working.
func (c *Config) Normalize() {
	if c.DBPath == "" {
		c.DBPath = defaultDBPath()
	}
	if c.TermEnd == "" {
		c.TermEnd = fmt.Sprintf("%d-12-31", time.Now().Year())
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "@daily"
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

// TermEndDate parses the configured term end.
func (c *Config) TermEndDate() (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout, c.TermEnd, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid term_end %q: %w", c.TermEnd, err)
	}
	return t, nil
}

// FetchTimeout returns the per-feed download bound.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Load reads the configuration from path. A missing file is first-run:
// the default config is written (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".weekplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
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
