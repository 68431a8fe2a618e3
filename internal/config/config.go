package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"famcal/internal/calendar"
	"famcal/internal/ics"
	"famcal/internal/specialdays"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Europe/Paris"
	defaultDBPath      = "./var/famcal.db"
	defaultCacheDir    = "./var/ics-cache"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 30
	defaultCacheTTL    = 30
	dateLayout         = "2006-01-02"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// ClosureConfig is an inclusive range of daycare closure dates.
type ClosureConfig struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
	Name string `yaml:"name" json:"name"`
}

// RenderConfig drives the headless Chromium used for PDF export.
type RenderConfig struct {
	ChromePath string `yaml:"chrome_path" json:"chrome_path"`
	NoSandbox  bool   `yaml:"no_sandbox" json:"no_sandbox"`
	Landscape  bool   `yaml:"landscape" json:"landscape"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone weeks are computed in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DBPath points at the household SQLite database.
	DBPath string `yaml:"db_path" json:"db_path"`

	// CacheDir stores downloaded ICS bodies between refreshes.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RefreshCron is the standard cron schedule of feed refreshes.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// HorizonDays is the default look-ahead of recurrence projections.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// CacheTTLSeconds bounds how long the API reuses a computed week.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	Rules calendar.Rules `yaml:"rules" json:"rules"`

	// Feeds are ICS subscriptions merged into the week as events.
	Feeds []ics.Subscription `yaml:"feeds" json:"feeds"`

	// ClosureFeeds are ICS calendars whose all-day events are daycare
	// closures.
	ClosureFeeds []ics.Subscription `yaml:"closure_feeds" json:"closure_feeds"`

	DaycareClosures []ClosureConfig `yaml:"daycare_closures" json:"daycare_closures"`

	DisableBridgeDays bool `yaml:"disable_bridge_days" json:"disable_bridge_days"`

	Render RenderConfig `yaml:"render" json:"render"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills missing values with defaults so partial files work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = defaultCacheTTL
	}
	c.Rules.Normalize()
	if c.Feeds == nil {
		c.Feeds = []ics.Subscription{}
	}
	if c.ClosureFeeds == nil {
		c.ClosureFeeds = []ics.Subscription{}
	}
	if c.DaycareClosures == nil {
		c.DaycareClosures = []ClosureConfig{}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		c.BasicAuth = nil
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
	}
	if c.Rules.LatestStart <= c.Rules.EarliestStart {
		errs = append(errs, fmt.Errorf("rules: latest_start %s must be after earliest_start %s", c.Rules.LatestStart, c.Rules.EarliestStart))
	}
	seen := map[string]bool{}
	for i, f := range append(append([]ics.Subscription{}, c.Feeds...), c.ClosureFeeds...) {
		switch {
		case strings.TrimSpace(f.URL) == "":
			errs = append(errs, fmt.Errorf("feed %d: url is required", i))
		case f.ID == "":
			errs = append(errs, fmt.Errorf("feed %d: id is required", i))
		case seen[f.ID]:
			errs = append(errs, fmt.Errorf("feed %q: duplicate id", f.ID))
		}
		seen[f.ID] = true
	}
	if _, err := c.ClosurePeriods(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ClosurePeriods parses the configured daycare closures.
func (c *Config) ClosurePeriods() ([]specialdays.Period, error) {
	periods := make([]specialdays.Period, 0, len(c.DaycareClosures))
	for i, cl := range c.DaycareClosures {
		from, err := time.Parse(dateLayout, cl.From)
		if err != nil {
			return nil, fmt.Errorf("daycare_closures[%d].from: %w", i, err)
		}
		to := from
		if cl.To != "" {
			if to, err = time.Parse(dateLayout, cl.To); err != nil {
				return nil, fmt.Errorf("daycare_closures[%d].to: %w", i, err)
			}
		}
		if to.Before(from) {
			return nil, fmt.Errorf("daycare_closures[%d]: to is before from", i)
		}
		periods = append(periods, specialdays.Period{From: from, To: to, Name: cl.Name})
	}
	return periods, nil
}

// envOverrides are applied on top of the file, for containers and secrets.
type envOverrides struct {
	Listen        string `env:"FAMCAL_LISTEN"`
	Timezone      string `env:"FAMCAL_TIMEZONE"`
	DBPath        string `env:"FAMCAL_DB_PATH"`
	CacheDir      string `env:"FAMCAL_CACHE_DIR"`
	RefreshCron   string `env:"FAMCAL_REFRESH"`
	LogLevel      string `env:"FAMCAL_LOG_LEVEL"`
	ChromePath    string `env:"FAMCAL_CHROME_PATH"`
	BasicUser     string `env:"FAMCAL_BASIC_AUTH_USER"`
	BasicPassword string `env:"FAMCAL_BASIC_AUTH_PASSWORD"`
}

// ApplyEnv overrides file values with FAMCAL_* environment variables.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Listen, o.Listen)
	set(&c.Timezone, o.Timezone)
	set(&c.DBPath, o.DBPath)
	set(&c.CacheDir, o.CacheDir)
	set(&c.RefreshCron, o.RefreshCron)
	set(&c.LogLevel, o.LogLevel)
	set(&c.Render.ChromePath, o.ChromePath)
	if o.BasicUser != "" && o.BasicPassword != "" {
		c.BasicAuth = &BasicAuthConfig{Username: o.BasicUser, Password: o.BasicPassword}
	}
	return nil
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. A missing file is created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg atomically (temp file then rename) with 0600 perms.
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

	tmp, err := os.CreateTemp(dir, ".famcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
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
