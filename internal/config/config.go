package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/balkashynov/tempo/internal/logging"
	"github.com/balkashynov/tempo/internal/recurrence"
	"github.com/balkashynov/tempo/internal/stats"
)

// UserConfig identifies the local owner of every row. The user is created on
// first use, keyed by email.
type UserConfig struct {
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email" json:"email"`
}

// RecurrenceConfig tunes how series expand and how pauses suppress them.
type RecurrenceConfig struct {
	// MissingByDay decides what a weekly rule without BYDAY produces:
	//   - "none" (default): no occurrences
	//   - "every_day": one occurrence per day
	MissingByDay string `yaml:"missing_byday" json:"missing_byday"`

	// PauseMatch decides when a pause suppresses an occurrence:
	//   - "date" (default): the occurrence date lies in the pause's date range
	//   - "instant": the occurrence lies fully inside the pause instants
	PauseMatch string `yaml:"pause_match" json:"pause_match"`
}

// StatsCacheConfig controls memoization of statistics.
type StatsCacheConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	TTL        time.Duration `yaml:"ttl" json:"ttl"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries"`
}

// Config is the top-level application configuration.
type Config struct {
	// Database is the SQLite file path. Empty means ~/.tempo/tempo.db.
	Database string `yaml:"database" json:"database"`

	// Timezone is the IANA zone dates are interpreted in (e.g. "Europe/Berlin").
	// Empty or "Local" uses the system zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogFile, if set, receives JSON log lines in addition to the console.
	LogFile string `yaml:"log_file,omitempty" json:"log_file,omitempty"`

	User       UserConfig       `yaml:"user" json:"user"`
	Recurrence RecurrenceConfig `yaml:"recurrence" json:"recurrence"`
	StatsCache StatsCacheConfig `yaml:"stats_cache" json:"stats_cache"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "Local",
		LogLevel: "warn",
		User: UserConfig{
			Name:  defaultUserName(),
			Email: "me@localhost",
		},
		Recurrence: RecurrenceConfig{
			MissingByDay: "none",
			PauseMatch:   "date",
		},
		StatsCache: StatsCacheConfig{
			Enabled:    true,
			TTL:        stats.DefaultCacheConfig.TTL,
			MaxEntries: stats.DefaultCacheConfig.MaxEntries,
		},
	}
}

func defaultUserName() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "me"
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. Unknown enum values are left alone
// and reported by Validate.
func (c *Config) Normalize() {
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	c.User.Email = strings.TrimSpace(c.User.Email)
	if c.User.Email == "" {
		c.User.Email = "me@localhost"
	}
	if strings.TrimSpace(c.User.Name) == "" {
		c.User.Name = defaultUserName()
	}

	c.Recurrence.MissingByDay = strings.ToLower(strings.TrimSpace(c.Recurrence.MissingByDay))
	if c.Recurrence.MissingByDay == "" {
		c.Recurrence.MissingByDay = "none"
	}
	c.Recurrence.PauseMatch = strings.ToLower(strings.TrimSpace(c.Recurrence.PauseMatch))
	if c.Recurrence.PauseMatch == "" {
		c.Recurrence.PauseMatch = "date"
	}

	if c.StatsCache.TTL <= 0 {
		c.StatsCache.TTL = stats.DefaultCacheConfig.TTL
	}
	if c.StatsCache.MaxEntries <= 0 {
		c.StatsCache.MaxEntries = stats.DefaultCacheConfig.MaxEntries
	}
}

// Validate reports values Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Engine(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Engine builds the recurrence engine described by the recurrence section.
func (c *Config) Engine() (recurrence.Engine, error) {
	policy, ok := recurrence.ParseByDayPolicy(c.Recurrence.MissingByDay)
	if !ok {
		return recurrence.Engine{}, fmt.Errorf("invalid recurrence.missing_byday %q (want none or every_day)", c.Recurrence.MissingByDay)
	}
	match, ok := recurrence.ParseMatchMode(c.Recurrence.PauseMatch)
	if !ok {
		return recurrence.Engine{}, fmt.Errorf("invalid recurrence.pause_match %q (want date or instant)", c.Recurrence.PauseMatch)
	}
	return recurrence.Engine{
		Expander: recurrence.Expander{MissingByDay: policy},
		Filter:   recurrence.Filter{Match: match},
	}, nil
}

// Cache returns the stats cache, or nil when caching is disabled.
func (c *Config) Cache() *stats.Cache {
	if !c.StatsCache.Enabled {
		return nil
	}
	return stats.NewCache(stats.CacheConfig{
		TTL:        c.StatsCache.TTL,
		MaxEntries: c.StatsCache.MaxEntries,
	})
}

// Logging returns the logger settings. Console output is enabled only when
// verbose is set, otherwise command output stays clean.
func (c *Config) Logging(verbose bool) logging.Config {
	level := c.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.Config{Level: level, Console: verbose, File: c.LogFile}
}

// DatabasePath returns Database, or the default location when empty.
func (c *Config) DatabasePath() (string, error) {
	if p := strings.TrimSpace(c.Database); p != "" {
		return expandHome(p)
	}
	return DefaultDatabasePath()
}

// DefaultDir returns ~/.tempo
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tempo"), nil
}

// DefaultPath returns ~/.tempo/config.yaml
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDatabasePath returns ~/.tempo/tempo.db
func DefaultDatabasePath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tempo.db"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there (0600)
//     and returned.
//   - Otherwise the YAML is read, normalized and validated.
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
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	// a file that omits stats_cache entirely keeps the cache on
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if _, ok := raw["stats_cache"]; !ok {
			cfg.StatsCache.Enabled = true
		}
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".tempo-config-*.tmp")
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
