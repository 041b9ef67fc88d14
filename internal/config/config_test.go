package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/tempo/internal/recurrence"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Local", cfg.Timezone)
	assert.True(t, cfg.StatsCache.Enabled)
	assert.Equal(t, "none", cfg.Recurrence.MissingByDay)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
timezone: UTC
user:
  email: ada@example.com
recurrence:
  missing_byday: Every_Day
stats_cache:
  ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", cfg.User.Email)
	assert.NotEmpty(t, cfg.User.Name)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "every_day", cfg.Recurrence.MissingByDay)
	assert.Equal(t, "date", cfg.Recurrence.PauseMatch)
	assert.Equal(t, 30*time.Second, cfg.StatsCache.TTL)
	assert.Equal(t, 256, cfg.StatsCache.MaxEntries)
	assert.False(t, cfg.StatsCache.Enabled)
	assert.Nil(t, cfg.Cache())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	engine, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, recurrence.ByDayEveryDay, engine.Expander.MissingByDay)
	assert.Equal(t, recurrence.MatchDate, engine.Filter.Match)
}

func TestLoadOmittedCacheSectionStaysEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.StatsCache.Enabled)
	assert.NotNil(t, cfg.Cache())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"timezone", "timezone: Mars/Olympus\n"},
		{"missing byday", "recurrence:\n  missing_byday: weekdays\n"},
		{"pause match", "recurrence:\n  pause_match: hourly\n"},
		{"yaml", "timezone: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestInstantMatchMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recurrence.PauseMatch = "instant"
	engine, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, recurrence.MatchInstant, engine.Filter.Match)
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	def, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "tempo.db", filepath.Base(def))

	cfg.Database = "/tmp/x.db"
	p, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", p)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg.Database = "~/data/t.db"
	p, err = cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "t.db"), p)
}

func TestLoggingConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = "/tmp/tempo.log"

	quiet := cfg.Logging(false)
	assert.Equal(t, "warn", quiet.Level)
	assert.False(t, quiet.Console)
	assert.Equal(t, "/tmp/tempo.log", quiet.File)

	loud := cfg.Logging(true)
	assert.Equal(t, "debug", loud.Level)
	assert.True(t, loud.Console)
}

func TestSaveRejectsEmptyInput(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
	_, err := Load("")
	assert.Error(t, err)
}
