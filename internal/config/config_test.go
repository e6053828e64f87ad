package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "backupsDir: /srv/backups\narchivesDir: /srv/archives\n"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/backups", cfg.BackupsDir)
	assert.Equal(t, "/srv/archives", cfg.ArchivesDir)
	assert.Equal(t, 23, cfg.HourlyBackupHour)
	assert.Equal(t, 52, cfg.MaxWeeklyBackups)
	assert.Equal(t, "24h", cfg.HourlyWindow)
	assert.Equal(t, "30 * * * *", cfg.Daemon.Schedule)
}

func TestLoadExplicitZeroCapSticks(t *testing.T) {
	cfg, err := Load(writeConfig(t, "maxWeeklyBackups: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxWeeklyBackups, "explicit zero must not be replaced by the default")
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("ROTATOR_TEST_DIR", "/mnt/backups")
	cfg, err := Load(writeConfig(t, "backupsDir: $(ROTATOR_TEST_DIR)\n"))
	require.NoError(t, err)
	assert.Equal(t, "/mnt/backups", cfg.BackupsDir)
}

func TestEnvOverridesBeatFileValues(t *testing.T) {
	t.Setenv("BACKUP_ROTATOR_MAX_WEEKLY_BACKUPS", "3")
	t.Setenv("BACKUP_ROTATOR_BACKUP_EXTENSIONS", ".tar.zst, .sql.gz")
	t.Setenv("BACKUP_ROTATOR_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "maxWeeklyBackups: 10\nbackupExtensions: ['.jar']\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxWeeklyBackups)
	assert.Equal(t, []string{".tar.zst", ".sql.gz"}, cfg.BackupExtensions)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"empty backups dir", func(c *Config) { c.BackupsDir = "" }, "backupsDir"},
		{"empty archives dir", func(c *Config) { c.ArchivesDir = "" }, "archivesDir"},
		{"hour too large", func(c *Config) { c.HourlyBackupHour = 24 }, "hourlyBackupHour"},
		{"negative day", func(c *Config) { c.WeeklyBackupDay = -1 }, "weeklyBackupDay"},
		{"negative cap", func(c *Config) { c.MaxWeeklyBackups = -1 }, "maxWeeklyBackups"},
		{"no extensions", func(c *Config) { c.BackupExtensions = nil }, "backupExtensions"},
		{"undotted extension", func(c *Config) { c.BackupExtensions = []string{"jar"} }, "backupExtensions"},
		{"bad hourly window", func(c *Config) { c.HourlyWindow = "yesterday" }, "hourlyWindow"},
		{"negative daily window", func(c *Config) { c.DailyWindow = "-1h" }, "dailyWindow"},
		{"bad poll interval", func(c *Config) { c.Daemon.Watch.PollInterval = "often" }, "daemon.watch.pollInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}

func TestPolicyMapping(t *testing.T) {
	cfg := Default()
	cfg.HourlyWindow = "12h"
	cfg.DailyWindow = "96h"
	cfg.MaxWeeklyBackups = 4
	require.NoError(t, cfg.Validate())

	p := cfg.Policy()
	assert.Equal(t, 12*time.Hour, p.HourlyWindow)
	assert.Equal(t, 96*time.Hour, p.DailyWindow)
	assert.Equal(t, 4, p.MaxWeeklyBackups)
	assert.Equal(t, cfg.BackupExtensions, p.BackupExtensions)
	require.NoError(t, p.Validate())
}

func TestWatchDurations(t *testing.T) {
	w := WatchConfig{}
	assert.Equal(t, 5*time.Second, w.PollDuration())
	assert.Equal(t, 500*time.Millisecond, w.DebounceDuration())

	w = WatchConfig{PollInterval: "1s", DebounceWindow: "250ms"}
	assert.Equal(t, time.Second, w.PollDuration())
	assert.Equal(t, 250*time.Millisecond, w.DebounceDuration())
}
