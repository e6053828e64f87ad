// Package config loads, defaults, and validates the rotator configuration,
// and produces the retention policy consumed by the rotation engine.
package config

import (
	"fmt"
	"time"

	"github.com/raoulx24/backup-rotator/internal/retention"
)

type Config struct {
	// BackupsDir is the arrivals directory new backups are dropped into.
	BackupsDir string `yaml:"backupsDir"`
	// ArchivesDir is the root of the per-owner tier directories.
	ArchivesDir string `yaml:"archivesDir"`

	HourlyBackupHour int      `yaml:"hourlyBackupHour"` // 0-23
	WeeklyBackupDay  int      `yaml:"weeklyBackupDay"`  // 0-6, Monday-Sunday
	MaxWeeklyBackups int      `yaml:"maxWeeklyBackups"`
	BackupExtensions []string `yaml:"backupExtensions"`

	// Windows are duration strings, e.g. "24h".
	HourlyWindow string `yaml:"hourlyWindow"`
	DailyWindow  string `yaml:"dailyWindow"`

	Logging LoggingConfig `yaml:"logging"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "console"
}

type DaemonConfig struct {
	Schedule string      `yaml:"schedule"` // cron expression
	Watch    WatchConfig `yaml:"watch"`
}

type WatchConfig struct {
	Mode           string `yaml:"mode"`           // "auto", "poll", "fsnotify"
	PollInterval   string `yaml:"pollInterval"`   // e.g. "5s"
	DebounceWindow string `yaml:"debounceWindow"` // e.g. "500ms"
}

// Default returns the documented defaults, matching a setup where backups
// arrive hourly and one year of weeklies is retained.
func Default() *Config {
	return &Config{
		BackupsDir:       "/var/backups/arrivals",
		ArchivesDir:      "/var/backups/archives",
		HourlyBackupHour: 23,
		WeeklyBackupDay:  6,
		MaxWeeklyBackups: 52,
		BackupExtensions: []string{".tar.gz", ".tar.bz2", ".jar"},
		HourlyWindow:     "24h",
		DailyWindow:      "168h",
		Logging:          LoggingConfig{Level: "info", Format: "console"},
		Daemon: DaemonConfig{
			Schedule: "30 * * * *",
			Watch: WatchConfig{
				Mode:           "auto",
				PollInterval:   "5s",
				DebounceWindow: "500ms",
			},
		},
	}
}

// ConfigError reports an invalid or missing setting. It is fatal: the
// process aborts before any filesystem mutation.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

func (c *Config) Validate() error {
	if c.BackupsDir == "" {
		return &ConfigError{Key: "backupsDir", Reason: "must not be empty"}
	}
	if c.ArchivesDir == "" {
		return &ConfigError{Key: "archivesDir", Reason: "must not be empty"}
	}
	if c.HourlyBackupHour < 0 || c.HourlyBackupHour > 23 {
		return &ConfigError{Key: "hourlyBackupHour", Reason: fmt.Sprintf("must be 0-23, got %d", c.HourlyBackupHour)}
	}
	if c.WeeklyBackupDay < 0 || c.WeeklyBackupDay > 6 {
		return &ConfigError{Key: "weeklyBackupDay", Reason: fmt.Sprintf("must be 0-6, got %d", c.WeeklyBackupDay)}
	}
	if c.MaxWeeklyBackups < 0 {
		return &ConfigError{Key: "maxWeeklyBackups", Reason: fmt.Sprintf("must not be negative, got %d", c.MaxWeeklyBackups)}
	}
	if len(c.BackupExtensions) == 0 {
		return &ConfigError{Key: "backupExtensions", Reason: "at least one extension is required"}
	}
	for _, ext := range c.BackupExtensions {
		if ext == "" || ext[0] != '.' {
			return &ConfigError{Key: "backupExtensions", Reason: fmt.Sprintf("%q must start with a dot", ext)}
		}
	}
	if _, err := parseWindow("hourlyWindow", c.HourlyWindow); err != nil {
		return err
	}
	if _, err := parseWindow("dailyWindow", c.DailyWindow); err != nil {
		return err
	}
	for key, val := range map[string]string{
		"daemon.watch.pollInterval":   c.Daemon.Watch.PollInterval,
		"daemon.watch.debounceWindow": c.Daemon.Watch.DebounceWindow,
	} {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			return &ConfigError{Key: key, Reason: fmt.Sprintf("invalid duration %q", val)}
		}
	}
	return nil
}

// Policy builds the validated retention policy. Call Validate first.
func (c *Config) Policy() retention.Policy {
	hourly, _ := time.ParseDuration(c.HourlyWindow)
	daily, _ := time.ParseDuration(c.DailyWindow)
	return retention.Policy{
		HourlyWindow:     hourly,
		DailyWindow:      daily,
		MaxWeeklyBackups: c.MaxWeeklyBackups,
		BackupExtensions: append([]string(nil), c.BackupExtensions...),
		HourlyBackupHour: c.HourlyBackupHour,
		WeeklyBackupDay:  c.WeeklyBackupDay,
	}
}

func parseWindow(key, val string) (time.Duration, error) {
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: fmt.Sprintf("invalid duration %q", val)}
	}
	if d <= 0 {
		return 0, &ConfigError{Key: key, Reason: "must be positive"}
	}
	return d, nil
}

// PollDuration returns the parsed poll interval, defaulting to 5s.
func (w WatchConfig) PollDuration() time.Duration {
	if d, err := time.ParseDuration(w.PollInterval); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

// DebounceDuration returns the parsed debounce window, defaulting to 500ms.
func (w WatchConfig) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(w.DebounceWindow); err == nil && d > 0 {
		return d
	}
	return 500 * time.Millisecond
}
