package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPrefix namespaces the per-run override variables. Environment values
// take precedence over anything read from a config file.
const envPrefix = "BACKUP_ROTATOR_"

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// searchPaths are tried in order when no --config flag is given. A missing
// file is not an error: defaults apply.
func searchPaths() []string {
	paths := []string{"/etc/backup-rotator/config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".backup-rotator.yaml"))
	}
	return paths
}

// Load builds the effective configuration: defaults, then the config file
// (explicit path or the first one found on the search path), then
// BACKUP_ROTATOR_* environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("unmarshalling yaml: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return data, nil
	}

	for _, candidate := range searchPaths() {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", candidate, err)
		}
	}
	return nil, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v, ok := lookup("BACKUPS_DIR"); ok {
		cfg.BackupsDir = v
	}
	if v, ok := lookup("ARCHIVES_DIR"); ok {
		cfg.ArchivesDir = v
	}
	if v, ok := lookup("HOURLY_BACKUP_HOUR"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Key: "hourlyBackupHour", Reason: fmt.Sprintf("invalid override %q", v)}
		}
		cfg.HourlyBackupHour = n
	}
	if v, ok := lookup("WEEKLY_BACKUP_DAY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Key: "weeklyBackupDay", Reason: fmt.Sprintf("invalid override %q", v)}
		}
		cfg.WeeklyBackupDay = n
	}
	if v, ok := lookup("MAX_WEEKLY_BACKUPS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Key: "maxWeeklyBackups", Reason: fmt.Sprintf("invalid override %q", v)}
		}
		cfg.MaxWeeklyBackups = n
	}
	if v, ok := lookup("BACKUP_EXTENSIONS"); ok {
		var exts []string
		for _, ext := range strings.Split(v, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				exts = append(exts, ext)
			}
		}
		cfg.BackupExtensions = exts
	}
	if v, ok := lookup("HOURLY_WINDOW"); ok {
		cfg.HourlyWindow = v
	}
	if v, ok := lookup("DAILY_WINDOW"); ok {
		cfg.DailyWindow = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	return os.LookupEnv(envPrefix + key)
}
