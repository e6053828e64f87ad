// Package retention holds the rotation policy and the pure classifier that
// maps backup entries to transition decisions.
package retention

import (
	"fmt"
	"time"
)

// Policy is the validated retention configuration consumed by the classifier.
// WeeklyBackupDay counts Monday=0 through Sunday=6.
type Policy struct {
	HourlyWindow     time.Duration
	DailyWindow      time.Duration
	MaxWeeklyBackups int
	BackupExtensions []string
	HourlyBackupHour int
	WeeklyBackupDay  int
}

// Default returns the policy documented defaults: 24h hourly window, 7d daily
// window, 52 retained weeklies.
func Default() Policy {
	return Policy{
		HourlyWindow:     24 * time.Hour,
		DailyWindow:      7 * 24 * time.Hour,
		MaxWeeklyBackups: 52,
		BackupExtensions: []string{".tar.gz", ".tar.bz2", ".jar"},
		HourlyBackupHour: 23,
		WeeklyBackupDay:  6,
	}
}

func (p Policy) Validate() error {
	if p.HourlyWindow <= 0 {
		return fmt.Errorf("hourly window must be positive, got %s", p.HourlyWindow)
	}
	if p.DailyWindow <= 0 {
		return fmt.Errorf("daily window must be positive, got %s", p.DailyWindow)
	}
	if p.MaxWeeklyBackups < 0 {
		return fmt.Errorf("max weekly backups must not be negative, got %d", p.MaxWeeklyBackups)
	}
	if p.HourlyBackupHour < 0 || p.HourlyBackupHour > 23 {
		return fmt.Errorf("hourly backup hour must be 0-23, got %d", p.HourlyBackupHour)
	}
	if p.WeeklyBackupDay < 0 || p.WeeklyBackupDay > 6 {
		return fmt.Errorf("weekly backup day must be 0-6, got %d", p.WeeklyBackupDay)
	}
	if len(p.BackupExtensions) == 0 {
		return fmt.Errorf("at least one backup extension is required")
	}
	for _, ext := range p.BackupExtensions {
		if ext == "" || ext[0] != '.' {
			return fmt.Errorf("backup extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Weekday converts the Monday-based WeeklyBackupDay to Go's Sunday-based
// time.Weekday.
func (p Policy) Weekday() time.Weekday {
	return time.Weekday((p.WeeklyBackupDay + 1) % 7)
}
