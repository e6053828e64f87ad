// Package backup defines the backup entry model shared across the system:
// tiers, owner derivation from filenames, and the date-stamped naming scheme
// used once an arrival is absorbed into the archive.
package backup

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Tier identifies the retention bucket an entry currently lives in.
type Tier int

const (
	TierArrival Tier = iota
	TierHourly
	TierDaily
	TierWeekly
)

// ArchiveTiers lists the on-disk tiers in promotion order.
var ArchiveTiers = []Tier{TierHourly, TierDaily, TierWeekly}

func (t Tier) String() string {
	switch t {
	case TierArrival:
		return "arrival"
	case TierHourly:
		return "hourly"
	case TierDaily:
		return "daily"
	case TierWeekly:
		return "weekly"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Subdir is the per-owner archive subdirectory name for the tier.
// Arrival entries have no subdirectory.
func (t Tier) Subdir() string {
	if t == TierArrival {
		return ""
	}
	return t.String()
}

// Entry is an immutable snapshot of one backup file taken at scan time.
type Entry struct {
	Owner string
	Path  string
	Name  string
	Ext   string // dotted extension suffix, e.g. ".tar.bz2"
	MTime time.Time
	Tier  Tier
}

// ErrUnrecognizedOwner is returned when no owner can be derived from an
// arrival filename.
var ErrUnrecognizedOwner = errors.New("no owner recognizable in filename")

// dateStamp matches the "-YYYY-MM-DD" suffix appended to archived stems.
var dateStamp = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}$`)

const stampLayout = "2006-01-02"

// MatchExtension returns the longest extension from exts that name carries.
// Longest-first matching makes ".tar.bz2" win over ".bz2".
func MatchExtension(name string, exts []string) (string, bool) {
	sorted := append([]string(nil), exts...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, ext := range sorted {
		if ext != "" && strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return ext, true
		}
	}
	return "", false
}

// ParseOwner derives the owner from a filename: the stem before the first
// matching extension suffix, with any date stamp stripped.
func ParseOwner(name string, exts []string) (string, error) {
	ext, ok := MatchExtension(name, exts)
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnrecognizedOwner)
	}
	owner := dateStamp.ReplaceAllString(strings.TrimSuffix(name, ext), "")
	if owner == "" {
		return "", fmt.Errorf("%q: %w", name, ErrUnrecognizedOwner)
	}
	return owner, nil
}

// IsStamped reports whether the stem already carries a date stamp, so an
// arrival interrupted mid-rotation is not stamped twice.
func IsStamped(name, ext string) bool {
	return dateStamp.MatchString(strings.TrimSuffix(name, ext))
}

// StampedName embeds the file's mtime date into its name:
// "world.tar.bz2" with 2024-01-01 becomes "world-2024-01-01.tar.bz2".
func StampedName(name, ext string, mtime time.Time) string {
	stem := strings.TrimSuffix(name, ext)
	return stem + "-" + mtime.Format(stampLayout) + ext
}

// Date is the calendar date of the entry's mtime, used for hourly bucketing.
func (e Entry) Date() string {
	return e.MTime.Format(stampLayout)
}

// ISOWeek is the entry's ISO week bucket key, used for daily bucketing.
func (e Entry) ISOWeek() string {
	year, week := e.MTime.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Age is how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.MTime)
}
