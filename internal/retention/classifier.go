package retention

import (
	"sort"
	"time"

	"github.com/raoulx24/backup-rotator/internal/backup"
)

// Classifier applies the rotation rules of a Policy at one instant in time.
// It is pure: methods read entries and return decisions, nothing more.
type Classifier struct {
	policy Policy
	now    time.Time
}

func NewClassifier(policy Policy, now time.Time) Classifier {
	return Classifier{policy: policy, now: now}
}

// RotateArrival decides how one arrival is absorbed into the hourly tier.
// The entry is renamed to embed its mtime date and moved to hourly; when the
// stamped name already exists there, the arrival is a duplicate for that day
// and is deleted instead of overwriting the canonical file.
func (c Classifier) RotateArrival(e backup.Entry, hourly []backup.Entry) []Decision {
	stamped := e.Name
	if !backup.IsStamped(e.Name, e.Ext) {
		stamped = backup.StampedName(e.Name, e.Ext, e.MTime)
	}

	for _, h := range hourly {
		if h.Name == stamped {
			return []Decision{{
				Entry:  e,
				Op:     Delete,
				Reason: "duplicate for the day",
			}}
		}
	}

	var ds []Decision
	if stamped != e.Name {
		ds = append(ds, Decision{Entry: e, Op: Rename, NewName: stamped})
	}
	ds = append(ds, Decision{Entry: e, Op: MoveToTier, Target: backup.TierHourly})
	return ds
}

// RotateHourlies promotes, per calendar date, the one hourly entry whose hour
// is closest to the policy's hourly backup hour, and deletes the other
// entries of that date once they are older than the hourly window. The
// canonical entry is chosen over the whole date group, not just the entries
// already past the window, and a date that already has its daily backup gets
// no second one: group members crossing the window on different passes must
// all resolve to the same single promotion.
func (c Classifier) RotateHourlies(entries, dailies []backup.Entry) []Decision {
	promoted := map[string]bool{}
	for _, d := range dailies {
		promoted[d.Date()] = true
	}

	byDate := map[string][]backup.Entry{}
	for _, e := range entries {
		byDate[e.Date()] = append(byDate[e.Date()], e)
	}

	var ds []Decision
	for _, date := range sortedKeys(byDate) {
		group := byDate[date]

		var chosenPath string
		if !promoted[date] {
			chosenPath = pickBest(group, func(a, b backup.Entry) bool {
				da := hourDistance(a.MTime.Hour(), c.policy.HourlyBackupHour)
				db := hourDistance(b.MTime.Hour(), c.policy.HourlyBackupHour)
				if da != db {
					return da < db
				}
				return olderFirst(a, b)
			}).Path
		}

		for _, e := range group {
			if e.Age(c.now) < c.policy.HourlyWindow {
				continue
			}
			if e.Path == chosenPath {
				ds = append(ds, Decision{Entry: e, Op: MoveToTier, Target: backup.TierDaily})
			} else {
				ds = append(ds, Decision{Entry: e, Op: Delete, Reason: "superseded by daily backup for " + date})
			}
		}
	}
	return ds
}

// RotateDailies promotes, per ISO week, the daily entry falling on the weekly
// backup day (or the earliest of the week when none does) and deletes the
// rest once they are older than the daily window. As with RotateHourlies, the
// choice spans the whole week group and a week already represented in the
// weekly tier never receives a second promotion.
func (c Classifier) RotateDailies(entries, weeklies []backup.Entry) []Decision {
	promoted := map[string]bool{}
	for _, w := range weeklies {
		promoted[w.ISOWeek()] = true
	}

	byWeek := map[string][]backup.Entry{}
	for _, e := range entries {
		byWeek[e.ISOWeek()] = append(byWeek[e.ISOWeek()], e)
	}

	var ds []Decision
	for _, week := range sortedKeys(byWeek) {
		group := byWeek[week]
		preferred := c.policy.Weekday()

		var chosenPath string
		if !promoted[week] {
			chosenPath = pickBest(group, func(a, b backup.Entry) bool {
				am := a.MTime.Weekday() == preferred
				bm := b.MTime.Weekday() == preferred
				if am != bm {
					return am
				}
				return olderFirst(a, b)
			}).Path
		}

		for _, e := range group {
			if e.Age(c.now) < c.policy.DailyWindow {
				continue
			}
			if e.Path == chosenPath {
				ds = append(ds, Decision{Entry: e, Op: MoveToTier, Target: backup.TierWeekly})
			} else {
				ds = append(ds, Decision{Entry: e, Op: Delete, Reason: "superseded by weekly backup for " + week})
			}
		}
	}
	return ds
}

// CapWeeklies deletes the oldest weekly entries until at most
// MaxWeeklyBackups remain. A cap of zero empties the weekly tier.
func (c Classifier) CapWeeklies(entries []backup.Entry) []Decision {
	if len(entries) <= c.policy.MaxWeeklyBackups {
		return nil
	}

	sorted := append([]backup.Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return olderFirst(sorted[i], sorted[j]) })

	excess := sorted[:len(sorted)-c.policy.MaxWeeklyBackups]
	ds := make([]Decision, 0, len(excess))
	for _, e := range excess {
		ds = append(ds, Decision{Entry: e, Op: Delete, Reason: "weekly cap exceeded"})
	}
	return ds
}

// olderFirst is the deterministic tie-break: earliest mtime wins, then name.
func olderFirst(a, b backup.Entry) bool {
	if !a.MTime.Equal(b.MTime) {
		return a.MTime.Before(b.MTime)
	}
	return a.Name < b.Name
}

func pickBest(group []backup.Entry, less func(a, b backup.Entry) bool) backup.Entry {
	best := group[0]
	for _, e := range group[1:] {
		if less(e, best) {
			best = e
		}
	}
	return best
}

func hourDistance(h, target int) int {
	d := h - target
	if d < 0 {
		d = -d
	}
	// hours wrap around midnight
	if 24-d < d {
		d = 24 - d
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
