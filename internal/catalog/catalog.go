// Package catalog builds the in-memory inventory of backup files: arrivals
// plus the per-owner hourly/daily/weekly archive directories.
package catalog

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"

	"github.com/raoulx24/backup-rotator/internal/backup"
	"github.com/raoulx24/backup-rotator/internal/fs"
	"github.com/raoulx24/backup-rotator/internal/logging"
	"github.com/raoulx24/backup-rotator/internal/retention"
)

// ScanError reports that one owner's directory could not be read. It is
// non-fatal: the owner is skipped and the scan continues.
type ScanError struct {
	Owner string
	Dir   string
	Err   error
}

func (e *ScanError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("scanning %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("scanning owner %s (%s): %v", e.Owner, e.Dir, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// AmbiguousMtimeError reports a file whose timestamp could not be determined.
// Such files are never classified and never deleted.
type AmbiguousMtimeError struct {
	Path string
}

func (e *AmbiguousMtimeError) Error() string {
	return fmt.Sprintf("cannot determine mtime of %s", e.Path)
}

// OwnerArchive groups one owner's catalogued entries by tier. It is the unit
// of isolation: decisions for one owner never touch another owner's files.
type OwnerArchive struct {
	Owner string
	Tiers map[backup.Tier][]backup.Entry
}

// Catalog is the result of one scan pass.
type Catalog struct {
	Arrivals []backup.Entry
	Owners   map[string]*OwnerArchive

	// Failed marks owners whose archive could not be scanned. Their arrivals
	// are held back too, since duplicate detection needs the hourly listing.
	Failed map[string]bool

	// Errors collects the non-fatal failures hit during the scan: unreadable
	// owner directories and files with unreadable timestamps.
	Errors []error
}

// Scan inventories the arrivals directory and every owner archive under
// archiveRoot. Failures scanning one owner never abort the others; they are
// recorded in Catalog.Errors and the owner is left out entirely, so no
// partial view of an archive can justify a deletion.
func Scan(fsys fs.FS, arrivalsDir, archiveRoot string, policy retention.Policy, log logging.Logger) *Catalog {
	cat := &Catalog{Owners: map[string]*OwnerArchive{}, Failed: map[string]bool{}}

	cat.scanArrivals(fsys, arrivalsDir, policy, log)

	owners, err := fsys.ListDirs(archiveRoot)
	if err != nil {
		if !errors.Is(err, iofs.ErrNotExist) {
			cat.Errors = append(cat.Errors, &ScanError{Dir: archiveRoot, Err: err})
			log.Error("archive root unreadable", "dir", archiveRoot, "error", err)
		}
		return cat
	}

	for _, owner := range owners {
		arch, errs := scanOwner(fsys, archiveRoot, owner, policy)
		cat.Errors = append(cat.Errors, errs...)
		if arch == nil {
			cat.Failed[owner] = true
			for _, e := range errs {
				log.Error("owner skipped", "owner", owner, "error", e)
			}
			continue
		}
		for _, e := range errs {
			log.Error("file skipped", "owner", owner, "error", e)
		}
		cat.Owners[owner] = arch
	}

	return cat
}

func (c *Catalog) scanArrivals(fsys fs.FS, arrivalsDir string, policy retention.Policy, log logging.Logger) {
	files, err := fsys.List(arrivalsDir)
	if err != nil {
		c.Errors = append(c.Errors, &ScanError{Dir: arrivalsDir, Err: err})
		log.Error("arrivals directory unreadable", "dir", arrivalsDir, "error", err)
		return
	}

	for _, f := range files {
		ext, ok := backup.MatchExtension(f.Name, policy.BackupExtensions)
		if !ok {
			// not a backup, leave it alone
			log.Debug("ignoring non-backup file", "file", f.Name)
			continue
		}

		owner, err := backup.ParseOwner(f.Name, policy.BackupExtensions)
		if err != nil {
			c.Errors = append(c.Errors, err)
			log.Error("arrival skipped", "file", f.Name, "error", err)
			continue
		}

		if f.MTime.IsZero() {
			c.Errors = append(c.Errors, &AmbiguousMtimeError{Path: f.Path})
			log.Error("arrival skipped", "file", f.Name, "error", "mtime unreadable")
			continue
		}

		c.Arrivals = append(c.Arrivals, backup.Entry{
			Owner: owner,
			Path:  f.Path,
			Name:  f.Name,
			Ext:   ext,
			MTime: f.MTime,
			Tier:  backup.TierArrival,
		})
	}
}

func scanOwner(fsys fs.FS, archiveRoot, owner string, policy retention.Policy) (*OwnerArchive, []error) {
	arch := &OwnerArchive{Owner: owner, Tiers: map[backup.Tier][]backup.Entry{}}

	var errs []error
	for _, tier := range backup.ArchiveTiers {
		entries, fileErrs, err := ScanTier(fsys, archiveRoot, owner, tier, policy)
		if err != nil {
			// an unreadable tier directory disqualifies the whole owner:
			// rotating on a partial view could delete files it should not
			return nil, []error{err}
		}
		errs = append(errs, fileErrs...)
		arch.Tiers[tier] = entries
	}
	return arch, errs
}

// ScanTier lists one owner's tier directory fresh. The rotation engine uses
// it to re-derive tier membership between stages of a pass. A missing tier
// directory yields no entries. Files with unmatched extensions are omitted
// silently; files with unreadable timestamps are omitted and reported as
// per-file errors, so they are never classified and never deleted.
func ScanTier(fsys fs.FS, archiveRoot, owner string, tier backup.Tier, policy retention.Policy) ([]backup.Entry, []error, error) {
	dir := filepath.Join(archiveRoot, owner, tier.Subdir())

	files, err := fsys.List(dir)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, &ScanError{Owner: owner, Dir: dir, Err: err}
	}

	var entries []backup.Entry
	var fileErrs []error
	for _, f := range files {
		ext, ok := backup.MatchExtension(f.Name, policy.BackupExtensions)
		if !ok {
			continue
		}
		if f.MTime.IsZero() {
			fileErrs = append(fileErrs, &AmbiguousMtimeError{Path: f.Path})
			continue
		}
		entries = append(entries, backup.Entry{
			Owner: owner,
			Path:  f.Path,
			Name:  f.Name,
			Ext:   ext,
			MTime: f.MTime,
			Tier:  tier,
		})
	}
	return entries, fileErrs, nil
}
