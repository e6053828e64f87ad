// Package rotation orchestrates one full rotation pass: absorb arrivals into
// the hourly tier, promote hourlies to daily and dailies to weekly, then
// enforce the weekly cap. Stages run in that order because each later tier
// reads the promotions the earlier one produced.
package rotation

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/raoulx24/backup-rotator/internal/backup"
	"github.com/raoulx24/backup-rotator/internal/catalog"
	"github.com/raoulx24/backup-rotator/internal/fs"
	"github.com/raoulx24/backup-rotator/internal/logging"
	"github.com/raoulx24/backup-rotator/internal/retention"
)

// Config collects the engine's collaborators and settings.
type Config struct {
	FS          fs.FS // nil = OS filesystem
	Policy      retention.Policy
	ArrivalsDir string
	ArchiveRoot string
	DryRun      bool
	Logger      logging.Logger
	Now         func() time.Time // nil = time.Now
}

// Engine runs rotation passes. Each applied decision hits the filesystem
// immediately, so a pass killed midway leaves earlier tiers finalized and
// later tiers untouched; the next pass reconciles from a fresh scan.
type Engine struct {
	mu          sync.RWMutex
	fsys        fs.FS
	policy      retention.Policy
	arrivalsDir string
	archiveRoot string
	dryRun      bool
	log         logging.Logger
	now         func() time.Time
}

func New(cfg Config) *Engine {
	if cfg.FS == nil {
		cfg.FS = fs.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		fsys:        cfg.FS,
		policy:      cfg.Policy,
		arrivalsDir: cfg.ArrivalsDir,
		archiveRoot: cfg.ArchiveRoot,
		dryRun:      cfg.DryRun,
		log:         cfg.Logger,
		now:         cfg.Now,
	}
}

// UpdateConfig hot-reloads policy and directories between passes.
func (e *Engine) UpdateConfig(policy retention.Policy, arrivalsDir, archiveRoot string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy = policy
	e.arrivalsDir = arrivalsDir
	e.archiveRoot = archiveRoot
}

// RunOnce executes one full rotation pass. Per-owner and per-file failures
// are collected in the report and do not abort the remaining owners; only an
// invalid policy or a failed lock aborts before any mutation.
func (e *Engine) RunOnce(ctx context.Context) (*Report, error) {
	e.mu.RLock()
	policy := e.policy
	arrivalsDir := e.arrivalsDir
	archiveRoot := e.archiveRoot
	e.mu.RUnlock()

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retention policy: %w", err)
	}

	if !e.dryRun {
		if err := e.fsys.MkdirAll(archiveRoot); err != nil {
			return nil, fmt.Errorf("preparing archive root: %w", err)
		}
		unlock, err := acquireLock(filepath.Join(archiveRoot, lockFileName))
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	report := &Report{Started: e.now()}
	cls := retention.NewClassifier(policy, e.now())

	cat := catalog.Scan(e.fsys, arrivalsDir, archiveRoot, policy, e.log)
	report.Errors = append(report.Errors, cat.Errors...)

	owners := e.rotateArrivals(ctx, cls, cat, archiveRoot, report)

	for _, owner := range owners {
		e.rotateTier(ctx, cls, archiveRoot, owner, backup.TierHourly, policy, report)
	}
	for _, owner := range owners {
		e.rotateTier(ctx, cls, archiveRoot, owner, backup.TierDaily, policy, report)
	}
	for _, owner := range owners {
		e.capWeeklies(ctx, cls, archiveRoot, owner, policy, report)
	}

	report.Finished = e.now()
	e.log.Info("rotation pass complete",
		"renamed", report.Renamed,
		"promoted", report.Promoted,
		"deleted", report.Deleted,
		"errors", len(report.Errors),
		"dry_run", e.dryRun)
	return report, nil
}

// rotateArrivals absorbs every catalogued arrival into its owner's hourly
// tier and returns the sorted set of owners the later stages must visit.
func (e *Engine) rotateArrivals(ctx context.Context, cls retention.Classifier, cat *catalog.Catalog, archiveRoot string, report *Report) []string {
	ownerSet := map[string]bool{}
	for owner := range cat.Owners {
		ownerSet[owner] = true
	}

	// scan-time hourly names per owner, extended as arrivals land
	hourlyNames := map[string]map[string]bool{}
	hourlyFor := func(owner string) map[string]bool {
		names, ok := hourlyNames[owner]
		if !ok {
			names = map[string]bool{}
			if arch := cat.Owners[owner]; arch != nil {
				for _, h := range arch.Tiers[backup.TierHourly] {
					names[h.Name] = true
				}
			}
			hourlyNames[owner] = names
		}
		return names
	}

	for _, arrival := range cat.Arrivals {
		if cat.Failed[arrival.Owner] {
			e.log.Warn("arrival held back, owner archive unreadable",
				"owner", arrival.Owner, "file", arrival.Name)
			continue
		}

		names := hourlyFor(arrival.Owner)
		var existing []backup.Entry
		for name := range names {
			existing = append(existing, backup.Entry{Name: name})
		}

		moved := e.applyArrival(ctx, cls.RotateArrival(arrival, existing), archiveRoot, report)
		if moved != "" {
			names[moved] = true
			ownerSet[arrival.Owner] = true
		}
	}

	owners := make([]string, 0, len(ownerSet))
	for owner := range ownerSet {
		if !cat.Failed[owner] {
			owners = append(owners, owner)
		}
	}
	sort.Strings(owners)
	return owners
}

// applyArrival executes an arrival's decision sequence, threading the renamed
// path into the following move. It returns the name that landed in hourly,
// or "" when the arrival was deleted or an operation failed.
func (e *Engine) applyArrival(ctx context.Context, ds []retention.Decision, archiveRoot string, report *Report) string {
	var cur backup.Entry
	for i, d := range ds {
		if i > 0 {
			d.Entry = cur
		}
		if err := e.apply(ctx, d, archiveRoot, report); err != nil {
			report.Errors = append(report.Errors, err)
			e.log.Error("arrival rotation failed", "owner", d.Entry.Owner, "file", d.Entry.Name, "error", err)
			return ""
		}

		cur = d.Entry
		switch d.Op {
		case retention.Rename:
			cur.Name = d.NewName
			cur.Path = filepath.Join(filepath.Dir(d.Entry.Path), d.NewName)
		case retention.Delete:
			return ""
		}
	}
	return cur.Name
}

// rotateTier re-derives one owner's tier membership from disk and applies
// the classifier's promote/delete decisions for it. The next tier up is
// scanned too: a bucket already represented there must not produce a second
// promotion, so an unreadable destination aborts this owner's stage.
func (e *Engine) rotateTier(ctx context.Context, cls retention.Classifier, archiveRoot, owner string, tier backup.Tier, policy retention.Policy, report *Report) {
	entries, fileErrs, err := catalog.ScanTier(e.fsys, archiveRoot, owner, tier, policy)
	report.Errors = append(report.Errors, fileErrs...)
	if err != nil {
		report.Errors = append(report.Errors, err)
		e.log.Error("tier scan failed", "owner", owner, "tier", tier, "error", err)
		return
	}

	next := backup.TierDaily
	if tier == backup.TierDaily {
		next = backup.TierWeekly
	}
	promoted, nextFileErrs, err := catalog.ScanTier(e.fsys, archiveRoot, owner, next, policy)
	report.Errors = append(report.Errors, nextFileErrs...)
	if err != nil {
		report.Errors = append(report.Errors, err)
		e.log.Error("tier scan failed", "owner", owner, "tier", next, "error", err)
		return
	}

	var ds []retention.Decision
	switch tier {
	case backup.TierHourly:
		ds = cls.RotateHourlies(entries, promoted)
	case backup.TierDaily:
		ds = cls.RotateDailies(entries, promoted)
	}

	for _, d := range ds {
		if err := e.apply(ctx, d, archiveRoot, report); err != nil {
			report.Errors = append(report.Errors, err)
			e.log.Error("rotation step failed", "owner", owner, "tier", tier, "error", err)
		}
	}
}

// capWeeklies trims the weekly tier down to the configured cap.
func (e *Engine) capWeeklies(ctx context.Context, cls retention.Classifier, archiveRoot, owner string, policy retention.Policy, report *Report) {
	entries, fileErrs, err := catalog.ScanTier(e.fsys, archiveRoot, owner, backup.TierWeekly, policy)
	report.Errors = append(report.Errors, fileErrs...)
	if err != nil {
		report.Errors = append(report.Errors, err)
		e.log.Error("weekly scan failed", "owner", owner, "error", err)
		return
	}

	for _, d := range cls.CapWeeklies(entries) {
		if err := e.apply(ctx, d, archiveRoot, report); err != nil {
			report.Errors = append(report.Errors, err)
			e.log.Error("weekly cap failed", "owner", owner, "error", err)
		}
	}
}

// apply executes a single decision against the filesystem port. In dry-run
// mode it only logs and counts. archiveRoot is the root the pass was scanned
// with; a config reload mid-pass must not redirect moves into a new root.
func (e *Engine) apply(ctx context.Context, d retention.Decision, archiveRoot string, report *Report) error {
	e.log.Debug("applying decision", "decision", d.String())

	switch d.Op {
	case retention.Keep:
		report.Kept++
		return nil

	case retention.Rename:
		report.Renamed++
		if e.dryRun {
			return nil
		}
		newPath := filepath.Join(filepath.Dir(d.Entry.Path), d.NewName)
		return e.fsys.Rename(ctx, d.Entry.Path, newPath)

	case retention.MoveToTier:
		report.Promoted++
		if e.dryRun {
			return nil
		}
		destDir := filepath.Join(archiveRoot, d.Entry.Owner, d.Target.Subdir())
		if err := e.fsys.MkdirAll(destDir); err != nil {
			return err
		}
		return e.fsys.Move(ctx, d.Entry.Path, destDir)

	case retention.Delete:
		report.Deleted++
		if e.dryRun {
			return nil
		}
		return e.fsys.Remove(d.Entry.Path)

	default:
		return fmt.Errorf("unknown decision op %d", d.Op)
	}
}
