package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/backup-rotator/internal/backup"
	"github.com/raoulx24/backup-rotator/internal/fs"
	"github.com/raoulx24/backup-rotator/internal/logging"
	"github.com/raoulx24/backup-rotator/internal/retention"
)

func testPolicy() retention.Policy {
	p := retention.Default()
	p.BackupExtensions = []string{".tar.bz2", ".jar"}
	return p
}

func writeFile(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("backup data"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestScanInventoriesArrivalsAndOwners(t *testing.T) {
	arrivals := t.TempDir()
	archive := t.TempDir()
	mtime := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

	writeFile(t, filepath.Join(arrivals, "world.tar.bz2"), mtime)
	writeFile(t, filepath.Join(arrivals, "notes.txt"), mtime)
	writeFile(t, filepath.Join(archive, "world", "hourly", "world-2024-01-01.tar.bz2"), mtime)
	writeFile(t, filepath.Join(archive, "world", "daily", "world-2023-12-25.tar.bz2"), mtime.AddDate(0, 0, -7))
	writeFile(t, filepath.Join(archive, "other", "weekly", "other-2023-12-01.jar"), mtime.AddDate(0, 0, -31))

	cat := Scan(fs.New(), arrivals, archive, testPolicy(), logging.Nop())

	require.Empty(t, cat.Errors)

	// notes.txt is ignored, not catalogued and not reported
	require.Len(t, cat.Arrivals, 1)
	assert.Equal(t, "world", cat.Arrivals[0].Owner)
	assert.Equal(t, ".tar.bz2", cat.Arrivals[0].Ext)
	assert.Equal(t, backup.TierArrival, cat.Arrivals[0].Tier)

	require.Contains(t, cat.Owners, "world")
	world := cat.Owners["world"]
	assert.Len(t, world.Tiers[backup.TierHourly], 1)
	assert.Len(t, world.Tiers[backup.TierDaily], 1)
	assert.Empty(t, world.Tiers[backup.TierWeekly])

	require.Contains(t, cat.Owners, "other")
	assert.Len(t, cat.Owners["other"].Tiers[backup.TierWeekly], 1)
}

func TestScanMissingArchiveRoot(t *testing.T) {
	arrivals := t.TempDir()
	cat := Scan(fs.New(), arrivals, filepath.Join(t.TempDir(), "nonexistent"), testPolicy(), logging.Nop())

	assert.Empty(t, cat.Errors)
	assert.Empty(t, cat.Owners)
}

func TestScanUnreadableArrivalsRecorded(t *testing.T) {
	cat := Scan(fs.New(), filepath.Join(t.TempDir(), "missing"), t.TempDir(), testPolicy(), logging.Nop())

	require.Len(t, cat.Errors, 1)
	var scanErr *ScanError
	assert.ErrorAs(t, cat.Errors[0], &scanErr)
}

func TestScanBrokenOwnerSkippedOthersSurvive(t *testing.T) {
	arrivals := t.TempDir()
	archive := t.TempDir()
	mtime := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

	// "bad" has a regular file where its hourly directory should be
	require.NoError(t, os.MkdirAll(filepath.Join(archive, "bad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(archive, "bad", "hourly"), []byte("x"), 0o644))
	writeFile(t, filepath.Join(archive, "good", "hourly", "good-2024-01-01.jar"), mtime)

	cat := Scan(fs.New(), arrivals, archive, testPolicy(), logging.Nop())

	assert.True(t, cat.Failed["bad"])
	assert.NotContains(t, cat.Owners, "bad")
	assert.NotEmpty(t, cat.Errors)

	require.Contains(t, cat.Owners, "good")
	assert.Len(t, cat.Owners["good"].Tiers[backup.TierHourly], 1)
}

// fakeFS serves a canned directory tree; used to model stat failures the
// real filesystem cannot produce deterministically.
type fakeFS struct {
	files map[string][]fs.FileInfo
	dirs  map[string][]string
}

func (f *fakeFS) List(dir string) ([]fs.FileInfo, error)                    { return f.files[dir], nil }
func (f *fakeFS) ListDirs(dir string) ([]string, error)                     { return f.dirs[dir], nil }
func (f *fakeFS) Rename(ctx context.Context, oldPath, newPath string) error { return nil }
func (f *fakeFS) Move(ctx context.Context, path, destDir string) error      { return nil }
func (f *fakeFS) Remove(path string) error                                  { return nil }
func (f *fakeFS) MkdirAll(path string) error                                { return nil }

func TestScanSkipsFileWithUnreadableMtime(t *testing.T) {
	// a zero MTime from the filesystem port marks a failed stat: that file
	// is left out and reported, the rest of the owner survives
	mtime := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	hourly := filepath.Join("/archive", "world", "hourly")
	fsys := &fakeFS{
		dirs: map[string][]string{"/archive": {"world"}},
		files: map[string][]fs.FileInfo{
			hourly: {
				{Name: "world-2024-01-01.tar.bz2", Path: filepath.Join(hourly, "world-2024-01-01.tar.bz2"), MTime: mtime},
				{Name: "world-2024-01-02.tar.bz2", Path: filepath.Join(hourly, "world-2024-01-02.tar.bz2")},
			},
		},
	}

	cat := Scan(fsys, "/arrivals", "/archive", testPolicy(), logging.Nop())

	assert.False(t, cat.Failed["world"])
	require.Contains(t, cat.Owners, "world")
	require.Len(t, cat.Owners["world"].Tiers[backup.TierHourly], 1)
	assert.Equal(t, "world-2024-01-01.tar.bz2", cat.Owners["world"].Tiers[backup.TierHourly][0].Name)

	require.Len(t, cat.Errors, 1)
	var mtimeErr *AmbiguousMtimeError
	assert.ErrorAs(t, cat.Errors[0], &mtimeErr)
}

func TestScanTierMissingDirIsEmpty(t *testing.T) {
	entries, fileErrs, err := ScanTier(fs.New(), t.TempDir(), "world", backup.TierHourly, testPolicy())
	require.NoError(t, err)
	assert.Empty(t, fileErrs)
	assert.Empty(t, entries)
}
