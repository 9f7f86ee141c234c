package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestFindSessionFiles(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(root, "aaaa.default", "sessionstore-backups", "recovery.jsonlz4"), 10, base)
	writeFile(t, filepath.Join(root, "bbbb.work", "sessionstore-backups", "recovery.jsonlz4"), 20, base.Add(time.Hour))
	writeFile(t, filepath.Join(root, "bbbb.work", "sessionstore.jsonlz4"), 30, base.Add(-time.Hour))
	writeFile(t, filepath.Join(root, "cccc.old", "sessionstore-backups", "previous.jsonlz4"), 5, base)
	writeFile(t, filepath.Join(root, "profiles.ini"), 1, base)

	files, err := FindSessionFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "bbbb.work", files[0].Profile)
	assert.Equal(t, KindRecovery, files[0].Kind)
	assert.Equal(t, int64(20), files[0].Size)
	assert.Equal(t, filepath.Join(root, "bbbb.work", "sessionstore-backups", "recovery.jsonlz4"), files[0].Path)

	assert.Equal(t, "aaaa.default", files[1].Profile)
	assert.Equal(t, "bbbb.work", files[2].Profile)
	assert.Equal(t, KindShutdown, files[2].Kind)
}

func TestFindSessionFilesMissingRoot(t *testing.T) {
	files, err := FindSessionFiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSelect(t *testing.T) {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Path: "/p/a", Profile: "a", Mtime: base},
		{Path: "/p/b1", Profile: "b", Mtime: base.Add(-time.Hour)},
		{Path: "/p/b2", Profile: "b", Mtime: base.Add(time.Minute)},
	}

	f, err := Select(files, "")
	require.NoError(t, err)
	assert.Equal(t, "/p/b2", f.Path)

	f, err = Select(files, "a")
	require.NoError(t, err)
	assert.Equal(t, "/p/a", f.Path)

	_, err = Select(files, "zzz")
	assert.ErrorIs(t, err, ErrNoSessionFile)
	assert.ErrorContains(t, err, "zzz")

	_, err = Select(nil, "")
	assert.ErrorIs(t, err, ErrNoSessionFile)
}

func TestLocate(t *testing.T) {
	p, err := Locate("/explicit/recovery.jsonlz4", "/does/not/matter", "")
	require.NoError(t, err)
	assert.Equal(t, "/explicit/recovery.jsonlz4", p)

	root := t.TempDir()
	want := filepath.Join(root, "x.default", "sessionstore-backups", "recovery.jsonlz4")
	writeFile(t, want, 1, time.Now())

	p, err = Locate("", root, "")
	require.NoError(t, err)
	assert.Equal(t, want, p)

	_, err = Locate("", t.TempDir(), "")
	assert.ErrorIs(t, err, ErrNoSessionFile)
}
