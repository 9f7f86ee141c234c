package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	KindRecovery = "recovery" // written while Firefox runs
	KindShutdown = "shutdown" // written on clean exit
)

// sessionPatterns locate session files relative to the profiles root.
var sessionPatterns = []struct {
	pattern string
	kind    string
}{
	{"*/sessionstore-backups/recovery.jsonlz4", KindRecovery},
	{"*/sessionstore.jsonlz4", KindShutdown},
}

// ErrNoSessionFile is returned when no profile holds a session file.
var ErrNoSessionFile = errors.New("no session file found")

type FileInfo struct {
	Path    string
	Profile string // profile directory name, e.g. "9pbspxtt.default"
	Kind    string
	Mtime   time.Time
	Size    int64
}

// FindSessionFiles lists the session files of every profile under root. A
// missing root yields no files.
func FindSessionFiles(root string) ([]FileInfo, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	fsys := os.DirFS(root)
	var files []FileInfo
	for _, sp := range sessionPatterns {
		matches, err := doublestar.Glob(fsys, sp.pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", root, err)
		}
		for _, m := range matches {
			info, err := fs.Stat(fsys, m)
			if err != nil || info.IsDir() {
				continue // vanished or odd entry
			}
			files = append(files, FileInfo{
				Path:    filepath.Join(root, filepath.FromSlash(m)),
				Profile: strings.SplitN(m, "/", 2)[0],
				Kind:    sp.kind,
				Mtime:   info.ModTime(),
				Size:    info.Size(),
			})
		}
	}

	// newest first
	slices.SortStableFunc(files, func(a, b FileInfo) int {
		return b.Mtime.Compare(a.Mtime)
	})
	return files, nil
}

// Select picks the most recently written session file, restricted to one
// profile when profile is not empty.
func Select(files []FileInfo, profile string) (FileInfo, error) {
	var best *FileInfo
	for i := range files {
		f := &files[i]
		if profile != "" && f.Profile != profile {
			continue
		}
		if best == nil || f.Mtime.After(best.Mtime) {
			best = f
		}
	}
	if best == nil {
		if profile != "" {
			return FileInfo{}, fmt.Errorf("%w for profile %q", ErrNoSessionFile, profile)
		}
		return FileInfo{}, ErrNoSessionFile
	}
	return *best, nil
}

// Locate resolves the session file to read: an explicit path wins, otherwise
// profiles under root are searched.
func Locate(explicit, root, profile string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	files, err := FindSessionFiles(root)
	if err != nil {
		return "", err
	}
	f, err := Select(files, profile)
	if err != nil {
		return "", fmt.Errorf("%w under %s", err, root)
	}
	return f.Path, nil
}
