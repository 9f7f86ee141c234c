// Package rawfile exposes a file's full contents as a read-only byte slice,
// memory-mapped where the platform allows it.
package rawfile

import (
	"fmt"
	"os"
)

// File is a read-only view of a file's bytes. The slice returned by Bytes
// is valid until Close.
type File struct {
	path   string
	data   []byte
	unmap  func() error
	mapped bool
}

// Open maps path into memory. Empty files are returned as an empty view
// without mapping since zero-length mappings are rejected by the kernel.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	size := info.Size()
	if size == 0 {
		return &File{path: path, data: []byte{}}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("%s: file too large to map (%d bytes)", path, size)
	}

	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return &File{path: path, data: data, unmap: unmap, mapped: unmap != nil}, nil
}

// Bytes returns the file contents. Callers must not modify the slice.
func (f *File) Bytes() []byte { return f.data }

// Len returns the size of the file in bytes.
func (f *File) Len() int { return len(f.data) }

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Mapped reports whether the contents are backed by a memory mapping.
func (f *File) Mapped() bool { return f.mapped }

// Close releases the mapping. Calling Close more than once is a no-op.
func (f *File) Close() error {
	unmap := f.unmap
	f.unmap = nil
	f.data = nil
	if unmap == nil {
		return nil
	}
	return unmap()
}
