//go:build !unix

package rawfile

import (
	"io"
	"os"
)

// mapFile falls back to reading the whole file on platforms without mmap.
func mapFile(f *os.File, size int) ([]byte, func() error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, nil, nil
}
