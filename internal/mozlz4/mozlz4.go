// Package mozlz4 reads the Firefox "mozLz4" container: an 8-byte magic
// header followed by a little-endian uint32 size prefix and one raw LZ4
// block (no frame headers).
package mozlz4

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const (
	// Magic is the header Firefox writes in front of every session file.
	Magic = "mozLz40\x00"

	// HeaderSize is the number of bytes skipped before the compressed block.
	HeaderSize = len(Magic)

	// sizePrefixLen is the width of the decompressed-size prefix.
	sizePrefixLen = 4

	// MaxDecompressedSize bounds the allocation made for a declared size.
	MaxDecompressedSize = 512 << 20
)

// FramingError reports a container shorter than the fixed header.
type FramingError struct {
	Size int
	Want int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("mozlz4: container is %d bytes, header needs %d", e.Size, e.Want)
}

// DecompressionError reports a block that cannot be decoded to its declared size.
type DecompressionError struct {
	Reason string
	Err    error
}

func (e *DecompressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mozlz4: %s: %v", e.Reason, e.Err)
	}
	return "mozlz4: " + e.Reason
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// StripHeader returns the bytes following the fixed-width header. The magic
// value itself is not checked; see CheckMagic.
func StripHeader(raw []byte) ([]byte, error) {
	if len(raw) < HeaderSize {
		return nil, &FramingError{Size: len(raw), Want: HeaderSize}
	}
	return raw[HeaderSize:], nil
}

// CheckMagic reports whether raw starts with the expected magic bytes.
func CheckMagic(raw []byte) bool {
	return len(raw) >= HeaderSize && bytes.Equal(raw[:HeaderSize], []byte(Magic))
}

// DeclaredSize reads the decompressed-size prefix of a block.
func DeclaredSize(block []byte) (int, error) {
	if len(block) < sizePrefixLen {
		return 0, &DecompressionError{
			Reason: fmt.Sprintf("size prefix needs %d bytes, have %d", sizePrefixLen, len(block)),
		}
	}
	return int(binary.LittleEndian.Uint32(block[:sizePrefixLen])), nil
}

// Decompress decodes a size-prefixed LZ4 block. The result is exactly the
// declared size or an error is returned.
func Decompress(block []byte) ([]byte, error) {
	size, err := DeclaredSize(block)
	if err != nil {
		return nil, err
	}
	if size > MaxDecompressedSize {
		return nil, &DecompressionError{
			Reason: fmt.Sprintf("declared size %d exceeds limit %d", size, MaxDecompressedSize),
		}
	}

	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(block[sizePrefixLen:], dst)
	if err != nil {
		return nil, &DecompressionError{Reason: "corrupt block", Err: err}
	}
	if n != size {
		return nil, &DecompressionError{
			Reason: fmt.Sprintf("decompressed %d bytes, declared %d", n, size),
		}
	}
	return dst, nil
}

// Decode strips the header from a full container and decompresses its block.
func Decode(raw []byte) ([]byte, error) {
	block, err := StripHeader(raw)
	if err != nil {
		return nil, err
	}
	return Decompress(block)
}
