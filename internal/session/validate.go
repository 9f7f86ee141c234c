package session

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// validate checks the whole document once, including the values the
// selective walk later steps over without looking inside. The returned
// SyntaxError carries the offset of the offending byte, or len(data) when
// the input ends early.
func validate(data []byte) error {
	if i := invalidUTF8(data); i >= 0 {
		return &SyntaxError{Offset: i, Err: errInvalidUTF8}
	}
	if json.Valid(data) {
		return nil
	}

	// Only the failure path pays for locating the error.
	var raw json.RawMessage
	err := json.Unmarshal(data, &raw)
	var je *json.SyntaxError
	if !errors.As(err, &je) {
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return &SyntaxError{Offset: 0, Err: err}
	}
	// json reports the count of bytes read, which includes the offending one.
	off := int(je.Offset) - 1
	if je.Error() == "unexpected end of JSON input" {
		off = len(data)
	}
	return &SyntaxError{Offset: max(off, 0), Err: je}
}

// invalidUTF8 returns the offset of the first byte that does not start a
// valid UTF-8 sequence, or -1.
func invalidUTF8(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
