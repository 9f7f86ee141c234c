package session

import "fmt"

// SyntaxError reports malformed JSON. Offset is the byte position of the
// offending value, or of the innermost enclosing value when the exact
// position is not known.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("session: syntax error at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// MissingFieldError reports a required field absent from a recognized object.
type MissingFieldError struct {
	Struct string
	Field  string
	Path   string
	Offset int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("session: missing field %q in %s at %s (offset %d)", e.Field, e.Struct, e.Path, e.Offset)
}

// TypeMismatchError reports a recognized field whose value has the wrong JSON type.
type TypeMismatchError struct {
	Struct string
	Field  string
	Path   string
	Offset int
	Got    string
	Want   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("session: field %q of %s at %s (offset %d) is %s, want %s",
		e.Field, e.Struct, e.Path, e.Offset, e.Got, e.Want)
}

// DuplicateFieldError reports a recognized field that appears twice in one object.
type DuplicateFieldError struct {
	Struct string
	Field  string
	Path   string
	Offset int
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("session: duplicate field %q in %s at %s (offset %d)", e.Field, e.Struct, e.Path, e.Offset)
}

// passthrough reports whether err was produced by this package and must not
// be rewrapped as a SyntaxError.
func passthrough(err error) bool {
	switch err.(type) {
	case *SyntaxError, *MissingFieldError, *TypeMismatchError, *DuplicateFieldError:
		return true
	}
	return false
}
