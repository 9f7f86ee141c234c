package session

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// Decode parses a decompressed session document. Only windows[].tabs[].
// entries[].url is materialized; unknown keys at any level are skipped
// whatever their type, but must still be well-formed. Each recognized key
// is required.
func Decode(data []byte) (*SessionStore, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	value, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, &SyntaxError{Offset: 0, Err: err}
	}
	start := valueStart(value, typ, end)
	if typ != jsonparser.Object {
		return nil, &SyntaxError{Offset: start, Err: fmt.Errorf("document root is %s, want object", typ)}
	}
	if rest := bytes.TrimLeft(data[end:], " \t\r\n"); len(rest) > 0 {
		return nil, &SyntaxError{Offset: len(data) - len(rest), Err: fmt.Errorf("trailing data after document")}
	}

	store := &SessionStore{}
	if err := decodeStore(value, start, store); err != nil {
		return nil, err
	}
	return store, nil
}

func decodeStore(data []byte, base int, s *SessionStore) error {
	return object(data, base, "SessionStore", nil, field{
		name: "windows",
		want: jsonparser.Array,
		decode: func(v []byte, off int, p *path) error {
			return array(v, off, "SessionStore", "windows", p, func(elem []byte, off int, p *path) error {
				s.Windows = append(s.Windows, Window{})
				return decodeWindow(elem, off, p, &s.Windows[len(s.Windows)-1])
			})
		},
	})
}

func decodeWindow(data []byte, base int, at *path, w *Window) error {
	return object(data, base, "Window", at, field{
		name: "tabs",
		want: jsonparser.Array,
		decode: func(v []byte, off int, p *path) error {
			return array(v, off, "Window", "tabs", p, func(elem []byte, off int, p *path) error {
				w.Tabs = append(w.Tabs, Tab{})
				return decodeTab(elem, off, p, &w.Tabs[len(w.Tabs)-1])
			})
		},
	})
}

func decodeTab(data []byte, base int, at *path, t *Tab) error {
	return object(data, base, "Tab", at, field{
		name: "entries",
		want: jsonparser.Array,
		decode: func(v []byte, off int, p *path) error {
			return array(v, off, "Tab", "entries", p, func(elem []byte, off int, p *path) error {
				t.Entries = append(t.Entries, Entry{})
				return decodeEntry(elem, off, p, &t.Entries[len(t.Entries)-1])
			})
		},
	})
}

func decodeEntry(data []byte, base int, at *path, e *Entry) error {
	return object(data, base, "Entry", at, field{
		name: "url",
		want: jsonparser.String,
		decode: func(v []byte, off int, _ *path) error {
			s, err := jsonparser.ParseString(v)
			if err != nil {
				return &SyntaxError{Offset: off, Err: err}
			}
			e.URL = s
			return nil
		},
	})
}

// field binds a recognized object key to the action decoding its value.
type field struct {
	name   string
	want   jsonparser.ValueType
	decode func(value []byte, off int, p *path) error
}

// object walks the JSON object held in data, which starts at absolute offset
// base. Values of recognized keys are type-checked and handed to their
// field; all other values are stepped over by the tokenizer and dropped.
func object(data []byte, base int, name string, at *path, fields ...field) error {
	seen := make([]bool, len(fields))
	err := jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, end int) error {
		i := lookup(fields, key)
		if i < 0 {
			return nil
		}
		f := fields[i]
		off := base + valueStart(value, typ, end)
		if seen[i] {
			return &DuplicateFieldError{Struct: name, Field: f.name, Path: at.String(), Offset: off}
		}
		seen[i] = true
		if typ != f.want {
			return &TypeMismatchError{
				Struct: name,
				Field:  f.name,
				Path:   at.key(f.name).String(),
				Offset: off,
				Got:    typ.String(),
				Want:   f.want.String(),
			}
		}
		return f.decode(value, off, at.key(f.name))
	})
	if err != nil {
		if passthrough(err) {
			return err
		}
		return &SyntaxError{Offset: base, Err: err}
	}
	for i, f := range fields {
		if !seen[i] {
			return &MissingFieldError{Struct: name, Field: f.name, Path: at.String(), Offset: base}
		}
	}
	return nil
}

// array walks a JSON array whose elements must all be objects.
func array(data []byte, base int, owner, name string, at *path, elem func(value []byte, off int, p *path) error) error {
	var (
		elemErr error
		i       int
	)
	end, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, offset int, _ error) {
		if elemErr != nil {
			return
		}
		p := at.index(i)
		i++
		off := base + offset
		if typ == jsonparser.String {
			off -= 2
		}
		if typ != jsonparser.Object {
			elemErr = &TypeMismatchError{
				Struct: owner,
				Field:  name,
				Path:   p.String(),
				Offset: off,
				Got:    typ.String(),
				Want:   jsonparser.Object.String(),
			}
			return
		}
		elemErr = elem(value, off, p)
	})
	if elemErr != nil {
		return elemErr
	}
	if err != nil {
		if end < 0 {
			end = 0
		}
		return &SyntaxError{Offset: base + end, Err: err}
	}
	return nil
}

func lookup(fields []field, key []byte) int {
	for i := range fields {
		if string(key) == fields[i].name {
			return i
		}
	}
	return -1
}

// valueStart converts the end offset reported by jsonparser into the offset
// of the value's first byte. String values come back without their quotes.
func valueStart(value []byte, typ jsonparser.ValueType, end int) int {
	start := end - len(value)
	if typ == jsonparser.String {
		start -= 2
	}
	return start
}

// path locates a value inside the document for error messages. It is only
// rendered when an error is built.
type path struct {
	parent *path
	name   string
	idx    int
}

func (p *path) key(name string) *path { return &path{parent: p, name: name, idx: -1} }

func (p *path) index(i int) *path { return &path{parent: p, idx: i} }

func (p *path) String() string {
	if p == nil {
		return "$"
	}
	var parts []string
	for q := p; q != nil; q = q.parent {
		if q.idx >= 0 {
			parts = append(parts, "["+strconv.Itoa(q.idx)+"]")
		} else {
			parts = append(parts, "."+q.name)
		}
	}
	var b strings.Builder
	b.WriteString("$")
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return b.String()
}
