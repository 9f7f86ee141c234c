// Package session decodes the JSON document inside a Firefox session file,
// keeping only the fields needed to count tabs: windows, their tabs, each
// tab's history entries, and each entry's URL. Everything else in the
// document is skipped without being materialized.
package session

// SessionStore is the root of a decoded session.
type SessionStore struct {
	Windows []Window
}

type Window struct {
	Tabs []Tab
}

// Tab holds its navigation history in source order; the last entry is the
// page currently shown.
type Tab struct {
	Entries []Entry
}

// Empty reports whether the tab has no history entries.
func (t Tab) Empty() bool { return len(t.Entries) == 0 }

// Current returns the most recently navigated entry.
func (t Tab) Current() (Entry, bool) {
	if len(t.Entries) == 0 {
		return Entry{}, false
	}
	return t.Entries[len(t.Entries)-1], true
}

type Entry struct {
	URL string
}
