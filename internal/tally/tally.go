// Package tally summarizes a decoded session: how many tabs are open in the
// first window and which hosts those tabs are showing.
package tally

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"github.com/Zuo-Peng/tabtally/internal/session"
)

// DefaultTopN is the number of domains reported by default.
const DefaultTopN = 10

// ErrNoWindows is returned for a session without any window.
var ErrNoWindows = errors.New("tally: session has no windows")

// URLParseError records a tab whose current URL has no parseable host. The
// tab is still counted.
type URLParseError struct {
	Tab int
	URL string
	Err error
}

func (e *URLParseError) Error() string {
	return fmt.Sprintf("tally: tab %d: parse url %q: %v", e.Tab, e.URL, e.Err)
}

func (e *URLParseError) Unwrap() error { return e.Err }

// DomainCount is one row of the top-domains list.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  uint32 `json:"count"`
}

// DomainTally maps a host to the number of tabs currently showing it.
type DomainTally map[string]uint32

// Add counts one more tab on host.
func (d DomainTally) Add(host string) { d[host]++ }

// Top returns at most n hosts by descending count. Hosts with equal counts
// are ordered by name.
func (d DomainTally) Top(n int) []DomainCount {
	if n <= 0 {
		return nil
	}
	out := make([]DomainCount, 0, len(d))
	for domain, count := range d {
		out = append(out, DomainCount{Domain: domain, Count: count})
	}
	slices.SortFunc(out, func(a, b DomainCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Domain, b.Domain)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary is the result handed to reporters.
type Summary struct {
	Tabs       int16
	Windows    int
	TopDomains []DomainCount
	Skipped    []*URLParseError
}

// Summarize counts the non-empty tabs of the first window and, when topN is
// positive, tallies the host of each tab's last entry. Windows after the
// first are not examined. URL failures are logged and collected in
// Summary.Skipped; they never abort the run.
func Summarize(store *session.SessionStore, topN int, log *zap.Logger) (*Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(store.Windows) == 0 {
		return nil, ErrNoWindows
	}

	sum := &Summary{Windows: len(store.Windows)}
	domains := DomainTally{}
	tabs := 0

	for i, tab := range store.Windows[0].Tabs {
		entry, ok := tab.Current()
		if !ok {
			continue
		}
		tabs++
		if topN <= 0 {
			continue
		}

		host, err := Host(entry.URL)
		if err != nil {
			perr := &URLParseError{Tab: i, URL: entry.URL, Err: err}
			sum.Skipped = append(sum.Skipped, perr)
			log.Debug("skipping tab url", zap.Int("tab", i), zap.String("url", entry.URL), zap.Error(err))
			continue
		}
		if host != "" {
			domains.Add(host)
		}
	}

	sum.Tabs = clampInt16(tabs)
	sum.TopDomains = domains.Top(topN)
	return sum, nil
}

// Host returns the lower-cased ASCII host of an absolute URL, or "" for URLs
// that have no host such as about:blank.
func Host(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		return "", errors.New("relative url without a base")
	}
	host := strings.ToLower(u.Hostname())
	if !isASCII(host) {
		// Internationalized names are tallied in their punycode form.
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("host %q: %w", host, err)
		}
		host = ascii
	}
	return host, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func clampInt16(n int) int16 {
	if n > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(n)
}
