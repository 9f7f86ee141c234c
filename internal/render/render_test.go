package render

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/tally"
)

func summary() *tally.Summary {
	return &tally.Summary{
		Tabs:    3,
		Windows: 1,
		TopDomains: []tally.DomainCount{
			{Domain: "news.example", Count: 2},
			{Domain: "mail.example", Count: 1},
		},
	}
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "3 tabs\nnews.example 2\nmail.example 1\n", Plain(summary()))
	assert.Equal(t, "0 tabs\n", Plain(&tally.Summary{}))
}

func TestSummary(t *testing.T) {
	out := Summary(summary(), Options{Width: 60, BarWidth: 10})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "3 tabs")
	assert.Contains(t, lines[1], "news.example")
	assert.Contains(t, lines[1], strings.Repeat("█", 10))
	assert.Contains(t, lines[2], "mail.example")
	assert.Contains(t, lines[2], strings.Repeat("█", 5))
	assert.NotContains(t, lines[2], strings.Repeat("█", 6))
}

func TestSummaryTruncatesLongDomains(t *testing.T) {
	sum := &tally.Summary{Tabs: 1, TopDomains: []tally.DomainCount{
		{Domain: strings.Repeat("very-long-subdomain.", 10) + "example", Count: 1},
	}}
	out := Summary(sum, Options{Width: 40, BarWidth: 5})
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 40, line)
	}
	assert.Contains(t, out, "…")
}

func TestSummaryNotes(t *testing.T) {
	sum := summary()
	sum.Windows = 3
	sum.Skipped = []*tally.URLParseError{{Tab: 0}}
	out := Summary(sum, Options{})
	assert.Contains(t, out, "first of 3 windows")
	assert.Contains(t, out, "1 tabs with unparseable URLs")
}

func TestHistory(t *testing.T) {
	assert.Contains(t, History(nil, 80), "No runs recorded.")

	runs := []history.Run{
		{Time: time.Unix(1760000000, 0), Tabs: 12, Reported: true,
			TopDomains: []tally.DomainCount{{Domain: "news.example", Count: 7}}},
		{Time: time.Unix(1759990000, 0), Tabs: 4},
	}
	out := History(runs, 80)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "12 tabs")
	assert.Contains(t, lines[0], "sent")
	assert.Contains(t, lines[0], "news.example(7)")
	assert.Contains(t, lines[1], "local")
}

func TestBar(t *testing.T) {
	assert.Equal(t, "", bar(1, 0, 10))
	assert.Equal(t, "█", bar(1, 1000, 10))
	assert.Equal(t, strings.Repeat("█", 10), bar(7, 7, 10))
}
