package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/tabtally/internal/history"
)

// previewRenderedMsg is sent when an async trend render completes.
type previewRenderedMsg struct {
	domain  string
	content string
}

// renderTrendCmd returns a tea.Cmd that renders the domain's tab count across
// recorded runs.
func renderTrendCmd(domain string, current uint32, runs []history.Run, width int) tea.Cmd {
	return func() tea.Msg {
		return previewRenderedMsg{domain: domain, content: renderTrend(domain, current, runs, width)}
	}
}

func renderTrend(domain string, current uint32, runs []history.Run, width int) string {
	peak := current
	for _, r := range runs {
		if n, ok := countFor(r, domain); ok {
			peak = max(peak, n)
		}
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(domain))
	b.WriteString("\n")
	fmt.Fprintf(&b, "now          %s %d\n", trendBar(current, peak, width), current)

	if len(runs) == 0 {
		b.WriteString(styleDim.Render("\nNo recorded runs. Run `tabtally count --record` to start one."))
		return b.String()
	}
	b.WriteString("\n")

	for _, r := range runs {
		n, ranked := countFor(r, domain)
		stamp := r.Time.Local().Format("01-02 15:04")
		if !ranked {
			fmt.Fprintf(&b, "%s  %s\n", stamp, styleDim.Render("not ranked"))
			continue
		}
		fmt.Fprintf(&b, "%s  %s %d\n", stamp, trendBar(n, peak, width), n)
	}
	return b.String()
}

func countFor(r history.Run, domain string) (uint32, bool) {
	for _, dc := range r.TopDomains {
		if dc.Domain == domain {
			return dc.Count, true
		}
	}
	return 0, false
}

// trendBar scales n against the largest count seen for the domain.
func trendBar(n, peak uint32, width int) string {
	if peak == 0 {
		return ""
	}
	cells := max(width-24, 1)
	w := int(uint64(n) * uint64(cells) / uint64(peak))
	if w == 0 && n > 0 {
		w = 1
	}
	return styleBar.Render(strings.Repeat("█", w))
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
