package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/tally"
)

var (
	colorPrimary = lipgloss.Color("12")  // bright blue
	colorDim     = lipgloss.Color("240") // gray
	colorBar     = lipgloss.Color("10")  // bright green

	styleHeader = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleBar    = lipgloss.NewStyle().Foreground(colorBar)
	styleCount  = lipgloss.NewStyle().Bold(true)
)

type Options struct {
	Width    int // total width (0 = 80)
	BarWidth int // widest bar (0 = 20)
}

// Plain renders a summary as "<n> tabs" followed by one "<domain> <count>"
// line per top domain. This is the format scripts consume.
func Plain(sum *tally.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d tabs\n", sum.Tabs)
	for _, dc := range sum.TopDomains {
		fmt.Fprintf(&b, "%s %d\n", dc.Domain, dc.Count)
	}
	return b.String()
}

// Summary renders a styled table of the top domains with proportional bars.
func Summary(sum *tally.Summary, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.BarWidth <= 0 {
		opts.BarWidth = 20
	}

	var b strings.Builder
	header := fmt.Sprintf("%d tabs", sum.Tabs)
	if sum.Windows > 1 {
		header += styleDim.Render(fmt.Sprintf("  (first of %d windows)", sum.Windows))
	}
	b.WriteString(styleHeader.Render(header))
	b.WriteString("\n")

	if len(sum.TopDomains) == 0 {
		return b.String()
	}

	peak := sum.TopDomains[0].Count
	countW := len(fmt.Sprint(peak))
	// domain column takes what is left after count, bar and gaps
	domainW := opts.Width - countW - opts.BarWidth - 4
	if domainW < 8 {
		domainW = 8
	}
	longest := 0
	for _, dc := range sum.TopDomains {
		longest = max(longest, runewidth.StringWidth(dc.Domain))
	}
	domainW = min(domainW, longest)

	for _, dc := range sum.TopDomains {
		name := runewidth.FillRight(runewidth.Truncate(dc.Domain, domainW, "…"), domainW)
		count := styleCount.Render(fmt.Sprintf("%*d", countW, dc.Count))
		fmt.Fprintf(&b, "  %s %s %s\n", name, count, styleBar.Render(bar(dc.Count, peak, opts.BarWidth)))
	}

	if n := len(sum.Skipped); n > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf("  (%d tabs with unparseable URLs)", n)))
		b.WriteString("\n")
	}
	return b.String()
}

// History renders recorded runs one per line, newest first.
func History(runs []history.Run, width int) string {
	if len(runs) == 0 {
		return styleDim.Render("No runs recorded.") + "\n"
	}
	if width <= 0 {
		width = 100
	}

	var b strings.Builder
	for _, r := range runs {
		status := styleDim.Render("local")
		if r.Reported {
			status = styleBar.Render("sent ")
		}
		domains := make([]string, 0, len(r.TopDomains))
		for _, dc := range r.TopDomains {
			domains = append(domains, fmt.Sprintf("%s(%d)", dc.Domain, dc.Count))
		}
		prefix := fmt.Sprintf("%s  %5d tabs  ", r.Time.Local().Format("2006-01-02 15:04"), r.Tabs)
		rest := width - runewidth.StringWidth(prefix) - 7
		line := prefix + status + "  " + runewidth.Truncate(strings.Join(domains, " "), max(rest, 0), "…")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// bar returns a run of block characters proportional to n/peak.
func bar(n, peak uint32, width int) string {
	if peak == 0 || width <= 0 {
		return ""
	}
	cells := int(uint64(n) * uint64(width) / uint64(peak))
	if cells == 0 && n > 0 {
		cells = 1
	}
	return strings.Repeat("█", cells)
}
