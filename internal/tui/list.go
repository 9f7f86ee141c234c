package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/tabtally/internal/tally"
)

// renderList renders the left panel: ranked domains with scrolling.
func (m model) renderList(width, height int) string {
	if m.itemCount() == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No domains")
	}

	var lines []string
	for i, dc := range m.summary.TopDomains {
		if i < m.listOffset {
			continue
		}
		if len(lines) >= height {
			break
		}
		lines = append(lines, formatDomainLine(i+1, dc, width, i == m.cursor))
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatDomainLine formats one ranked domain:
//
//	[>] rank  domain ........ count
func formatDomainLine(rank int, dc tally.DomainCount, width int, selected bool) string {
	count := fmt.Sprintf("%d", dc.Count)
	rankCol := fmt.Sprintf("%2d ", rank)

	// prefix (2) + rank (3) + space + count
	nameMax := max(width-2-runewidth.StringWidth(rankCol)-1-len(count), 0)
	name := dc.Domain
	if runewidth.StringWidth(name) > nameMax {
		name = runewidth.Truncate(name, nameMax, "…")
	}
	name = runewidth.FillRight(name, nameMax)

	line := styleRank.Render(rankCol) + name + " " + styleCount.Render(count)
	if selected {
		return styleListSelected.Render("> ") + line
	}
	return "  " + line
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visible := max(listHeight, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visible {
		m.listOffset = m.cursor - visible + 1
	}
}
