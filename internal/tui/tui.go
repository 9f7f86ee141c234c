package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/tally"
)

// message types

type runsLoadedMsg struct {
	runs []history.Run
	err  error
}

// model

type model struct {
	db         *history.DB
	limit      int
	summary    *tally.Summary
	runs       []history.Run
	cursor     int
	listOffset int
	preview    viewport.Model
	previewKey string // domain currently rendered in the preview
	width      int
	height     int
	ready      bool
	quitting   bool
}

func initialModel(sum *tally.Summary, db *history.DB, limit int) model {
	return model{
		db:      db,
		limit:   limit,
		summary: sum,
		preview: viewport.New(0, 0),
	}
}

// Run starts the browser over sum and blocks until it exits. db may be nil,
// in which case the trend pane only shows the current snapshot.
func Run(sum *tally.Summary, db *history.DB, limit int) error {
	m := initialModel(sum, db, limit)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init loads recorded runs for the trend pane.
func (m model) Init() tea.Cmd {
	return loadRunsCmd(m.db, m.limit)
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				return m, m.loadCurrentPreview()
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < m.itemCount()-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				return m, m.loadCurrentPreview()
			}

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
		}
		return m, nil

	case tea.MouseMsg:
		if !m.ready || m.itemCount() == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			maxOffset := max(m.itemCount()-m.panelHeight(), 0)
			if m.listOffset < maxOffset {
				m.listOffset++
			}

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < m.itemCount() && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				return m, m.loadCurrentPreview()
			}

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}
		return m, nil

	case runsLoadedMsg:
		if msg.err != nil {
			m.preview.SetContent("History error: " + msg.err.Error())
			m.previewKey = ""
			return m, nil
		}
		m.runs = msg.runs
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		if msg.domain != m.selectedDomain() {
			return m, nil // stale preview
		}
		m.preview.SetContent(msg.content)
		m.preview.GotoTop()
		m.previewKey = msg.domain
		return m, nil
	}

	return m, nil
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	header := styleTitle.Render(fmt.Sprintf(" %d open tabs across %d windows", m.summary.Tabs, m.summary.Windows))

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, m.statusBar())
}

// helper methods

func (m model) itemCount() int {
	if m.summary == nil {
		return 0
	}
	return len(m.summary.TopDomains)
}

func (m model) selectedDomain() string {
	if m.cursor < 0 || m.cursor >= m.itemCount() {
		return ""
	}
	return m.summary.TopDomains[m.cursor].Domain
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width*60/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// header (1) + status bar (1) + borders (4)
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // header (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + relY
	}
	if x > listBoxRight+1 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d domains", m.itemCount()),
		fmt.Sprintf("%d runs", len(m.runs)),
		"up/dn navigate",
		"C-u/C-d trend",
		"esc quit",
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) loadCurrentPreview() tea.Cmd {
	domain := m.selectedDomain()
	if domain == "" || domain == m.previewKey {
		return nil
	}
	return renderTrendCmd(domain, m.summary.TopDomains[m.cursor].Count, m.runs, m.previewWidth())
}

func loadRunsCmd(db *history.DB, limit int) tea.Cmd {
	if db == nil {
		return nil
	}
	return func() tea.Msg {
		runs, err := db.Recent(limit)
		return runsLoadedMsg{runs: runs, err: err}
	}
}
