package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mtckit/mtckit/internal/c64x"
	"github.com/mtckit/mtckit/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(render.PrimaryColor).
			Bold(true).
			PaddingLeft(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(render.MutedColor).
			PaddingLeft(1)

	matchStyle = lipgloss.NewStyle().
			Foreground(render.WarningColor)
)

// Model is the bubbletea model of the listing browser.
type Model struct {
	title string
	lines []string

	viewport viewport.Model
	search   textinput.Model

	searching bool
	query     string
	matches   []int // line indexes
	current   int   // index into matches

	ready bool
}

// NewModel builds a browser over a disassembled listing.
func NewModel(title string, listing *c64x.Listing) Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.CharLimit = 64

	return Model{
		title:  title,
		lines:  render.ListingLines(listing),
		search: ti,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "/":
			m.searching = true
			m.search.SetValue("")
			m.search.Focus()
			return m, textinput.Blink
		case "n":
			m.jumpToMatch(+1)
			return m, nil
		case "N":
			m.jumpToMatch(-1)
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.runSearch(m.search.Value())
		return m, nil
	case "esc", "ctrl+c":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// runSearch finds every line containing the query, case-insensitive,
// and jumps to the first match at or after the current scroll position.
func (m *Model) runSearch(query string) {
	m.query = query
	m.matches = m.matches[:0]
	m.current = -1
	if query == "" {
		return
	}
	needle := strings.ToLower(query)
	for i, line := range m.lines {
		if strings.Contains(strings.ToLower(line), needle) {
			m.matches = append(m.matches, i)
		}
	}
	for i, line := range m.matches {
		if line >= m.viewport.YOffset {
			m.current = i - 1
			break
		}
	}
	m.jumpToMatch(+1)
}

func (m *Model) jumpToMatch(dir int) {
	if len(m.matches) == 0 {
		return
	}
	m.current = ((m.current+dir)%len(m.matches) + len(m.matches)) % len(m.matches)
	m.viewport.SetYOffset(m.matches[m.current])
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading listing..."
	}

	header := titleStyle.Render(m.title)

	var footer string
	switch {
	case m.searching:
		footer = m.search.View()
	case m.query != "":
		if len(m.matches) == 0 {
			footer = statusStyle.Render(fmt.Sprintf("no matches for %q", m.query))
		} else {
			footer = statusStyle.Render(fmt.Sprintf("match %d/%d for %q",
				m.current+1, len(m.matches), m.query)) +
				matchStyle.Render("  n/N next/prev")
		}
	default:
		footer = statusStyle.Render(fmt.Sprintf(
			"%d instructions  / search  g/G top/bottom  q quit", len(m.lines)))
	}

	return header + "\n" + m.viewport.View() + "\n" + footer
}

// Run launches the browser and blocks until the user quits.
func Run(title string, listing *c64x.Listing) error {
	p := tea.NewProgram(NewModel(title, listing), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("listing viewer failed: %w", err)
	}
	return nil
}
