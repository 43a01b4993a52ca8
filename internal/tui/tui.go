// Package tui is an interactive terminal frontend for semantic search over
// the ingested report corpus.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"docgen/internal/search"
	"docgen/internal/store"
)

// searchTimeout bounds one query round trip against the embedding provider.
const searchTimeout = 30 * time.Second

// Searcher is the retrieval capability the TUI calls.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]store.SearchResult, error)
}

// Model is the Bubble Tea model for the search view.
type Model struct {
	searcher Searcher
	topN     int

	input    textinput.Model
	viewport viewport.Model
	results  []store.SearchResult
	cursor   int
	status   string
	errMsg   string
	ready    bool
}

type searchDoneMsg struct {
	query   string
	results []store.SearchResult
	err     error
}

// New creates the search TUI model.
func New(searcher Searcher, topN int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Suchanfrage eingeben und Enter drücken"
	ti.Focus()
	vp := viewport.New(0, 0)
	return Model{
		searcher: searcher,
		topN:     topN,
		input:    ti,
		viewport: vp,
		status:   "Bereit.",
	}
}

// Run starts the TUI program.
func Run(searcher Searcher, topN int) error {
	p := tea.NewProgram(New(searcher, topN), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.viewport.Width = msg.Width
		height := msg.Height - 7
		if height < 3 {
			height = 3
		}
		m.viewport.Height = height
		m.viewport.SetContent(m.renderResults())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.status = "Suche läuft..."
			m.errMsg = ""
			return m, runSearch(m.searcher, query, m.topN)
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResults())
			}
			return m, nil
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResults())
			}
			return m, nil
		}

	case searchDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.status = ""
			m.results = nil
		} else {
			m.results = msg.results
			m.cursor = 0
			m.status = fmt.Sprintf("%d Treffer für %q", len(msg.results), msg.query)
		}
		m.viewport.SetContent(m.renderResults())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Laden..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("docgen search"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Semantische Suche über technische Berichte"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
	} else {
		b.WriteString(dimStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ Treffer wählen · Enter suchen · Esc beenden"))
	return b.String()
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return dimStyle.Render("Noch keine Treffer.")
	}

	var b strings.Builder
	for i, r := range m.results {
		line := fmt.Sprintf("%s  %s — %s (Seiten %s)",
			scoreStyle.Render(fmt.Sprintf("%.2f", r.Score)),
			r.ReportID, r.Heading, r.PageRange)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listItemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	r := m.results[m.cursor]
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("— %s —", r.ChunkID)))
	b.WriteString("\n")
	b.WriteString(r.Text)
	return b.String()
}

func runSearch(searcher Searcher, query string, topN int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		results, err := searcher.Search(ctx, search.Query{Text: query, TopN: topN})
		return searchDoneMsg{query: query, results: results, err: err}
	}
}
