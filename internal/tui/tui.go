// Package tui implements the interactive browse screen.
package tui

import (
	"context"

	"quickfind/internal/index"
	"quickfind/internal/query"
	"quickfind/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewIndexing
	ViewSearch
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// RefreshFunc rebuilds the index and reports progress through fn.
type RefreshFunc func(ctx context.Context, fn index.ProgressFunc) (*index.Summary, error)

// Config holds configuration passed from the CLI layer.
type Config struct {
	Store   store.Store
	Engine  *query.Engine
	Limit   int
	Refresh RefreshFunc

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome  welcomeModel
	indexing indexingModel
	search   searchModel
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewWelcome,
		config: cfg,
		search: newSearchModel(cfg.Engine, cfg.Limit),
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.config.Store)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Global keys. q is text while the search input has focus.
		switch msg.String() {
		case "ctrl+c":
			m.indexing.stop()
			return m, tea.Quit
		case "q":
			if m.state != ViewSearch || !m.search.input.Focused() {
				m.indexing.stop()
				return m, tea.Quit
			}
		case "ctrl+r":
			if m.state != ViewIndexing || m.indexing.done {
				return m, m.startRefresh()
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.welcome.ready {
			switch {
			case keyMsg.Type == tea.KeyEnter && m.welcome.empty():
				return m, m.startRefresh()
			case keyMsg.Type == tea.KeyEnter:
				m.state = ViewSearch
				return m, nil
			case keyMsg.String() == "r":
				return m, m.startRefresh()
			}
		}
		return m, cmd

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.done {
			m.state = ViewSearch
			return m, m.rerunSearch()
		}

	case ViewSearch:
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) startRefresh() tea.Cmd {
	m.state = ViewIndexing
	m.indexing.stop()
	m.indexing = newIndexingModel()
	return tea.Batch(m.indexing.spinner.Tick, runIndex(m.indexing.ctx, m.config))
}

// rerunSearch repeats the last query against the refreshed index.
func (m *Model) rerunSearch() tea.Cmd {
	if m.search.pattern == "" {
		return nil
	}
	m.search.searching = true
	return runQuery(m.search.engine, m.search.pattern, m.search.limit)
}

func (m Model) View() string {
	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewSearch:
		return m.search.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
