package tui

import (
	"context"
	"fmt"

	"quickfind/internal/format"
	"quickfind/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type welcomeModel struct {
	total       int
	lastUpdated string
	err         error
	ready       bool // true once the check has completed
}

// checkIndexMsg is sent after reading the index status.
type checkIndexMsg struct {
	total       int
	lastUpdated string
	err         error
}

func checkIndex(st store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		total, err := st.CountAll(ctx)
		if err != nil {
			return checkIndexMsg{err: err}
		}
		last, ok, err := st.MaxIndexedAt(ctx)
		if err != nil {
			return checkIndexMsg{total: total, err: err}
		}
		msg := checkIndexMsg{total: total}
		if ok {
			msg.lastUpdated = format.Timestamp(last)
		}
		return msg
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.total = msg.total
		m.lastUpdated = msg.lastUpdated
		m.err = msg.err
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) empty() bool {
	return m.ready && m.err == nil && m.total == 0
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ quickfind") + "\n"
	s += subtitleStyle.Render("  Instant lookups over a cached file index") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch {
	case m.err != nil:
		s += errorStyle.Render(fmt.Sprintf("  ✗ Cannot read index: %v", m.err)) + "\n"
	case m.total == 0:
		s += warnStyle.Render("  ✗ Index is empty") + "\n\n"
		s += dimStyle.Render("  Press Enter to build it now, or q to quit") + "\n"
		return s
	default:
		s += successStyle.Render(fmt.Sprintf("  ✓ %d files indexed", m.total)) + "\n"
		if m.lastUpdated != "" {
			s += dimStyle.Render("    last updated "+m.lastUpdated) + "\n"
		}
	}

	s += "\n"
	s += dimStyle.Render("  Press Enter to search, r to refresh, q to quit") + "\n"
	return s
}
