package tui

import (
	"context"
	"fmt"

	"quickfind/internal/index"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type indexingModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	spinner spinner.Model
	root    string
	indexed int
	missing []string
	done    bool
	summary *index.Summary
	err     error
}

func newIndexingModel() indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	ctx, cancel := context.WithCancel(context.Background())
	return indexingModel{ctx: ctx, cancel: cancel, spinner: sp}
}

// indexDoneMsg is sent when the refresh completes.
type indexDoneMsg struct {
	summary *index.Summary
	err     error
}

// indexProgressMsg forwards an indexer event to the program.
type indexProgressMsg struct {
	event index.Event
}

// stop cancels a running refresh. It is safe to call more than once.
func (m indexingModel) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func runIndex(ctx context.Context, cfg Config) tea.Cmd {
	return func() tea.Msg {
		if cfg.Refresh == nil {
			return indexDoneMsg{err: fmt.Errorf("refresh is not available")}
		}
		sum, err := cfg.Refresh(ctx, func(e index.Event) {
			if cfg.program != nil && cfg.program.p != nil {
				cfg.program.p.Send(indexProgressMsg{event: e})
			}
		})
		return indexDoneMsg{summary: sum, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.stop()
		m.done = true
		m.summary = msg.summary
		m.err = msg.err
		return m, nil
	case indexProgressMsg:
		switch msg.event.Kind {
		case index.EventRootStarted:
			m.root = msg.event.Root
		case index.EventRootMissing:
			m.missing = append(m.missing, msg.event.Root)
		}
		m.indexed = msg.event.Indexed
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Refreshing index") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += warnStyle.Render("  The index may be incomplete until a refresh succeeds.") + "\n"
			s += dimStyle.Render("  Press ctrl+r to retry, Enter to search what was indexed, or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Refresh complete!") + "\n\n"
		if m.summary != nil {
			s += fmt.Sprintf("  Files: %d indexed, %d skipped\n", m.summary.Indexed, m.summary.Skipped())
			s += fmt.Sprintf("  Elapsed: %.2f seconds\n", m.summary.Elapsed.Seconds())
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start searching") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s Scanning %s\n", m.spinner.View(), m.root)
	s += fmt.Sprintf("  %d files indexed\n", m.indexed)
	for _, r := range m.missing {
		s += warnStyle.Render("  Path not found, skipped: "+r) + "\n"
	}
	s += "\n"
	s += dimStyle.Render("  This may take a while for a full home directory...") + "\n"
	return s
}
