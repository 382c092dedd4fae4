package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickfind/internal/index"
	"quickfind/internal/logging"
	"quickfind/internal/query"
	"quickfind/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *store.MemStore {
	t.Helper()
	s := store.NewMemStore()
	for _, r := range []store.FileRecord{
		{Filename: "report.pdf", Filepath: "/docs/report.pdf", Filesize: 2048},
		{Filename: "summary.pdf", Filepath: "/docs/summary.pdf", Filesize: 4096},
		{Filename: "notes.txt", Filepath: "/docs/notes.txt", Filesize: 10},
	} {
		r.LastModified = time.Unix(1700000000, 0)
		r.IndexedAt = time.Unix(1700000100, 0)
		require.NoError(t, s.Upsert(context.Background(), r))
	}
	return s
}

func newTestModel(t *testing.T, s store.Store, refresh RefreshFunc) Model {
	t.Helper()
	return New(Config{
		Store:   s,
		Engine:  query.NewEngine(s, logging.Discard()),
		Limit:   50,
		Refresh: refresh,
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// ready runs the initial index check and moves to the search screen.
func ready(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, m.Init()())
	require.True(t, m.welcome.ready)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewSearch, m.state)
	return m
}

func TestWelcome_ReportsIndexSize(t *testing.T) {
	m := newTestModel(t, seededStore(t), nil)

	m, _ = update(t, m, m.Init()())

	assert.Equal(t, ViewWelcome, m.state)
	assert.Equal(t, 3, m.welcome.total)
	assert.False(t, m.welcome.empty())
	assert.Contains(t, m.View(), "3 files indexed")
}

func TestWelcome_EmptyIndexStartsRefresh(t *testing.T) {
	m := newTestModel(t, store.NewMemStore(), nil)
	m, _ = update(t, m, m.Init()())
	require.True(t, m.welcome.empty())
	assert.Contains(t, m.View(), "Index is empty")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ViewIndexing, m.state)
	assert.NotNil(t, cmd)
}

func TestSearch_SubmitShowsResults(t *testing.T) {
	m := ready(t, newTestModel(t, seededStore(t), nil))

	m = typeText(t, m, "*.pdf")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.search.searching)

	m, _ = update(t, m, cmd())

	assert.False(t, m.search.searching)
	require.NotNil(t, m.search.result)
	assert.Equal(t, query.ModeWildcard, m.search.result.Mode)
	require.Len(t, m.search.table.Rows(), 2)
	// Largest first.
	assert.Equal(t, "summary.pdf", m.search.table.Rows()[0][0])
	assert.Equal(t, "4.0 KB", m.search.table.Rows()[0][1])

	rec, ok := m.search.selected()
	require.True(t, ok)
	assert.Equal(t, "/docs/summary.pdf", rec.Filepath)
}

func TestSearch_BlankPatternIgnored(t *testing.T) {
	m := ready(t, newTestModel(t, seededStore(t), nil))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, m.search.searching)
}

func TestSearch_StaleResultDropped(t *testing.T) {
	m := ready(t, newTestModel(t, seededStore(t), nil))
	m = typeText(t, m, "notes")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = update(t, m, searchResultMsg{pattern: "older", result: &query.Result{}})

	assert.True(t, m.search.searching)
	assert.Nil(t, m.search.result)
}

func TestSearch_QuitKeys(t *testing.T) {
	m := ready(t, newTestModel(t, seededStore(t), nil))

	// q is text while the input has focus.
	m = typeText(t, m, "q")
	assert.Equal(t, "q", m.search.input.Value())
	assert.Equal(t, ViewSearch, m.state)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSearch_TabMovesFocusToTable(t *testing.T) {
	m := ready(t, newTestModel(t, seededStore(t), nil))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.search.input.Focused())
	assert.True(t, m.search.table.Focused())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.search.input.Focused())
	assert.False(t, m.search.table.Focused())
}

func TestSearch_ViewShowsSelection(t *testing.T) {
	m := ready(t, newTestModel(t, seededStore(t), nil))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = typeText(t, m, "notes")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())

	view := m.View()

	assert.Contains(t, view, "notes.txt")
	assert.Contains(t, view, "1 of 3 files")
}

func TestRefresh_ProgressAndCompletion(t *testing.T) {
	sum := &index.Summary{Indexed: 42}
	var gotProgress bool
	refresh := func(ctx context.Context, fn index.ProgressFunc) (*index.Summary, error) {
		fn(index.Event{Kind: index.EventBatch, Indexed: 42})
		gotProgress = true
		return sum, nil
	}
	m := newTestModel(t, seededStore(t), refresh)
	m, _ = update(t, m, m.Init()())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewIndexing, m.state)

	m, _ = update(t, m, indexProgressMsg{event: index.Event{Kind: index.EventRootStarted, Root: "/docs", Indexed: 7}})
	assert.Equal(t, "/docs", m.indexing.root)
	assert.Equal(t, 7, m.indexing.indexed)

	// No program is attached, so progress callbacks are dropped.
	done := runIndex(m.indexing.ctx, m.config)()
	assert.True(t, gotProgress)
	m, _ = update(t, m, done)
	require.True(t, m.indexing.done)
	assert.Same(t, sum, m.indexing.summary)
	assert.Contains(t, m.View(), "Refresh complete!")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewSearch, m.state)
}

func TestRefresh_ErrorShown(t *testing.T) {
	refresh := func(ctx context.Context, fn index.ProgressFunc) (*index.Summary, error) {
		return nil, errors.New("index is locked")
	}
	m := newTestModel(t, seededStore(t), refresh)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

	m, _ = update(t, m, runIndex(m.indexing.ctx, m.config)())

	view := m.View()
	assert.Contains(t, view, "index is locked")
	assert.Contains(t, view, "may be incomplete")
	assert.NotContains(t, view, "previous index")

	// A failed refresh can be retried.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.NotNil(t, cmd)
	assert.False(t, m.indexing.done)
}

func TestRefresh_QuitCancelsRunningRefresh(t *testing.T) {
	var seen context.Context
	refresh := func(ctx context.Context, fn index.ProgressFunc) (*index.Summary, error) {
		seen = ctx
		return nil, ctx.Err()
	}
	m := newTestModel(t, seededStore(t), refresh)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	running := m.indexing

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	msg := runIndex(running.ctx, m.config)()
	require.NotNil(t, seen)
	assert.ErrorIs(t, seen.Err(), context.Canceled)
	done, ok := msg.(indexDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, context.Canceled)
}

func TestDetailMarkdown(t *testing.T) {
	md := detailMarkdown(store.FileRecord{
		Filename: "a.txt",
		Filepath: "/x/a.txt",
		Filesize: 1536,
	})

	assert.Contains(t, md, "### a.txt")
	assert.Contains(t, md, "`/x/a.txt`")
	assert.Contains(t, md, "1.5 KB (1536 bytes)")
}
