package tui

import (
	"context"
	"fmt"
	"strings"

	"quickfind/internal/format"
	"quickfind/internal/query"
	"quickfind/internal/store"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	sizeColWidth     = 10
	modifiedColWidth = 19
	minNameColWidth  = 20
	// detailHeight is the space reserved under the table for the selected file.
	detailHeight = 9
)

type searchModel struct {
	engine *query.Engine
	limit  int

	input    textinput.Model
	table    table.Model
	renderer *glamour.TermRenderer

	result    *query.Result
	pattern   string
	searching bool
	err       error

	width  int
	height int
}

// searchResultMsg carries the outcome of one query.
type searchResultMsg struct {
	pattern string
	result  *query.Result
	err     error
}

func newSearchModel(engine *query.Engine, limit int) searchModel {
	ti := textinput.New()
	ti.Placeholder = "name fragment or wildcard, e.g. report or *.pdf"
	ti.Prompt = "❯ "
	ti.PromptStyle = promptStyle
	ti.CharLimit = 256
	ti.Focus()

	styles := table.DefaultStyles()
	styles.Selected = selectedStyle

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithHeight(10),
		table.WithStyles(styles),
	)

	return searchModel{
		engine: engine,
		limit:  limit,
		input:  ti,
		table:  t,
	}
}

func columns(width int) []table.Column {
	name := width - sizeColWidth - modifiedColWidth - 8
	if name < minNameColWidth {
		name = minNameColWidth
	}
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Size", Width: sizeColWidth},
		{Title: "Modified", Width: modifiedColWidth},
	}
}

func (m *searchModel) resize(width, height int) {
	m.width = width
	m.height = height

	m.input.Width = width - 4
	m.table.SetColumns(columns(width))
	m.table.SetWidth(width)

	// Layout: title (2) + input (2) + status bar (1) + help (1) + detail pane.
	tableHeight := height - 6 - detailHeight
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		m.renderer = r
	}
}

func runQuery(engine *query.Engine, pattern string, limit int) tea.Cmd {
	return func() tea.Msg {
		res, err := engine.Search(context.Background(), pattern, limit)
		return searchResultMsg{pattern: pattern, result: res, err: err}
	}
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultMsg:
		if msg.pattern != m.pattern {
			// A newer query superseded this one.
			return m, nil
		}
		m.searching = false
		m.err = msg.err
		m.result = msg.result
		m.table.SetRows(rowsFor(msg.result))
		m.table.SetCursor(0)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if m.input.Focused() {
				pattern := strings.TrimSpace(m.input.Value())
				if pattern == "" {
					return m, nil
				}
				m.pattern = pattern
				m.searching = true
				return m, runQuery(m.engine, pattern, m.limit)
			}
		case tea.KeyTab, tea.KeyShiftTab:
			m.toggleFocus()
			return m, nil
		case tea.KeyEsc:
			if m.table.Focused() {
				m.toggleFocus()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m *searchModel) toggleFocus() {
	if m.input.Focused() {
		m.input.Blur()
		m.table.Focus()
		return
	}
	m.table.Blur()
	m.input.Focus()
}

func rowsFor(res *query.Result) []table.Row {
	if res == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(res.Records))
	for _, r := range res.Records {
		rows = append(rows, table.Row{r.Filename, format.Size(r.Filesize), format.Timestamp(r.LastModified)})
	}
	return rows
}

// selected returns the record under the table cursor.
func (m searchModel) selected() (store.FileRecord, bool) {
	if m.result == nil || len(m.result.Records) == 0 {
		return store.FileRecord{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.result.Records) {
		return store.FileRecord{}, false
	}
	return m.result.Records[i], true
}

func detailMarkdown(r store.FileRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", r.Filename)
	fmt.Fprintf(&sb, "- **Path:** `%s`\n", r.Filepath)
	fmt.Fprintf(&sb, "- **Size:** %s (%d bytes)\n", format.Size(r.Filesize), r.Filesize)
	fmt.Fprintf(&sb, "- **Modified:** %s\n", format.Timestamp(r.LastModified))
	fmt.Fprintf(&sb, "- **Indexed:** %s\n", format.Timestamp(r.IndexedAt))
	return sb.String()
}

func (m searchModel) renderDetail() string {
	r, ok := m.selected()
	if !ok {
		return ""
	}
	md := detailMarkdown(r)
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (m searchModel) statusLine() string {
	switch {
	case m.searching:
		return "Searching..."
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.result == nil:
		return "Type a pattern and press Enter"
	case m.result.Empty:
		return warnStyle.Render("Index is empty, press ctrl+r to refresh")
	case len(m.result.Records) == 0:
		return fmt.Sprintf("No matching files found among %d", m.result.Total)
	}
	return fmt.Sprintf("%d of %d files · %s search for %q",
		len(m.result.Records), m.result.Total, m.result.Mode, m.pattern)
}

func (m searchModel) View(width, height int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("◆ quickfind") + "\n\n")
	sb.WriteString(m.input.View() + "\n\n")
	sb.WriteString(m.table.View() + "\n")
	sb.WriteString(statusBarStyle.Width(width).Render(m.statusLine()) + "\n")
	if d := m.renderDetail(); d != "" {
		sb.WriteString(detailStyle.Render(d) + "\n")
	}
	sb.WriteString(helpStyle.Render("enter search · tab switch focus · ↑/↓ move · ctrl+r refresh · ctrl+c quit"))
	return sb.String()
}
