package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"quickfind/internal/format"
	"quickfind/internal/index"
	"quickfind/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const ruleWidth = 80

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// styles are bound to the writer they render for, so color is dropped
// automatically when output is piped.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	warn    lipgloss.Style
	ordinal lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		label:   r.NewStyle().Foreground(lipgloss.Color("245")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("241")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		ordinal: r.NewStyle().Bold(true).Foreground(lipgloss.Color("111")),
	}
}

// printResults writes search results in the numbered block layout.
func printResults(w io.Writer, st styles, records []store.FileRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, st.warn.Render("No matching files found"))
		return
	}

	fmt.Fprintf(w, "\n%s\n", st.title.Render(fmt.Sprintf("Found %d files:", len(records))))
	fmt.Fprintln(w, st.dim.Render(strings.Repeat("-", ruleWidth)))

	for i, r := range records {
		fmt.Fprintf(w, "%s %s\n", st.ordinal.Render(fmt.Sprintf("%3d.", i+1)), r.Filename)
		fmt.Fprintf(w, "     %s %s\n", st.label.Render("Path:"), r.Filepath)
		fmt.Fprintf(w, "     %s %s\n", st.label.Render("Size:"), format.Size(r.Filesize))
		fmt.Fprintf(w, "     %s %s\n", st.label.Render("Modified:"), format.Timestamp(r.LastModified))
		fmt.Fprintln(w)
	}
}

// progressPrinter reports refresh progress events as console lines.
type progressPrinter struct {
	out  io.Writer
	info *color.Color
	warn *color.Color
	done *color.Color
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	p := &progressPrinter{
		out:  w,
		info: color.New(color.FgCyan),
		warn: color.New(color.FgYellow),
		done: color.New(color.FgGreen, color.Bold),
	}
	if !isTerminal(w) {
		p.info.DisableColor()
		p.warn.DisableColor()
		p.done.DisableColor()
	}
	return p
}

func (p *progressPrinter) handle(e index.Event) {
	switch e.Kind {
	case index.EventRootStarted:
		p.info.Fprintf(p.out, "Scanning: %s\n", e.Root)
	case index.EventRootMissing:
		if e.Err == nil || errors.Is(e.Err, fs.ErrNotExist) {
			p.warn.Fprintf(p.out, "Path not found, skipping: %s\n", e.Root)
			return
		}
		p.warn.Fprintf(p.out, "Cannot read %s, skipping: %v\n", e.Root, e.Err)
	case index.EventBatch:
		fmt.Fprintf(p.out, "Indexed %d files...\n", e.Indexed)
	}
}

func (p *progressPrinter) summary(sum *index.Summary) {
	p.done.Fprintln(p.out, "Refresh complete!")
	fmt.Fprintf(p.out, "Indexed %d files in total\n", sum.Indexed)
	if sum.Skipped() > 0 {
		fmt.Fprintf(p.out, "Skipped %d files (%d unreadable, %d errors)\n",
			sum.Skipped(), sum.SkippedPermission, sum.SkippedError)
	}
	for _, fe := range sum.Errors {
		p.warn.Fprintf(p.out, "  error processing %s: %v\n", fe.Path, fe.Err)
	}
	fmt.Fprintf(p.out, "Elapsed: %.2f seconds\n", sum.Elapsed.Seconds())
}
