package cmd

import (
	"fmt"
	"strings"
	"time"

	"quickfind/internal/format"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index size and freshness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(cmd)
		},
	}
}

func (a *app) runStatus(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	st := newStyles(out)

	s, dbPath, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	total, err := s.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("count files: %w", err)
	}

	fmt.Fprintln(out, st.title.Render("Index status"))
	fmt.Fprintf(out, "  %s %s\n", st.label.Render("Database:    "), dbPath)
	fmt.Fprintf(out, "  %s %d\n", st.label.Render("Total files: "), total)

	if total == 0 {
		fmt.Fprintln(out, st.warn.Render(emptyIndexHint))
		return nil
	}

	if last, ok, err := s.MaxIndexedAt(ctx); err != nil {
		return fmt.Errorf("read last refresh time: %w", err)
	} else if ok {
		fmt.Fprintf(out, "  %s %s\n", st.label.Render("Last updated:"), format.Timestamp(last))
	}

	run, err := s.LastRun(ctx)
	if err != nil {
		return fmt.Errorf("read last run: %w", err)
	}
	if run != nil {
		fmt.Fprintf(out, "  %s %s (%d indexed, %d skipped, %s)\n",
			st.label.Render("Last run:    "), run.ID, run.Indexed, run.Skipped,
			run.FinishedAt.Sub(run.StartedAt).Round(10*time.Millisecond))
		fmt.Fprintf(out, "  %s %s\n", st.label.Render("Roots:       "), strings.Join(run.Roots, ", "))
	}
	return nil
}
