package cmd

import (
	"fmt"

	"quickfind/internal/query"

	"github.com/spf13/cobra"
)

const emptyIndexHint = "Index is empty, run 'quickfind refresh' first"

func newSearchCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search the index by filename",
		Long: `Search the index by filename.

A pattern containing * or ? is a wildcard matched against the whole
filename, case-insensitively; results are ordered largest first.
Any other pattern matches filenames containing it, ordered by name.`,
		Example: `  quickfind search report
  quickfind search "*.pdf" --limit 10
  quickfind search "IMG_????.jpg"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.settings.Search.DefaultLimit
			}
			return a.runSearch(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of results")
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, pattern string, limit int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	st := newStyles(out)

	s, _, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := query.NewEngine(s, a.logger)
	res, err := engine.Search(ctx, pattern, limit)
	if err != nil {
		return err
	}

	if res.Empty {
		fmt.Fprintln(out, st.warn.Render(emptyIndexHint))
		return nil
	}

	fmt.Fprintln(out, st.dim.Render(fmt.Sprintf("Searching %d files...", res.Total)))
	if res.Mode == query.ModeWildcard {
		fmt.Fprintln(out, st.dim.Render("Wildcard search: "+pattern))
	}
	printResults(out, st, res.Records)
	return nil
}
