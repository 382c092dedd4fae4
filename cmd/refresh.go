package cmd

import (
	"fmt"
	"log/slog"

	"quickfind/internal/index"
	"quickfind/internal/store"

	"github.com/spf13/cobra"
)

func newRefreshCmd(a *app) *cobra.Command {
	var paths []string

	cmd := &cobra.Command{
		Use:   "refresh [--paths DIR ...]",
		Short: "Rebuild the file index",
		Long: `Rebuild the file index from scratch.

The existing index is cleared, then every file under the given directories
is recorded. Hidden directories and common build or VCS directories
(node_modules, __pycache__, .git, .svn) are not descended into.

Without --paths the roots come from the config file, or default to the
home directory plus /Applications and /System/Applications.`,
		Example: `  quickfind refresh
  quickfind refresh --paths ~/Documents ~/Downloads
  quickfind refresh --paths ~/src --paths /opt/data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := append(append([]string{}, paths...), args...)
			return a.runRefresh(cmd, roots)
		},
	}

	// Each value is one path; commas are valid in directory names.
	cmd.Flags().StringArrayVar(&paths, "paths", nil, "directories to scan")
	return cmd
}

func (a *app) runRefresh(cmd *cobra.Command, roots []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(roots) == 0 {
		roots = a.settings.Roots
	}

	st, dbPath, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if dbPath != ":memory:" {
		lock := store.NewLock(dbPath)
		if err := lock.TryLock(); err != nil {
			return fmt.Errorf("refresh %s: %w", dbPath, err)
		}
		defer lock.Unlock()
		a.logger.Debug("acquired refresh lock", slog.String("path", lock.Path()))
	}

	progress := newProgressPrinter(out)
	fmt.Fprintln(out, "Refreshing file index...")

	idx := index.New(st, index.Config{
		BatchSize:  a.settings.BatchSize,
		SkipDirs:   a.settings.SkipDirs,
		Logger:     a.logger,
		OnProgress: progress.handle,
	})
	sum, err := idx.Refresh(ctx, roots)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	progress.summary(sum)
	return nil
}
