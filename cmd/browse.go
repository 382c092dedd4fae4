package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"quickfind/internal/index"
	"quickfind/internal/logging"
	"quickfind/internal/query"
	"quickfind/internal/store"
	"quickfind/internal/tui"

	"github.com/spf13/cobra"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Search the index interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, dbPath, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			// Stderr lines would corrupt the alternate screen; keep only the log file.
			logger, cleanup, err := logging.Setup(logging.Config{
				Level:    a.settings.Logging.Level,
				FilePath: a.settings.Logging.File,
				Output:   io.Discard,
			})
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			defer cleanup()
			a.logger = logger

			return tui.Run(tui.Config{
				Store:   st,
				Engine:  query.NewEngine(st, a.logger),
				Limit:   a.settings.Search.DefaultLimit,
				Refresh: a.refreshFunc(st, dbPath),
			})
		},
	}
}

// refreshFunc runs a locked refresh over the configured roots.
func (a *app) refreshFunc(st store.Store, dbPath string) tui.RefreshFunc {
	return func(ctx context.Context, fn index.ProgressFunc) (*index.Summary, error) {
		if dbPath != ":memory:" {
			lock := store.NewLock(dbPath)
			if err := lock.TryLock(); err != nil {
				return nil, fmt.Errorf("refresh %s: %w", dbPath, err)
			}
			defer lock.Unlock()
			a.logger.Debug("acquired refresh lock", slog.String("path", lock.Path()))
		}
		idx := index.New(st, index.Config{
			BatchSize:  a.settings.BatchSize,
			SkipDirs:   a.settings.SkipDirs,
			Logger:     a.logger,
			OnProgress: fn,
		})
		return idx.Refresh(ctx, a.settings.Roots)
	}
}
