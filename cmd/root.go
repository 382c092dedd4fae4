// Package cmd provides the CLI commands for quickfind.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"quickfind/internal/config"
	"quickfind/internal/logging"
	"quickfind/internal/store"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X quickfind/cmd.Version=...".
var Version = "dev"

// app carries the flag values and the resolved settings shared by all commands.
type app struct {
	configPath string
	dbPath     string
	driver     string
	logLevel   string

	settings config.Config
	logger   *slog.Logger
	cleanup  func()
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "quickfind",
		Short: "Fast local file lookup backed by a cached index",
		Long: `quickfind walks a set of directories once, records every file's name,
path, size and modification time in a local SQLite index, and answers
lookups from that index without touching the filesystem again.

Run 'quickfind refresh' to build the index, then 'quickfind search <pattern>'.
Patterns containing * or ? are wildcards matched against the filename;
anything else is a case-insensitive substring match.`,
		Version:            Version,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", config.DefaultDBPath, "index database path")
	cmd.PersistentFlags().StringVar(&a.driver, "driver", config.DefaultDriver, "sqlite driver: sqlite3 (cgo) or sqlite (pure Go)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newRefreshCmd(a),
		newSearchCmd(a),
		newStatusCmd(a),
		newBrowseCmd(a),
		newMCPCmd(a),
	)
	return cmd
}

// Execute runs the CLI. Ctrl-C cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// setup loads the config file, applies flag overrides and installs the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = a.dbPath
	}
	if flags.Changed("driver") {
		cfg.Driver = a.driver
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.File,
		Output:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)

	a.settings = cfg
	a.logger = logger
	a.cleanup = cleanup
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
	return nil
}

// openStore opens the index database, creating its directory if needed.
func (a *app) openStore(ctx context.Context) (*store.SQLiteStore, string, error) {
	dbPath, err := a.settings.ResolveDBPath()
	if err != nil {
		return nil, "", err
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, "", fmt.Errorf("create db directory: %w", err)
		}
	}

	st, err := store.Open(ctx, dbPath, store.WithDriver(a.settings.Driver))
	if err != nil {
		return nil, "", fmt.Errorf("open index %s: %w", dbPath, err)
	}
	a.logger.Debug("opened index", slog.String("path", dbPath), slog.String("driver", st.Driver()))
	return st, dbPath, nil
}
