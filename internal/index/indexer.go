package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"quickfind/internal/store"

	"github.com/google/uuid"
)

// DefaultBatchSize is the number of indexed files committed per transaction.
const DefaultBatchSize = 1000

// Config holds the indexer configuration.
type Config struct {
	// BatchSize is the commit cadence; progress is reported at the same rate.
	BatchSize int
	// SkipDirs are directory names pruned in addition to the built-in list.
	SkipDirs []string
	// DefaultRoots are scanned when Refresh is called without roots.
	// Nil means DefaultRoots().
	DefaultRoots []string
	Logger       *slog.Logger
	OnProgress   ProgressFunc
	// Now stamps the pass. Defaults to time.Now.
	Now func() time.Time
}

// Indexer rebuilds the file index snapshot.
type Indexer struct {
	store  store.Store
	config Config
	log    *slog.Logger
}

// DefaultRoots returns the user's home directory plus the macOS
// application folders.
func DefaultRoots() []string {
	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, home)
	}
	return append(roots, "/Applications", "/System/Applications")
}

// New creates an Indexer writing to s.
func New(s store.Store, cfg Config) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.DefaultRoots == nil {
		cfg.DefaultRoots = DefaultRoots()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:  s,
		config: cfg,
		log:    logger,
	}
}

// Refresh replaces the stored snapshot with the files currently found under
// roots. Missing roots and unreadable files are recorded in the summary;
// only store failures abort the pass.
func (idx *Indexer) Refresh(ctx context.Context, roots []string) (*Summary, error) {
	if len(roots) == 0 {
		roots = idx.config.DefaultRoots
	}
	resolved, err := absRoots(roots)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sum := &Summary{
		RunID:     uuid.NewString(),
		Roots:     resolved,
		IndexedAt: idx.config.Now(),
	}
	idx.log.Info("refresh started",
		slog.String("run", sum.RunID),
		slog.Any("roots", resolved),
		slog.Int("batch_size", idx.config.BatchSize))

	if err := idx.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}

	batch, err := idx.store.BeginBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}

	if err := idx.runPipeline(ctx, resolved, batch, sum); err != nil {
		_ = batch.Rollback()
		return sum, err
	}
	if err := batch.Commit(); err != nil {
		return sum, fmt.Errorf("final commit: %w", err)
	}
	sum.Elapsed = time.Since(start)

	err = idx.store.RecordRun(ctx, store.RefreshRun{
		ID:         sum.RunID,
		Roots:      sum.Roots,
		StartedAt:  sum.IndexedAt,
		FinishedAt: sum.IndexedAt.Add(sum.Elapsed),
		Indexed:    sum.Indexed,
		Skipped:    sum.Skipped(),
		Errors:     sum.SkippedError,
	})
	if err != nil {
		return sum, fmt.Errorf("record run: %w", err)
	}

	idx.log.Info("refresh finished",
		slog.String("run", sum.RunID),
		slog.Int("indexed", sum.Indexed),
		slog.Int("skipped", sum.Skipped()),
		slog.Duration("elapsed", sum.Elapsed))
	idx.emit(Event{Kind: EventDone, Indexed: sum.Indexed, Elapsed: sum.Elapsed})
	return sum, nil
}

func absRoots(roots []string) ([]string, error) {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", r, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

func (idx *Indexer) emit(e Event) {
	if idx.config.OnProgress != nil {
		idx.config.OnProgress(e)
	}
}
