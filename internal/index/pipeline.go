package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"quickfind/internal/store"
	"quickfind/internal/walker"

	"golang.org/x/sync/errgroup"
)

type itemKind int

const (
	itemRootStarted itemKind = iota
	itemRootMissing
	itemEntry
)

// item is what the walk stage hands to the store stage. Root events travel
// on the same channel so they are reported in walk order.
type item struct {
	kind  itemKind
	root  string
	err   error
	entry walker.Entry
}

// runPipeline walks every root in one goroutine and writes the entries to
// the batch in another. Entries are consumed in walk order, so the result
// equals a sequential walk.
func (idx *Indexer) runPipeline(ctx context.Context, roots []string, batch store.Batch, sum *Summary) error {
	items := make(chan item, 256)
	g, gctx := errgroup.WithContext(ctx)

	// Stage 1: Walk
	g.Go(func() error {
		defer close(items)
		return idx.walkRoots(gctx, roots, items)
	})

	// Stage 2: Store. The batch keeps the parent context: gctx is cancelled
	// when Wait returns, which would roll back the transaction opened by the
	// last Flush.
	g.Go(func() error {
		for it := range items {
			if err := idx.consume(ctx, it, batch, sum); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

func (idx *Indexer) walkRoots(ctx context.Context, roots []string, out chan<- item) error {
	send := func(it item) error {
		select {
		case out <- it:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	opts := walker.Options{SkipDirs: idx.config.SkipDirs}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err == nil && !info.IsDir() {
			err = fmt.Errorf("%s: not a directory", root)
		}
		if err != nil {
			if sendErr := send(item{kind: itemRootMissing, root: root, err: err}); sendErr != nil {
				return sendErr
			}
			continue
		}

		if err := send(item{kind: itemRootStarted, root: root}); err != nil {
			return err
		}
		err = walker.Walk(ctx, root, opts, func(e walker.Entry) error {
			return send(item{kind: itemEntry, root: root, entry: e})
		})
		if errors.Is(err, walker.ErrRootUnreadable) {
			if sendErr := send(item{kind: itemRootMissing, root: root, err: err}); sendErr != nil {
				return sendErr
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return nil
}

func (idx *Indexer) consume(ctx context.Context, it item, batch store.Batch, sum *Summary) error {
	switch it.kind {
	case itemRootMissing:
		sum.MissingRoots = append(sum.MissingRoots, it.root)
		idx.log.Warn("root not found, skipping", slog.String("root", it.root), slog.String("error", it.err.Error()))
		idx.emit(Event{Kind: EventRootMissing, Root: it.root, Err: it.err})
		return nil

	case itemRootStarted:
		idx.log.Debug("scanning root", slog.String("root", it.root))
		idx.emit(Event{Kind: EventRootStarted, Root: it.root, Indexed: sum.Indexed})
		return nil
	}

	e := it.entry
	switch outcome := Classify(e.Err); outcome {
	case OutcomeSkippedPermission:
		sum.SkippedPermission++
		idx.log.Debug("skipping file", slog.String("path", e.Path), slog.String("outcome", outcome.String()))
		return nil
	case OutcomeSkippedError:
		sum.addError(e.Path, e.Err)
		idx.log.Warn("skipping file",
			slog.String("path", e.Path),
			slog.String("outcome", outcome.String()),
			slog.String("error", e.Err.Error()))
		return nil
	}

	rec := store.FileRecord{
		Filename:     e.Name,
		Filepath:     e.Path,
		Filesize:     e.Size,
		LastModified: e.ModTime,
		IndexedAt:    sum.IndexedAt,
	}
	if err := batch.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("store %s: %w", e.Path, err)
	}
	sum.Indexed++

	if sum.Indexed%idx.config.BatchSize == 0 {
		if err := batch.Flush(ctx); err != nil {
			return fmt.Errorf("flush batch: %w", err)
		}
		idx.emit(Event{Kind: EventBatch, Root: it.root, Indexed: sum.Indexed})
	}
	return nil
}
