package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"quickfind/internal/store"
)

// Mode is the search strategy picked from the pattern.
type Mode int

const (
	// ModeContains is a case-insensitive substring match ordered by filename.
	ModeContains Mode = iota
	// ModeWildcard is a case-insensitive glob match ordered by size, largest first.
	ModeWildcard
)

func (m Mode) String() string {
	if m == ModeWildcard {
		return "wildcard"
	}
	return "contains"
}

// ModeOf returns the mode pattern selects.
func ModeOf(pattern string) Mode {
	if IsWildcard(pattern) {
		return ModeWildcard
	}
	return ModeContains
}

// Result is the outcome of a search.
type Result struct {
	Records []store.FileRecord
	Mode    Mode
	// Total is the number of records in the index at query time.
	Total int
	// Empty is set when the index holds no records; a refresh is required.
	Empty bool
}

// Engine answers pattern queries against the stored snapshot.
type Engine struct {
	store store.Store
	log   *slog.Logger
}

// NewEngine returns an Engine reading from s. A nil logger means slog.Default.
func NewEngine(s store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, log: logger}
}

// Search returns at most limit records matching pattern. A non-positive
// limit yields no records. Finding nothing is not an error.
func (e *Engine) Search(ctx context.Context, pattern string, limit int) (*Result, error) {
	total, err := e.store.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count index: %w", err)
	}

	res := &Result{Mode: ModeOf(pattern), Total: total}
	if total == 0 {
		res.Empty = true
		e.log.Info("index is empty, refresh required")
		return res, nil
	}
	if limit <= 0 {
		return res, nil
	}

	e.log.Debug("searching",
		slog.String("pattern", pattern),
		slog.String("mode", res.Mode.String()),
		slog.Int("limit", limit),
		slog.Int("total", total))

	switch res.Mode {
	case ModeWildcard:
		res.Records, err = e.searchWildcard(ctx, pattern, limit)
	default:
		res.Records, err = e.store.ScanSubstring(ctx, pattern, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", pattern, err)
	}
	return res, nil
}

func (e *Engine) searchWildcard(ctx context.Context, pattern string, limit int) ([]store.FileRecord, error) {
	all, err := e.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	var matched []store.FileRecord
	for _, r := range all {
		if Match(pattern, r.Filename) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Filesize > matched[j].Filesize
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
