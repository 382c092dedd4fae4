package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-memory Store. Records do not survive Close.
// Substring matching folds case with Unicode rules, whereas SQLite's LIKE
// folds ASCII only.
type MemStore struct {
	mu    sync.RWMutex
	files map[string]FileRecord
	runs  []RefreshRun
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string]FileRecord)}
}

func (m *MemStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *MemStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]FileRecord)
	return nil
}

func (m *MemStore) Upsert(ctx context.Context, rec FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[rec.Filepath] = rec
	return nil
}

func (m *MemStore) BeginBatch(ctx context.Context) (Batch, error) {
	return &memBatch{store: m, pending: make(map[string]FileRecord)}, nil
}

func (m *MemStore) CountAll(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files), nil
}

func (m *MemStore) ScanAll(ctx context.Context) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FileRecord, 0, len(m.files))
	for _, r := range m.files {
		out = append(out, r)
	}
	return out, nil
}

func (m *MemStore) ScanSubstring(ctx context.Context, fragment string, limit int) ([]FileRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	needle := strings.ToLower(fragment)

	m.mu.RLock()
	var out []FileRecord
	for _, r := range m.files {
		if strings.Contains(strings.ToLower(r.Filename), needle) {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Filename != out[j].Filename {
			return out[i].Filename < out[j].Filename
		}
		return out[i].Filepath < out[j].Filepath
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) MaxIndexedAt(ctx context.Context) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		latest time.Time
		found  bool
	)
	for _, r := range m.files {
		if !found || r.IndexedAt.After(latest) {
			latest = r.IndexedAt
			found = true
		}
	}
	return latest, found, nil
}

func (m *MemStore) RecordRun(ctx context.Context, run RefreshRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *MemStore) LastRun(ctx context.Context) (*RefreshRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *RefreshRun
	for i := range m.runs {
		if last == nil || m.runs[i].FinishedAt.After(last.FinishedAt) {
			last = &m.runs[i]
		}
	}
	if last == nil {
		return nil, nil
	}
	run := *last
	return &run, nil
}

func (m *MemStore) Close() error { return nil }

type memBatch struct {
	store   *MemStore
	pending map[string]FileRecord
	done    bool
}

func (b *memBatch) Upsert(ctx context.Context, rec FileRecord) error {
	if b.done {
		return errBatchDone
	}
	b.pending[rec.Filepath] = rec
	return nil
}

func (b *memBatch) Flush(ctx context.Context) error {
	if b.done {
		return errBatchDone
	}
	b.apply()
	return nil
}

func (b *memBatch) Commit() error {
	if b.done {
		return errBatchDone
	}
	b.apply()
	b.done = true
	return nil
}

func (b *memBatch) Rollback() error {
	b.pending = nil
	b.done = true
	return nil
}

func (b *memBatch) apply() {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for k, v := range b.pending {
		b.store.files[k] = v
	}
	b.pending = make(map[string]FileRecord)
}
