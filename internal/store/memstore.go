package store

import (
	"fmt"
	"sort"
	"sync"
)

// MemStore implements Store in memory, for tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	runs   map[string]*RunRecord // keyed by run_id
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextID: 1, runs: make(map[string]*RunRecord)}
}

func (m *MemStore) SaveRun(rec *RunRecord) (int64, error) {
	if rec.RunID == "" {
		return 0, fmt.Errorf("save run: run_id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt == "" {
		rec.CreatedAt = nowUTC()
	}
	cp := *rec
	if prev, ok := m.runs[rec.RunID]; ok {
		cp.ID = prev.ID
	} else {
		cp.ID = m.nextID
		m.nextID++
	}
	m.runs[rec.RunID] = &cp
	rec.ID = cp.ID
	return cp.ID, nil
}

func (m *MemStore) GetRun(runID string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MemStore) ListRuns(limit int) ([]*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*RunRecord, 0, len(m.runs))
	for _, rec := range m.runs {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) Close() error { return nil }
