package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// MEMORY STORE - In-memory Store implementation
// =============================================================================

// Memory is a thread-safe in-memory job store. Suitable for a single portal
// instance; swap in a shared store for multi-instance deployments.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]Job)}
}

func (m *Memory) Put(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	// Copy slices so callers can't mutate stored state.
	job.DocumentIDs = append([]string(nil), job.DocumentIDs...)
	job.Missing = append([]string(nil), job.Missing...)
	return &job, nil
}

func (m *Memory) List(_ context.Context) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		result = append(result, job)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, job := range m.jobs {
		if job.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed, nil
}
