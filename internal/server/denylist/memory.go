package denylist

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store. Entries are lost on restart, so it only
// suits a single instance or tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time)}
}

func (m *Memory) Revoke(_ context.Context, jti string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[jti]; ok {
		return false, nil
	}
	m.entries[jti] = expiresAt
	return true, nil
}

func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[jti]
	return ok, nil
}

func (m *Memory) Prune(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for jti, exp := range m.entries {
		if exp.Before(now) {
			delete(m.entries, jti)
			n++
		}
	}
	return n, nil
}

// Len returns the number of tracked ids.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
