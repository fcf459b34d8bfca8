package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in a process-local map. Safe for concurrent use.
// Expiry is checked lazily on read; there is no background sweeper because the
// working set is one entry per active browser session.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]memoryEntry
	ttl       time.Duration
}

type memoryEntry struct {
	snapshot Snapshot
	storedAt time.Time
}

// NewMemoryStore creates an in-memory snapshot store. A ttl of 0 keeps
// snapshots until overwritten.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]memoryEntry),
		ttl:       ttl,
	}
}

func (m *MemoryStore) Put(_ context.Context, sessionID string, snapshot Snapshot) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[sessionID] = memoryEntry{snapshot: snapshot, storedAt: time.Now()}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (Snapshot, bool, error) {
	if sessionID == "" {
		return Snapshot{}, false, errors.New("session id required")
	}
	m.mu.RLock()
	entry, ok := m.snapshots[sessionID]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	if m.ttl > 0 && time.Since(entry.storedAt) > m.ttl {
		m.mu.Lock()
		// Recheck under the write lock; another Put may have refreshed it.
		if current, still := m.snapshots[sessionID]; still && current.storedAt.Equal(entry.storedAt) {
			delete(m.snapshots, sessionID)
		}
		m.mu.Unlock()
		return Snapshot{}, false, nil
	}
	return entry.snapshot, true, nil
}
