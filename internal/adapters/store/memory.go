package store

import (
	"context"
	"sync"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
)

// MemoryStore implements EntryStore using an in-memory map. It does not
// survive the process; it serves as the hot tier and as a test double.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*ports.CacheEntry
	size    int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*ports.CacheEntry),
	}
}

// Get returns a copy of the entry for fp.
func (m *MemoryStore) Get(_ context.Context, fp string) (*ports.CacheEntry, error) {
	m.mu.RLock()
	entry, ok := m.entries[fp]
	m.mu.RUnlock()

	if !ok {
		return nil, ports.ErrEntryNotFound
	}
	return cloneEntry(entry), nil
}

// Put stores a copy of entry unless fp is already present.
func (m *MemoryStore) Put(_ context.Context, entry *ports.CacheEntry) error {
	if err := checkEntry(entry); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.Fingerprint]; exists {
		return nil
	}
	cp := cloneEntry(entry)
	if cp.Size == 0 {
		cp.Size = int64(len(cp.Completion.Content))
	}
	m.entries[cp.Fingerprint] = cp
	m.size += cp.Size
	return nil
}

// Has checks if fp exists.
func (m *MemoryStore) Has(_ context.Context, fp string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[fp]
	return ok
}

// Keys returns all fingerprints matching pattern.
func (m *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	match, err := keyFilter(pattern)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for fp := range m.entries {
		if match(fp) {
			keys = append(keys, fp)
		}
	}
	return sortedKeys(keys), nil
}

// Stats returns entry counts and ages.
func (m *MemoryStore) Stats(_ context.Context) (*ports.StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &ports.StoreStats{
		Backend:      "memory",
		Location:     "process",
		TotalEntries: int64(len(m.entries)),
		TotalSize:    m.size,
	}
	for _, e := range m.entries {
		if stats.OldestEntry.IsZero() || e.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = e.CreatedAt
		}
		if e.CreatedAt.After(stats.NewestEntry) {
			stats.NewestEntry = e.CreatedAt
		}
	}
	return stats, nil
}

// Clear removes all entries.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*ports.CacheEntry)
	m.size = 0
	return nil
}

// Close releases resources.
func (m *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements EntryStore
var _ ports.EntryStore = (*MemoryStore)(nil)
