// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps a per-user mirror of recently persisted queries so
// callers can re-display results without a datastore round trip.
package cache

import (
	"sync"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// DefaultSize is the number of queries kept per user.
const DefaultSize = 10

// Cache is the mirror capability used by the persistence bridge and the
// orchestrator.
type Cache interface {
	// Get returns userID's entries, newest first. The slice is a copy.
	Get(userID string) []types.PersistedQuery
	// Set records pq as userID's newest entry, replacing an entry with the
	// same query id.
	Set(userID string, pq types.PersistedQuery)
	// Clear drops every entry for userID.
	Clear(userID string)
}

// Memory is a mutex-guarded in-process Cache.
type Memory struct {
	mu     sync.Mutex
	size   int
	byUser map[string][]types.PersistedQuery
}

// NewMemory creates a cache keeping size entries per user. A non-positive
// size uses DefaultSize.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{size: size, byUser: make(map[string][]types.PersistedQuery)}
}

func (m *Memory) Get(userID string) []types.PersistedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.byUser[userID]
	if len(entries) == 0 {
		return nil
	}
	out := make([]types.PersistedQuery, len(entries))
	copy(out, entries)
	return out
}

func (m *Memory) Set(userID string, pq types.PersistedQuery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]types.PersistedQuery, 0, m.size)
	entries = append(entries, pq)
	for _, e := range m.byUser[userID] {
		if e.Query.ID == pq.Query.ID {
			continue
		}
		if len(entries) == m.size {
			break
		}
		entries = append(entries, e)
	}
	m.byUser[userID] = entries
}

func (m *Memory) Clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
}
