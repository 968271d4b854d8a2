// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

func entry(id string) types.PersistedQuery {
	return types.PersistedQuery{Query: types.Query{ID: id}}
}

func ids(list []types.PersistedQuery) []string {
	var out []string
	for _, pq := range list {
		out = append(out, pq.Query.ID)
	}
	return out
}

func TestMemory_NewestFirstAndCapped(t *testing.T) {
	m := NewMemory(0)
	for i := 0; i < 12; i++ {
		m.Set("u1", entry(fmt.Sprintf("q%d", i)))
	}

	got := m.Get("u1")
	require.Len(t, got, DefaultSize)
	assert.Equal(t, "q11", got[0].Query.ID)
	assert.Equal(t, "q2", got[DefaultSize-1].Query.ID)
}

func TestMemory_ReplacesSameQuery(t *testing.T) {
	m := NewMemory(3)
	m.Set("u1", entry("a"))
	m.Set("u1", entry("b"))
	m.Set("u1", entry("a"))

	assert.Equal(t, []string{"a", "b"}, ids(m.Get("u1")))
}

func TestMemory_IsolatesUsers(t *testing.T) {
	m := NewMemory(3)
	m.Set("u1", entry("a"))
	m.Set("u2", entry("b"))
	m.Clear("u1")

	assert.Nil(t, m.Get("u1"))
	assert.Equal(t, []string{"b"}, ids(m.Get("u2")))
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory(3)
	m.Set("u1", entry("a"))
	got := m.Get("u1")
	got[0].Query.ID = "mutated"

	assert.Equal(t, []string{"a"}, ids(m.Get("u1")))
}

func TestMemory_Concurrent(t *testing.T) {
	m := NewMemory(5)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set("u1", entry(fmt.Sprintf("q%d", i)))
			_ = m.Get("u1")
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.Get("u1"), 5)
}
