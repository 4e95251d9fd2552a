// file: internals/helpers/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	value     any
	expiresAt time.Time
}

type userEntries struct {
	gen     uint64
	entries map[string]entry
}

// Memory is a process-local Cache. A compute that started before an
// Invalidate for the same user is not stored, so a slow read racing a clear
// can never repopulate stale data.
type Memory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*userEntries
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{users: map[uuid.UUID]*userEntries{}, now: time.Now}
}

// WithClock swaps the time source (tests).
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) GetOrCompute(ctx context.Context, key Key, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	sub := key.Op + "|" + key.Params

	m.mu.RLock()
	var gen uint64
	if u := m.users[key.UserID]; u != nil {
		gen = u.gen
		if e, ok := u.entries[sub]; ok && m.now().Before(e.expiresAt) {
			m.mu.RUnlock()
			lookupsTotal.WithLabelValues(key.Op, "hit").Inc()
			return e.value, nil
		}
	}
	m.mu.RUnlock()
	lookupsTotal.WithLabelValues(key.Op, "miss").Inc()

	v, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return v, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[key.UserID]
	if u == nil {
		u = &userEntries{entries: map[string]entry{}}
		m.users[key.UserID] = u
	}
	if u.gen != gen {
		// invalidated while computing
		return v, nil
	}
	u.entries[sub] = entry{value: v, expiresAt: m.now().Add(ttl)}
	return v, nil
}

// Invalidate drops every entry of the user and bumps its generation.
func (m *Memory) Invalidate(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	if u == nil {
		u = &userEntries{}
		m.users[userID] = u
	}
	u.gen++
	u.entries = map[string]entry{}
	invalidationsTotal.Inc()
}

// Sweep removes expired entries and returns how many were dropped. Users with
// no entries keep their generation so in-flight computes stay fenced.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		for k, e := range u.entries {
			if !now.Before(e.expiresAt) {
				delete(u.entries, k)
				n++
			}
		}
	}
	evictedTotal.Add(float64(n))
	return n
}

// Len counts live and expired entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.users {
		n += len(u.entries)
	}
	return n
}
