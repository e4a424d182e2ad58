// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// manager.go provides the process-local TTL cache (L1) used by the category
// service. Entries are derived, disposable copies of query results; every
// key shares the TTL fixed at construction.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTLMinutes is the category cache lifetime used when none is configured.
const DefaultTTLMinutes = 60

// now is indirected so tests can move the clock.
var now = time.Now

// Entry is a cached payload with its absolute expiry.
type Entry struct {
	Data      any
	ExpiresAt time.Time
}

// valid reports whether the entry is still live at t.
func (e Entry) valid(t time.Time) bool {
	return t.Before(e.ExpiresAt)
}

// Manager is an in-memory, string-keyed TTL cache. No operation can fail.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
}

// NewManager creates a cache whose entries live for ttlMinutes.
// A non-positive value falls back to DefaultTTLMinutes.
func NewManager(ttlMinutes int) *Manager {
	if ttlMinutes <= 0 {
		ttlMinutes = DefaultTTLMinutes
	}
	return &Manager{
		entries: make(map[string]Entry),
		ttl:     time.Duration(ttlMinutes) * time.Minute,
	}
}

// TTL returns the lifetime applied to every entry.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the cached value for key. An expired entry is evicted and
// reported as a miss.
func (m *Manager) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.valid(now()) {
		return e.Data, true
	}

	m.mu.Lock()
	// Re-check: a concurrent Set may have refreshed the entry.
	if cur, ok := m.entries[key]; ok && !cur.valid(now()) {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil, false
}

// Set stores value under key, replacing any existing entry.
func (m *Manager) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Data: value, ExpiresAt: now().Add(m.ttl)}
}

// Invalidate removes one entry. Missing keys are ignored.
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// InvalidateAll removes every entry.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
}

// Size returns the number of stored entries, including expired entries
// that have not been swept yet.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cleanup evicts every entry whose expiry is at or before now and returns
// how many were removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := now()
	removed := 0
	for k, e := range m.entries {
		if !e.valid(t) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup every interval until ctx is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Cleanup(); n > 0 {
					slog.Debug("category cache swept", "evicted", n, "size", m.Size())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Get is the typed form of Manager.Get. A stored value of another type is
// reported as a miss.
func Get[T any](m *Manager, key string) (T, bool) {
	var zero T
	v, ok := m.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
