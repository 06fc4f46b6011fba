// Package cache provides taskguard.Cache implementations for permission
// lookups: a TTL map, an expiring LRU and a Redis-backed shared cache.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yaseralshikh/taskguard"
)

var _ taskguard.Cache = (*Memory)(nil)

// Memory is an in-memory TTL cache with a soft size limit.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	gens    generations
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type memoryEntry struct {
	allowed   bool
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates an in-memory cache. Defaults: 5 minute TTL, 10000
// entries.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, tenantID string, key taskguard.PermissionKey) (bool, bool) {
	k := entryKey(tenantID, key)
	m.mu.RLock()
	e, ok := m.entries[k]
	m.mu.RUnlock()
	if !ok {
		return false, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, k)
		m.mu.Unlock()
		return false, false
	}
	return e.allowed, true
}

func (m *Memory) Stamp(_ context.Context, tenantID string, key taskguard.PermissionKey) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens.stamp(tenantID, key.UserID)
}

func (m *Memory) Set(_ context.Context, tenantID string, key taskguard.PermissionKey, stamp string, allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens.stamp(tenantID, key.UserID) != stamp {
		return
	}

	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}
	m.entries[entryKey(tenantID, key)] = memoryEntry{allowed: allowed, expiresAt: m.now().Add(m.ttl)}
}

func (m *Memory) InvalidateTenant(_ context.Context, tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens.bumpTenant(tenantID)
	m.deletePrefix(tenantID + "|")
}

func (m *Memory) InvalidateUser(_ context.Context, tenantID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens.bumpUser(tenantID, userID)
	m.deletePrefix(tenantID + "|" + userID + "|")
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// deletePrefix drops matching entries. Caller holds the write lock.
func (m *Memory) deletePrefix(prefix string) {
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// evictExpired removes expired entries. Caller holds the write lock.
func (m *Memory) evictExpired() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes an arbitrary entry. Caller holds the write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}

// entryKey is "tenant|user|permission|scope"; the user segment comes
// second so InvalidateUser can match by prefix.
func entryKey(tenantID string, key taskguard.PermissionKey) string {
	return tenantID + "|" + key.String()
}
