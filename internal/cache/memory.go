package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a process-local LRU cache with optional per-entry TTL.
// Eviction is size-bounded (entry count) and age-bounded; the underlying
// LRU is safe for concurrent use.
type Memory struct {
	lru *expirable.LRU[string, *Entry]
}

// NewMemory returns an in-memory store holding at most maxEntries
// artifacts, each expiring after ttl (zero disables expiry).
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Memory{lru: expirable.NewLRU[string, *Entry](maxEntries, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, bool) {
	return m.lru.Get(key)
}

func (m *Memory) Put(_ context.Context, entry *Entry) error {
	m.lru.Add(entry.Key, entry)
	return nil
}

func (m *Memory) Close() error { return nil }
