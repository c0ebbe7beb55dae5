package store

import (
	"context"
	"sync"
)

// Memory is an in-process KV used by tests and ephemeral sessions.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	// FailWith, when set, is returned by every call.
	FailWith error
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get implements KV.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return nil, false, m.FailWith
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put implements KV.
func (m *Memory) Put(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for k, v := range entries {
		cp := make([]byte, len(v))
		copy(cp, v)
		m.entries[k] = cp
	}
	return nil
}
