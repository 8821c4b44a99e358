package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryTarget is an in-memory Target for tests and dry runs.
type MemoryTarget struct {
	mu      sync.RWMutex
	baseURL string
	files   map[string][]byte
	puts    int
}

// NewMemoryTarget creates an empty in-memory target.
func NewMemoryTarget(baseURL string) *MemoryTarget {
	return &MemoryTarget{baseURL: baseURL, files: make(map[string][]byte)}
}

// Put stores a copy of data.
func (m *MemoryTarget) Put(_ context.Context, group, name string, data []byte) (Object, error) {
	if err := validateKey(group, name); err != nil {
		return Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++

	key := group + "/" + name
	obj := Object{URL: URLFor(m.baseURL, group, name), Hash: hashOf(data), Size: int64(len(data))}
	if existing, ok := m.files[key]; ok && hashOf(existing) == obj.Hash {
		return obj, nil
	}
	m.files[key] = append([]byte(nil), data...)
	obj.Changed = true
	return obj, nil
}

// Get returns a copy of a stored file.
func (m *MemoryTarget) Get(_ context.Context, group, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[group+"/"+name]
	if !ok {
		return nil, ErrNotFound{Key: group + "/" + name}
	}
	return append([]byte(nil), data...), nil
}

// Keys returns the stored "<group>/<name>" keys, sorted.
func (m *MemoryTarget) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Puts returns the number of Put calls.
func (m *MemoryTarget) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// Close is a no-op.
func (m *MemoryTarget) Close() error { return nil }
