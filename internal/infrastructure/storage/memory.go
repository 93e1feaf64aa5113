package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryObjectStorage keeps objects in process. It backs tests and
// deployments without a bucket; presigned URLs use the memory:// scheme.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	prefix  string
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage(prefix string) *MemoryObjectStorage {
	return &MemoryObjectStorage{objects: make(map[string]memoryObject), prefix: prefix}
}

// Key prefixes name with the configured key prefix.
func (m *MemoryObjectStorage) Key(tenantID uuid.UUID, number, ext string) string {
	return QuoteKey(m.prefix, tenantID, number, ext)
}

// Put stores a copy of data.
func (m *MemoryObjectStorage) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Get returns the stored bytes and content type.
func (m *MemoryObjectStorage) Get(key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return obj.data, obj.contentType, nil
}

// Exists reports whether key is present.
func (m *MemoryObjectStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// PresignGet returns a memory:// URL for an existing key.
func (m *MemoryObjectStorage) PresignGet(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", ErrObjectNotFound
	}
	return "memory://" + key, nil
}
