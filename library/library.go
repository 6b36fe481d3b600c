// Package library defines the persistence boundary for media items ("memories").
//
// The annotation and bulk packages never touch storage directly; they read an
// item's flat tag list and hand back the updated list through ItemStore.
//
// Implementations:
//   - MemStore: map-backed store for local use and tests
//   - chromem.Store (store/chromem): embedded document store with tag similarity
package library

import (
	"context"
	"sync"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// ItemStore reads and writes the flat tag list of a media item.
type ItemStore interface {
	// Tags returns the item's persisted tags. Missing items return a NotFoundError.
	Tags(ctx context.Context, memoryID string) ([]string, error)

	// SaveTags replaces the item's tag list.
	SaveTags(ctx context.Context, memoryID string, tags []string) error
}

// Embedder converts text to vector embeddings for similarity lookups.
// Implementations: mock.Embedder (embedder/mock), onnx.Embedder (embedder/onnx).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// MemStore is an in-memory ItemStore.
type MemStore struct {
	mu    sync.RWMutex
	items map[string][]string
}

// NewMemStore creates a store seeded with items (memory id -> tags).
func NewMemStore(items map[string][]string) *MemStore {
	m := &MemStore{items: make(map[string][]string, len(items))}
	for id, tags := range items {
		m.items[id] = append([]string(nil), tags...)
	}
	return m
}

// Tags returns a copy of the item's tags.
func (m *MemStore) Tags(_ context.Context, memoryID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags, ok := m.items[memoryID]
	if !ok {
		return nil, &core.NotFoundError{Kind: "memory", ID: memoryID}
	}
	return append([]string(nil), tags...), nil
}

// SaveTags stores a copy of tags, creating the item if needed.
func (m *MemStore) SaveTags(_ context.Context, memoryID string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[memoryID] = append([]string(nil), tags...)
	return nil
}
