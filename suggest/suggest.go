// Package suggest defines the boundary to producers of candidate annotation tags.
//
// A Source is asked once per session open and returns one batch per media item.
// The engine never polls or streams; whatever the source returns is ingested
// into the session as pending tags.
package suggest

import (
	"context"
	"sync"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// Batch holds candidate tags grouped by category.
type Batch map[core.Category][]core.AnnotationTag

// Len returns the number of candidates across all categories.
func (b Batch) Len() int {
	n := 0
	for _, tags := range b {
		n += len(tags)
	}
	return n
}

// Source produces candidate tags for a media item.
// Implementations: Static (fixtures), claude.Source (suggest/claude).
type Source interface {
	Suggest(ctx context.Context, mediaItemID string) (Batch, error)
}

// Func adapts a function to the Source interface.
type Func func(ctx context.Context, mediaItemID string) (Batch, error)

// Suggest calls f.
func (f Func) Suggest(ctx context.Context, mediaItemID string) (Batch, error) {
	return f(ctx, mediaItemID)
}

// Static serves pre-computed batches keyed by media item id.
// Items without a batch get an empty one.
type Static struct {
	mu      sync.RWMutex
	batches map[string]Batch
}

// NewStatic creates a Static source.
func NewStatic(batches map[string]Batch) *Static {
	if batches == nil {
		batches = make(map[string]Batch)
	}
	return &Static{batches: batches}
}

// Put replaces the batch for an item.
func (s *Static) Put(mediaItemID string, b Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[mediaItemID] = b
}

// Suggest returns copies of the stored candidates.
func (s *Static) Suggest(_ context.Context, mediaItemID string) (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Batch)
	for c, tags := range s.batches[mediaItemID] {
		cp := make([]core.AnnotationTag, len(tags))
		for i, t := range tags {
			cp[i] = t.Clone()
		}
		out[c] = cp
	}
	return out, nil
}
