// Package mock provides a deterministic embedder for local use and tests.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultDimensions matches all-MiniLM-L6-v2, so vectors are interchangeable
// in shape with a real model's.
const DefaultDimensions = 384

// Embedder hashes comma-separated terms into a bag-of-terms vector.
// Texts sharing terms get a positive cosine similarity; identical term sets
// get identical vectors. There is no semantic understanding.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with DefaultDimensions.
func New() *Embedder {
	return &Embedder{dimensions: DefaultDimensions}
}

// NewWithDimensions creates a mock embedder of the given size.
func NewWithDimensions(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dimensions: dims}
}

// Embed implements library.Embedder.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embedding := make([]float32, m.dimensions)

	terms := strings.Split(strings.ToLower(text), ",")
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(term))
		seed := h.Sum64()

		// Spread each term over a few slots with an LCG so collisions stay rare.
		for k := 0; k < 4; k++ {
			seed = seed*6364136223846793005 + 1442695040888963407
			embedding[seed%uint64(m.dimensions)] += 1
		}
	}

	// An empty text still needs a non-zero vector to be storable.
	if allZero(embedding) {
		embedding[0] = 1
	}

	return normalize(embedding), nil
}

// Dimensions implements library.Embedder.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

func allZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// normalize converts embedding to unit vector.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}

	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}

	return normalized
}
