// Package chromem stores media items' tag lists in a chromem-go collection.
//
// Each memory is one document: its id is the memory id, its content the JSON
// tag list, and its embedding the embedder's vector for the joined tag names.
// Besides serving as a library.ItemStore, the collection answers "which other
// memories are tagged like this one" through Similar.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/library"
)

// CollectionName is the chromem collection holding memory documents.
const CollectionName = "memories"

// Config configures the store.
type Config struct {
	// Path persists the database to a directory. Empty keeps everything in memory.
	Path string

	// Compress gzips persisted files.
	Compress bool
}

// Store wraps chromem-go as a library.ItemStore.
type Store struct {
	db       *chromem.DB
	col      *chromem.Collection
	embedder library.Embedder
	mu       sync.Mutex // serializes read-modify-write of documents
}

// Match is a memory returned by Similar.
type Match struct {
	MemoryID   string
	Tags       []string
	Similarity float32
}

// New creates a chromem-backed store. A nil config keeps the database in memory.
func New(embedder library.Embedder, config *Config) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if config != nil && config.Path != "" {
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(CollectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{
		db:       db,
		col:      col,
		embedder: embedder,
	}, nil
}

// Tags implements library.ItemStore.
func (s *Store) Tags(ctx context.Context, memoryID string) ([]string, error) {
	doc, err := s.col.GetByID(ctx, memoryID)
	if err != nil {
		return nil, &core.NotFoundError{Kind: "memory", ID: memoryID}
	}
	return decodeTags(doc.Content)
}

// SaveTags implements library.ItemStore.
func (s *Store) SaveTags(ctx context.Context, memoryID string, tags []string) error {
	if memoryID == "" {
		return &core.ValidationError{Field: "memory id", Reason: "must not be empty"}
	}

	content, err := json.Marshal(append([]string{}, tags...))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	embedding, err := s.embedder.Embed(ctx, strings.Join(tags, ", "))
	if err != nil {
		return fmt.Errorf("embed tags: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// AddDocument overwrites any document with the same id, on disk too.
	doc := chromem.Document{
		ID:        memoryID,
		Content:   string(content),
		Embedding: embedding,
		Metadata: map[string]string{
			"tag_count":  strconv.Itoa(len(tags)),
			"updated_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	log.Printf("[CHROMEM] Stored %d tags for memory %s", len(tags), memoryID)
	return nil
}

// Similar returns up to limit memories whose tag lists are closest to tags,
// most similar first.
func (s *Store) Similar(ctx context.Context, tags []string, limit int) ([]Match, error) {
	count := s.col.Count()
	if count == 0 || limit <= 0 {
		return nil, nil
	}
	if limit > count {
		// chromem-go requires nResults <= collection size
		limit = count
	}

	embedding, err := s.embedder.Embed(ctx, strings.Join(tags, ", "))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for i, r := range results {
		decoded, err := decodeTags(r.Content)
		if err != nil {
			log.Printf("[CHROMEM] Skipping result #%d: %v", i+1, err)
			continue
		}
		matches = append(matches, Match{MemoryID: r.ID, Tags: decoded, Similarity: r.Similarity})
	}
	return matches, nil
}

// Count returns the number of stored memories.
func (s *Store) Count() int {
	return s.col.Count()
}

// Close releases resources. chromem-go writes through on every change, so
// there is nothing to flush.
func (s *Store) Close() error {
	return nil
}

func decodeTags(content string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(content), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return tags, nil
}
