package annotation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/identity"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/library"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/overlay"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/suggest"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/taxonomy"
)

// Config holds Manager configuration.
type Config struct {
	// MergeFaceIoU collapses people suggestions whose boxes overlap at least
	// this much into the most confident one before ingestion. Zero disables.
	// Default: 0.5
	MergeFaceIoU float64

	// CreateMissingTags adds newly saved names to the taxonomy as root tags.
	// Default: true
	CreateMissingTags bool

	// TrackUsage bumps taxonomy usage counts for names a commit adds to an item.
	// Default: true
	TrackUsage bool
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	MergeFaceIoU:      0.5,
	CreateMissingTags: true,
	TrackUsage:        true,
}

// Manager opens and commits annotation sessions against the external
// collaborators. Sessions themselves stay free of I/O.
type Manager struct {
	items       library.ItemStore
	suggestions suggest.Source    // Optional
	identities  identity.Registry // Optional: required by BindFace
	tags        *taxonomy.Store   // Optional: usage tracking
	config      *Config
}

// Option configures the manager.
type Option func(*Manager)

// WithSuggestions sets the source asked for candidates when a session opens.
func WithSuggestions(src suggest.Source) Option {
	return func(m *Manager) {
		m.suggestions = src
	}
}

// WithIdentities sets the identity registry used by BindFace.
func WithIdentities(r identity.Registry) Option {
	return func(m *Manager) {
		m.identities = r
	}
}

// WithTaxonomy sets the tag store that receives usage counts on commit.
func WithTaxonomy(s *taxonomy.Store) Option {
	return func(m *Manager) {
		m.tags = s
	}
}

// NewManager creates a Manager over an item store.
func NewManager(items library.ItemStore, config *Config, opts ...Option) *Manager {
	if config == nil {
		config = DefaultConfig
	}
	m := &Manager{
		items:  items,
		config: config,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session for mediaItemID seeded with the item's persisted tags
// and, when a suggestion source is configured, one batch of candidates.
// A failing suggestion source is not fatal: the session opens without candidates.
func (m *Manager) Open(ctx context.Context, mediaItemID string) (*Session, error) {
	existing, err := m.items.Tags(ctx, mediaItemID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("load tags: %w", err)
	}

	session := NewSession(mediaItemID, existing)
	if m.suggestions == nil {
		return session, nil
	}

	batch, err := m.suggestions.Suggest(ctx, mediaItemID)
	if err != nil {
		log.Printf("[ANNOTATION] Suggestion source failed for %s: %v", mediaItemID, err)
		return session, nil
	}

	for _, c := range core.Categories {
		candidates := batch[c]
		if len(candidates) == 0 {
			continue
		}
		if c == core.People && m.config.MergeFaceIoU > 0 {
			before := len(candidates)
			candidates = mergeOverlappingFaces(candidates, m.config.MergeFaceIoU)
			if merged := before - len(candidates); merged > 0 {
				log.Printf("[ANNOTATION] Merged %d overlapping face detections for %s", merged, mediaItemID)
			}
		}
		if err := session.Ingest(c, candidates); err != nil {
			return nil, fmt.Errorf("ingest %s: %w", c, err)
		}
	}

	log.Printf("[ANNOTATION] Opened session %s for %s: %d existing tags, %d candidates",
		session.ID(), mediaItemID, len(existing), batch.Len())
	return session, nil
}

// Commit persists the session's flat tag list and closes it.
// If the item store rejects the write the session stays open so the caller can retry.
func (m *Manager) Commit(ctx context.Context, s *Session) (core.FlatTagList, error) {
	out, err := s.Result()
	if err != nil {
		return nil, err
	}

	added := out[len(s.existing):]
	if len(added) > 0 {
		if err := m.items.SaveTags(ctx, s.MediaItemID(), out); err != nil {
			return nil, fmt.Errorf("save tags: %w", err)
		}
		m.recordUsage(added)
	}

	return s.Save()
}

// BindFace resolves identityID in the registry and binds the people tag to it.
func (m *Manager) BindFace(ctx context.Context, s *Session, tagID, identityID string) error {
	if m.identities == nil {
		return errors.New("no identity registry configured")
	}
	ident, err := m.identities.Resolve(ctx, identityID)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}
	return s.AssignFace(tagID, ident.ID, ident.Name)
}

// BindNewFace creates an identity named name and binds the people tag to it.
func (m *Manager) BindNewFace(ctx context.Context, s *Session, tagID, name string) (*identity.Identity, error) {
	if m.identities == nil {
		return nil, errors.New("no identity registry configured")
	}
	tag, ok := s.Get(tagID)
	if !ok {
		return nil, &core.NotFoundError{Kind: "annotation tag", ID: tagID}
	}
	if tag.Category != core.People {
		return nil, &core.ValidationError{Field: "category", Reason: "faces can only be assigned on people tags"}
	}

	ident, err := m.identities.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	if err := s.AssignFace(tagID, ident.ID, ident.Name); err != nil {
		return nil, err
	}
	return ident, nil
}

// recordUsage adds missing names to the taxonomy and bumps usage counts for
// names newly attached to an item. The two settings apply independently.
// Taxonomy failures are logged; the item has already been saved.
func (m *Manager) recordUsage(names []string) {
	if m.tags == nil {
		return
	}
	for _, name := range names {
		node, ok := m.tags.FindByName(name)
		if !ok {
			if !m.config.CreateMissingTags {
				continue
			}
			var err error
			node, err = m.tags.Add(nil, name)
			if err != nil {
				log.Printf("[ANNOTATION] Could not add tag %q to taxonomy: %v", name, err)
				continue
			}
		}
		if !m.config.TrackUsage {
			continue
		}
		if err := m.tags.IncrementUsage(node.ID, 1); err != nil {
			log.Printf("[ANNOTATION] Could not bump usage for %q: %v", name, err)
		}
	}
}

// mergeOverlappingFaces keeps the most confident of each group of people
// candidates whose boxes overlap by at least threshold IoU. Candidates without
// a box are kept as-is. Input order is preserved for the survivors.
func mergeOverlappingFaces(candidates []core.AnnotationTag, threshold float64) []core.AnnotationTag {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ca, cb := candidates[a].Confidence, candidates[b].Confidence
		switch {
		case ca > cb:
			return -1
		case ca < cb:
			return 1
		}
		return 0
	})

	keep := make([]bool, len(candidates))
	var kept []overlay.NormalizedBox
	for _, i := range order {
		c := candidates[i]
		if c.Box == nil {
			keep[i] = true
			continue
		}
		dup := false
		for _, k := range kept {
			if overlay.IoU(*c.Box, k) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			keep[i] = true
			kept = append(kept, *c.Box)
		}
	}

	out := make([]core.AnnotationTag, 0, len(candidates))
	for i, c := range candidates {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}
