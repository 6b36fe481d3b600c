// Package bulk applies tag sets across many media items at once.
//
// Every item is updated independently: a failure on one item is reported in
// its Result and does not roll back the others. Applying the same tag set
// twice leaves items exactly as the first application did.
package bulk

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/lo"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/library"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/taxonomy"
)

// Result is the outcome for one item.
type Result struct {
	MemoryID string
	Tags     []string // the item's tags after the operation
	Added    []string // names that were not on the item before (Apply)
	Removed  []string // names taken off the item (Remove)
	Changed  bool
	Err      error
}

// Config holds Operator configuration.
type Config struct {
	// CreateMissingTags adds applied names that are not yet in the taxonomy as root tags.
	// Default: true
	CreateMissingTags bool

	// TrackUsage adjusts taxonomy usage counts by the number of items each name
	// was added to or removed from.
	// Default: true
	TrackUsage bool
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	CreateMissingTags: true,
	TrackUsage:        true,
}

// Operator applies tag sets to items in an ItemStore.
type Operator struct {
	items  library.ItemStore
	tags   *taxonomy.Store // Optional
	config *Config
}

// New creates an Operator. tags may be nil, in which case the taxonomy is
// neither consulted nor updated.
func New(items library.ItemStore, tags *taxonomy.Store, config *Config) *Operator {
	if config == nil {
		config = DefaultConfig
	}
	return &Operator{
		items:  items,
		tags:   tags,
		config: config,
	}
}

// CreateTag adds a root tag to the taxonomy.
func (o *Operator) CreateTag(name string) (*taxonomy.TagNode, error) {
	if o.tags == nil {
		return nil, fmt.Errorf("create tag %q: no taxonomy configured", name)
	}
	return o.tags.Add(nil, name)
}

// Apply adds names to every item in memoryIDs. Each item's new list is its
// existing tags followed by the names it lacked, in the order given. Matching
// is exact. Items that already carry every name are not written.
//
// Empty memoryIDs or names is a no-op reporting zero results. The returned
// error is non-nil only when ctx is done; per-item failures go in Result.Err.
// Usage counts always reflect the items written before ctx was done.
func (o *Operator) Apply(ctx context.Context, memoryIDs, names []string) ([]Result, error) {
	ids, names := normalize(memoryIDs), normalize(names)
	if len(ids) == 0 || len(names) == 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(ids))
	added := make(map[string]int)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			o.recordUsage(names, added, true)
			return results, err
		}

		res := o.applyOne(ctx, id, names)
		for _, name := range res.Added {
			added[name]++
		}
		results = append(results, res)
	}

	o.recordUsage(names, added, true)
	log.Printf("[BULK] Applied %d tags to %d items (%d changed)",
		len(names), len(ids), countChanged(results))
	return results, nil
}

// Remove takes names off every item in memoryIDs. The remaining tags keep
// their order. Items carrying none of the names are not written.
func (o *Operator) Remove(ctx context.Context, memoryIDs, names []string) ([]Result, error) {
	ids, names := normalize(memoryIDs), normalize(names)
	if len(ids) == 0 || len(names) == 0 {
		return nil, nil
	}

	drop := lo.SliceToMap(names, func(n string) (string, struct{}) { return n, struct{}{} })
	results := make([]Result, 0, len(ids))
	removed := make(map[string]int)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			o.recordUsage(names, removed, false)
			return results, err
		}

		res := Result{MemoryID: id}
		existing, err := o.items.Tags(ctx, id)
		if err != nil {
			res.Err = fmt.Errorf("load tags: %w", err)
			results = append(results, res)
			continue
		}

		kept, gone := lo.FilterReject(existing, func(t string, _ int) bool {
			_, hit := drop[t]
			return !hit
		})
		res.Tags = kept
		res.Removed = lo.Uniq(gone)
		if len(gone) > 0 {
			if err := o.items.SaveTags(ctx, id, kept); err != nil {
				res.Err = fmt.Errorf("save tags: %w", err)
				res.Tags = existing
				res.Removed = nil
			} else {
				res.Changed = true
				for _, name := range res.Removed {
					removed[name]++
				}
			}
		}
		results = append(results, res)
	}

	o.recordUsage(names, removed, false)
	log.Printf("[BULK] Removed %d tags from %d items (%d changed)",
		len(names), len(ids), countChanged(results))
	return results, nil
}

func (o *Operator) applyOne(ctx context.Context, id string, names []string) Result {
	res := Result{MemoryID: id}

	existing, err := o.items.Tags(ctx, id)
	if err != nil {
		res.Err = fmt.Errorf("load tags: %w", err)
		return res
	}

	merged, added := union(existing, names)
	res.Tags = merged
	if len(added) == 0 {
		return res
	}

	if err := o.items.SaveTags(ctx, id, merged); err != nil {
		res.Err = fmt.Errorf("save tags: %w", err)
		res.Tags = existing
		return res
	}
	res.Added = added
	res.Changed = true
	return res
}

// recordUsage adjusts taxonomy usage counts by how many items each name was
// added to (or removed from). Taxonomy failures are logged; items are already saved.
func (o *Operator) recordUsage(names []string, counts map[string]int, adding bool) {
	if o.tags == nil {
		return
	}
	for _, name := range names {
		node, ok := o.tags.FindByName(name)
		if !ok {
			if !adding || !o.config.CreateMissingTags {
				continue
			}
			var err error
			if node, err = o.tags.Add(nil, name); err != nil {
				log.Printf("[BULK] Could not add tag %q to taxonomy: %v", name, err)
				continue
			}
		}
		n := counts[name]
		if !o.config.TrackUsage || n == 0 {
			continue
		}
		if !adding {
			n = -n
		}
		if err := o.tags.IncrementUsage(node.ID, n); err != nil {
			log.Printf("[BULK] Could not update usage for %q: %v", name, err)
		}
	}
}

// union returns existing followed by the names it lacks, and those names.
func union(existing, names []string) (merged, added []string) {
	have := lo.SliceToMap(existing, func(t string) (string, struct{}) { return t, struct{}{} })
	merged = append([]string(nil), existing...)
	for _, name := range names {
		if _, ok := have[name]; ok {
			continue
		}
		have[name] = struct{}{}
		merged = append(merged, name)
		added = append(added, name)
	}
	return merged, added
}

// normalize trims, drops empties and dedupes, keeping first occurrences.
func normalize(in []string) []string {
	trimmed := lo.Map(in, func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Uniq(lo.Compact(trimmed))
}

func countChanged(results []Result) int {
	return lo.CountBy(results, func(r Result) bool { return r.Changed })
}
