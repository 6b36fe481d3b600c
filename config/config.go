// Package config loads engine settings from a YAML file.
//
// Settings not present in the file keep their defaults. A missing file is not
// an error: Load returns the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/annotation"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/bulk"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/identity"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/store/chromem"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/suggest/claude"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/taxonomy"
)

// Config is the full engine configuration.
type Config struct {
	Annotation AnnotationConfig `yaml:"annotation"`
	Bulk       BulkConfig       `yaml:"bulk"`
	Identity   IdentityConfig   `yaml:"identity"`
	Store      StoreConfig      `yaml:"store"`
	Claude     ClaudeConfig     `yaml:"claude"`

	// Taxonomy seeds an empty tag tree on startup.
	Taxonomy []TagSeed `yaml:"taxonomy,omitempty"`
}

// AnnotationConfig maps onto annotation.Config.
type AnnotationConfig struct {
	MergeFaceIoU      float64 `yaml:"merge_face_iou"`
	CreateMissingTags bool    `yaml:"create_missing_tags"`
	TrackUsage        bool    `yaml:"track_usage"`
}

// BulkConfig maps onto bulk.Config.
type BulkConfig struct {
	CreateMissingTags bool `yaml:"create_missing_tags"`
	TrackUsage        bool `yaml:"track_usage"`
}

// IdentityConfig sizes the identity cache in front of the registry.
type IdentityConfig struct {
	CacheEntries int64         `yaml:"cache_entries"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// StoreConfig configures the chromem item store.
type StoreConfig struct {
	// Path persists the item store; empty keeps it in memory.
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// ClaudeConfig maps onto claude.Config.
type ClaudeConfig struct {
	Model          string `yaml:"model"`
	MaxTokens      int64  `yaml:"max_tokens"`
	MaxPerCategory int    `yaml:"max_per_category"`
}

// TagSeed is one node of a seeded tag tree.
type TagSeed struct {
	Name     string    `yaml:"name"`
	Color    string    `yaml:"color,omitempty"`
	Children []TagSeed `yaml:"children,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Annotation: AnnotationConfig{
			MergeFaceIoU:      annotation.DefaultConfig.MergeFaceIoU,
			CreateMissingTags: annotation.DefaultConfig.CreateMissingTags,
			TrackUsage:        annotation.DefaultConfig.TrackUsage,
		},
		Bulk: BulkConfig{
			CreateMissingTags: bulk.DefaultConfig.CreateMissingTags,
			TrackUsage:        bulk.DefaultConfig.TrackUsage,
		},
		Identity: IdentityConfig{
			CacheEntries: identity.DefaultCacheConfig.MaxEntries,
			CacheTTL:     identity.DefaultCacheConfig.TTL,
		},
		Claude: ClaudeConfig{
			Model:          claude.DefaultConfig.Model,
			MaxTokens:      claude.DefaultConfig.MaxTokens,
			MaxPerCategory: claude.DefaultConfig.MaxPerCategory,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Unmarshal only overwrites keys present in the document.
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Annotation.MergeFaceIoU < 0 || c.Annotation.MergeFaceIoU > 1 {
		return fmt.Errorf("annotation.merge_face_iou must be within [0,1], got %v", c.Annotation.MergeFaceIoU)
	}
	if c.Identity.CacheEntries < 0 {
		return fmt.Errorf("identity.cache_entries must not be negative")
	}
	if c.Identity.CacheTTL < 0 {
		return fmt.Errorf("identity.cache_ttl must not be negative")
	}
	if c.Claude.MaxTokens < 0 || c.Claude.MaxPerCategory < 0 {
		return fmt.Errorf("claude limits must not be negative")
	}
	return nil
}

// AnnotationManager returns the annotation.Manager settings.
func (c *Config) AnnotationManager() *annotation.Config {
	return &annotation.Config{
		MergeFaceIoU:      c.Annotation.MergeFaceIoU,
		CreateMissingTags: c.Annotation.CreateMissingTags,
		TrackUsage:        c.Annotation.TrackUsage,
	}
}

// BulkOperator returns the bulk.Operator settings.
func (c *Config) BulkOperator() *bulk.Config {
	return &bulk.Config{
		CreateMissingTags: c.Bulk.CreateMissingTags,
		TrackUsage:        c.Bulk.TrackUsage,
	}
}

// IdentityCache returns the identity.Cached settings.
func (c *Config) IdentityCache() *identity.CacheConfig {
	return &identity.CacheConfig{
		MaxEntries: c.Identity.CacheEntries,
		TTL:        c.Identity.CacheTTL,
	}
}

// ItemStore returns the chromem store settings.
func (c *Config) ItemStore() *chromem.Config {
	return &chromem.Config{
		Path:     c.Store.Path,
		Compress: c.Store.Compress,
	}
}

// ClaudeSource returns the claude.Source settings.
func (c *Config) ClaudeSource() *claude.Config {
	return &claude.Config{
		Model:          c.Claude.Model,
		MaxTokens:      c.Claude.MaxTokens,
		MaxPerCategory: c.Claude.MaxPerCategory,
	}
}

// SeedTaxonomy adds the configured tree to s. Seeds whose name already exists
// under the same parent are reused, so seeding twice is harmless.
func (c *Config) SeedTaxonomy(s *taxonomy.Store) (int, error) {
	return seed(s, nil, c.Taxonomy)
}

func seed(s *taxonomy.Store, parentID *string, seeds []TagSeed) (int, error) {
	added := 0
	for _, sd := range seeds {
		name := strings.TrimSpace(sd.Name)
		node, found, err := childNamed(s, parentID, name)
		if err != nil {
			return added, err
		}
		if !found {
			if node, err = s.Add(parentID, name); err != nil {
				return added, fmt.Errorf("seed tag %q: %w", name, err)
			}
			added++
			if sd.Color != "" {
				if err := s.SetColor(node.ID, sd.Color); err != nil {
					return added, err
				}
			}
		}
		id := node.ID
		n, err := seed(s, &id, sd.Children)
		added += n
		if err != nil {
			return added, err
		}
	}
	return added, nil
}

func childNamed(s *taxonomy.Store, parentID *string, name string) (*taxonomy.TagNode, bool, error) {
	var siblings []*taxonomy.TagNode
	if parentID == nil {
		siblings = s.Roots()
	} else {
		var err error
		if siblings, err = s.Children(*parentID); err != nil {
			return nil, false, err
		}
	}
	for _, n := range siblings {
		if n.Name == name {
			return n, true, nil
		}
	}
	return nil, false, nil
}

// SeedsFrom exports a tag tree in the shape SeedTaxonomy reads, so an edited
// taxonomy can be written back with Save.
func SeedsFrom(s *taxonomy.Store) []TagSeed {
	var build func(nodes []*taxonomy.TagNode) []TagSeed
	build = func(nodes []*taxonomy.TagNode) []TagSeed {
		out := make([]TagSeed, 0, len(nodes))
		for _, n := range nodes {
			children, _ := s.Children(n.ID)
			sd := TagSeed{Name: n.Name, Color: n.Color}
			if len(children) > 0 {
				sd.Children = build(children)
			}
			out = append(out, sd)
		}
		return out
	}
	return build(s.Roots())
}
