// Package taxonomy owns the hierarchical tag forest.
//
// Nodes reference their parent by id; children are never embedded in a node.
// The store keeps an index from parent id to child ids, maintained on every
// mutation, so listing children never reads a stale copy. The store is shared
// by every open annotation session and guarded by a read/write mutex.
//
// Structural edits (Add, Rename, Delete, Move) validate first and mutate
// second: a returned error always means the store is unchanged.
package taxonomy

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// TagNode is one entry in the taxonomy.
type TagNode struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	UsageCount int       `json:"usage_count" yaml:"usage_count"`
	Color      string    `json:"color" yaml:"color"`
	ParentID   *string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// IsRoot reports whether the node has no parent.
func (n *TagNode) IsRoot() bool {
	return n.ParentID == nil
}

func (n *TagNode) clone() *TagNode {
	c := *n
	if n.ParentID != nil {
		p := *n.ParentID
		c.ParentID = &p
	}
	return &c
}

// DefaultPalette is cycled through when a tag is added without a colour.
var DefaultPalette = []string{"#007AFF", "#34C759", "#FF9500", "#AF52DE", "#FF2D55", "#5AC8FA"}

// rootKey indexes root nodes in the children map.
const rootKey = ""

// Store is the in-memory tag forest.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*TagNode
	order    []string            // insertion order of node ids
	children map[string][]string // parent id (rootKey for roots) -> child ids
	palette  []string
	next     int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:    make(map[string]*TagNode),
		children: make(map[string][]string),
		palette:  DefaultPalette,
	}
}

// Add creates a tag under parentID, or at the root when parentID is nil.
// Names are trimmed and may not contain PathSeparator.
func (s *Store) Add(parentID *string, name string) (*TagNode, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := rootKey
	if parentID != nil {
		if _, ok := s.nodes[*parentID]; !ok {
			return nil, &core.NotFoundError{Kind: "tag", ID: *parentID}
		}
		key = *parentID
	}
	if s.siblingNamed(key, name, "") {
		return nil, &core.ValidationError{Field: "name", Reason: fmt.Sprintf("%q already exists here", name)}
	}

	node := &TagNode{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     s.nextColor(),
		CreatedAt: time.Now(),
	}
	if parentID != nil {
		p := *parentID
		node.ParentID = &p
	}
	s.insert(node)

	log.Printf("[TAXONOMY] Added tag %q (id=%s, parent=%s)", name, node.ID, key)
	return node.clone(), nil
}

// Rename changes a tag's name. Renaming to the current name is a no-op.
func (s *Store) Rename(id, newName string) error {
	newName, err := cleanName(newName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &core.NotFoundError{Kind: "tag", ID: id}
	}
	if node.Name == newName {
		return nil
	}
	if s.siblingNamed(parentKey(node), newName, id) {
		return &core.ValidationError{Field: "name", Reason: fmt.Sprintf("%q already exists here", newName)}
	}

	log.Printf("[TAXONOMY] Renamed tag %s: %q -> %q", id, node.Name, newName)
	node.Name = newName
	return nil
}

// Delete removes a tag and all of its descendants, children before parents.
// It returns the number of nodes removed.
func (s *Store) Delete(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return 0, &core.NotFoundError{Kind: "tag", ID: id}
	}

	removed := s.deleteSubtree(id)
	s.compactOrder()

	log.Printf("[TAXONOMY] Deleted tag %s and %d descendants", id, removed-1)
	return removed, nil
}

// Move reparents a tag. A nil newParentID moves the tag to the root.
// Moving a tag under itself or any of its descendants fails with a CycleError.
func (s *Store) Move(id string, newParentID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &core.NotFoundError{Kind: "tag", ID: id}
	}

	key := rootKey
	if newParentID != nil {
		if *newParentID == id {
			return &core.CycleError{ID: id, NewParentID: *newParentID}
		}
		if _, ok := s.nodes[*newParentID]; !ok {
			return &core.NotFoundError{Kind: "tag", ID: *newParentID}
		}
		if s.isAncestor(id, *newParentID) {
			return &core.CycleError{ID: id, NewParentID: *newParentID}
		}
		key = *newParentID
	}

	oldKey := parentKey(node)
	if oldKey == key {
		return nil
	}
	if s.siblingNamed(key, node.Name, id) {
		return &core.ValidationError{Field: "name", Reason: fmt.Sprintf("%q already exists at destination", node.Name)}
	}

	s.children[oldKey] = removeID(s.children[oldKey], id)
	if len(s.children[oldKey]) == 0 {
		delete(s.children, oldKey)
	}
	s.children[key] = append(s.children[key], id)
	if newParentID == nil {
		node.ParentID = nil
	} else {
		p := *newParentID
		node.ParentID = &p
	}

	log.Printf("[TAXONOMY] Moved tag %s from %q to %q", id, oldKey, key)
	return nil
}

// SetColor changes a tag's display colour.
func (s *Store) SetColor(id, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &core.NotFoundError{Kind: "tag", ID: id}
	}
	node.Color = color
	return nil
}

// IncrementUsage adjusts a tag's usage count by delta. Counts never drop below zero.
func (s *Store) IncrementUsage(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &core.NotFoundError{Kind: "tag", ID: id}
	}
	node.UsageCount += delta
	if node.UsageCount < 0 {
		node.UsageCount = 0
	}
	return nil
}

// Load replaces the store's contents with nodes, typically read back from a
// persisted taxonomy. Parents may appear after their children in the input.
// The input is rejected as a whole if it names a missing parent, repeats an id,
// holds an invalid name, repeats a name among siblings, or contains a cycle.
func (s *Store) Load(nodes []TagNode) error {
	byID := make(map[string]*TagNode, len(nodes))
	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return &core.ValidationError{Field: "id", Reason: "must not be empty"}
		}
		if _, dup := byID[n.ID]; dup {
			return &core.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %q", n.ID)}
		}
		name, err := cleanName(n.Name)
		if err != nil {
			return err
		}
		n.Name = name
		if n.UsageCount < 0 {
			n.UsageCount = 0
		}
		byID[n.ID] = n.clone()
	}

	fresh := &Store{
		nodes:    byID,
		children: make(map[string][]string),
		palette:  s.palette,
	}
	for _, n := range nodes {
		if n.ParentID != nil {
			if _, ok := byID[*n.ParentID]; !ok {
				return &core.NotFoundError{Kind: "tag", ID: *n.ParentID}
			}
		}
		key := parentKey(&n)
		if fresh.siblingNamed(key, byID[n.ID].Name, "") {
			return &core.ValidationError{Field: "name", Reason: fmt.Sprintf("%q appears twice under one parent", byID[n.ID].Name)}
		}
		fresh.order = append(fresh.order, n.ID)
		fresh.children[key] = append(fresh.children[key], n.ID)
	}
	if err := fresh.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = fresh.nodes
	s.order = fresh.order
	s.children = fresh.children

	log.Printf("[TAXONOMY] Loaded %d tags", len(nodes))
	return nil
}

// Validate checks the forest invariant, sibling name uniqueness and the
// consistency of the child index.
func (s *Store) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validate()
}

func (s *Store) validate() error {
	indexed := 0
	for key, ids := range s.children {
		names := make(map[string]bool, len(ids))
		for _, id := range ids {
			n, ok := s.nodes[id]
			if !ok {
				return fmt.Errorf("child index references missing tag %s", id)
			}
			if parentKey(n) != key {
				return fmt.Errorf("tag %s indexed under %q but parent is %q", id, key, parentKey(n))
			}
			if names[n.Name] {
				return &core.ValidationError{Field: "name", Reason: fmt.Sprintf("%q appears twice under %q", n.Name, key)}
			}
			names[n.Name] = true
			indexed++
		}
	}
	if indexed != len(s.nodes) {
		return fmt.Errorf("child index holds %d ids for %d tags", indexed, len(s.nodes))
	}
	for id := range s.nodes {
		seen := map[string]bool{id: true}
		for cur := s.nodes[id]; cur.ParentID != nil; {
			pid := *cur.ParentID
			if seen[pid] {
				return &core.CycleError{ID: id, NewParentID: pid}
			}
			seen[pid] = true
			parent, ok := s.nodes[pid]
			if !ok {
				return &core.NotFoundError{Kind: "tag", ID: pid}
			}
			cur = parent
		}
	}
	return nil
}

func (s *Store) insert(node *TagNode) {
	s.nodes[node.ID] = node
	s.order = append(s.order, node.ID)
	key := parentKey(node)
	s.children[key] = append(s.children[key], node.ID)
}

func (s *Store) deleteSubtree(id string) int {
	removed := 0
	for _, child := range append([]string(nil), s.children[id]...) {
		removed += s.deleteSubtree(child)
	}
	node := s.nodes[id]
	key := parentKey(node)
	s.children[key] = removeID(s.children[key], id)
	if len(s.children[key]) == 0 {
		delete(s.children, key)
	}
	delete(s.children, id)
	delete(s.nodes, id)
	return removed + 1
}

func (s *Store) compactOrder() {
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.nodes[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

// isAncestor reports whether ancestor lies on the parent chain of id.
func (s *Store) isAncestor(ancestor, id string) bool {
	for steps := 0; steps <= len(s.nodes); steps++ {
		node, ok := s.nodes[id]
		if !ok || node.ParentID == nil {
			return false
		}
		if *node.ParentID == ancestor {
			return true
		}
		id = *node.ParentID
	}
	return false
}

func (s *Store) siblingNamed(key, name, except string) bool {
	for _, id := range s.children[key] {
		if id != except && s.nodes[id].Name == name {
			return true
		}
	}
	return false
}

func (s *Store) nextColor() string {
	if len(s.palette) == 0 {
		return ""
	}
	c := s.palette[s.next%len(s.palette)]
	s.next++
	return c
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", &core.ValidationError{Field: "name", Reason: "must not be empty"}
	case strings.Contains(name, PathSeparator):
		return "", &core.ValidationError{Field: "name", Reason: fmt.Sprintf("must not contain %q", PathSeparator)}
	}
	return name, nil
}

func parentKey(n *TagNode) string {
	if n.ParentID == nil {
		return rootKey
	}
	return *n.ParentID
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
