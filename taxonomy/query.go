package taxonomy

import (
	"iter"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// PathSeparator joins tag names into a path such as "Family/Cousins".
const PathSeparator = "/"

// Get returns a copy of the tag with the given id.
func (s *Store) Get(id string) (*TagNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "tag", ID: id}
	}
	return node.clone(), nil
}

// Len returns the number of tags in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Roots returns the root tags in insertion order.
func (s *Store) Roots() []*TagNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.children[rootKey])
}

// Children returns the direct children of id in insertion order.
// The slice is built on every call; callers must not hold on to it across edits.
func (s *Store) Children(id string) ([]*TagNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, &core.NotFoundError{Kind: "tag", ID: id}
	}
	return s.collect(s.children[id]), nil
}

// Descendants returns every tag below id, depth first.
func (s *Store) Descendants(id string) ([]*TagNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, &core.NotFoundError{Kind: "tag", ID: id}
	}
	var out []*TagNode
	s.walk(s.children[id], 1, func(n *TagNode, _ int) bool {
		out = append(out, n.clone())
		return true
	})
	return out, nil
}

// Nodes returns every tag in insertion order.
func (s *Store) Nodes() []*TagNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.order)
}

// Path returns the names from the root down to id, joined by PathSeparator.
func (s *Store) Path(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return "", &core.NotFoundError{Kind: "tag", ID: id}
	}
	return s.path(id), nil
}

// FindByName returns the tag whose name matches exactly. Flat tag names carry
// no path, so a root tag wins; otherwise the first nested match in insertion
// order is returned.
func (s *Store) FindByName(name string) (*TagNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.children[rootKey] {
		if n := s.nodes[id]; n.Name == name {
			return n.clone(), true
		}
	}
	for _, id := range s.order {
		if n := s.nodes[id]; n.Name == name {
			return n.clone(), true
		}
	}
	return nil, false
}

// Search yields tags whose name contains query, ignoring case, in insertion order.
// Matches are captured when iteration starts; each call returns a fresh sequence.
func (s *Store) Search(query string) iter.Seq[*TagNode] {
	needle := strings.ToLower(strings.TrimSpace(query))
	return func(yield func(*TagNode) bool) {
		s.mu.RLock()
		var matches []*TagNode
		for _, id := range s.order {
			n := s.nodes[id]
			if strings.Contains(strings.ToLower(n.Name), needle) {
				matches = append(matches, n.clone())
			}
		}
		s.mu.RUnlock()

		for _, n := range matches {
			if !yield(n) {
				return
			}
		}
	}
}

// Glob returns tags whose path matches a doublestar pattern, e.g. "Family/**".
func (s *Store) Glob(pattern string) ([]*TagNode, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, &core.ValidationError{Field: "pattern", Reason: doublestar.ErrBadPattern.Error()}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*TagNode
	for _, id := range s.order {
		ok, err := doublestar.Match(pattern, s.path(id))
		if err != nil {
			return nil, &core.ValidationError{Field: "pattern", Reason: err.Error()}
		}
		if ok {
			out = append(out, s.nodes[id].clone())
		}
	}
	return out, nil
}

// Walk visits every tag depth first, roots and siblings in insertion order.
// Returning false from fn stops the walk. Depth is 0 for roots.
// fn receives copies and runs without the store lock held.
func (s *Store) Walk(fn func(node *TagNode, depth int) bool) {
	type visit struct {
		node  *TagNode
		depth int
	}
	var visits []visit

	s.mu.RLock()
	s.walk(s.children[rootKey], 0, func(n *TagNode, depth int) bool {
		visits = append(visits, visit{node: n.clone(), depth: depth})
		return true
	})
	s.mu.RUnlock()

	for _, v := range visits {
		if !fn(v.node, v.depth) {
			return
		}
	}
}

func (s *Store) walk(ids []string, depth int, fn func(*TagNode, int) bool) bool {
	for _, id := range ids {
		if !fn(s.nodes[id], depth) {
			return false
		}
		if !s.walk(s.children[id], depth+1, fn) {
			return false
		}
	}
	return true
}

func (s *Store) path(id string) string {
	var names []string
	for cur, ok := s.nodes[id]; ok; {
		names = append(names, cur.Name)
		if cur.ParentID == nil {
			break
		}
		cur, ok = s.nodes[*cur.ParentID]
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, PathSeparator)
}

func (s *Store) collect(ids []string) []*TagNode {
	out := make([]*TagNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id].clone())
	}
	return out
}
