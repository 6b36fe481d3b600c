package annotation

import (
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// ErrSessionClosed is returned by operations on a saved or discarded session.
var ErrSessionClosed = errors.New("annotation session is closed")

// StateCounts tallies the tags of one category by review state.
type StateCounts struct {
	Pending  int
	Accepted int
	Rejected int
}

// Session is the working set of annotation tags for one media item.
type Session struct {
	id          string
	mediaItemID string
	openedAt    time.Time
	existing    core.FlatTagList
	tags        map[core.Category][]*core.AnnotationTag
	byID        map[string]*core.AnnotationTag
	closed      bool
}

// NewSession opens a session for mediaItemID. existing is the item's persisted
// flat tag list; it is kept as-is and forms the base of the list built by Save.
func NewSession(mediaItemID string, existing []string) *Session {
	return &Session{
		id:          uuid.New().String(),
		mediaItemID: mediaItemID,
		openedAt:    time.Now(),
		existing:    append(core.FlatTagList(nil), existing...),
		tags:        make(map[core.Category][]*core.AnnotationTag),
		byID:        make(map[string]*core.AnnotationTag),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// MediaItemID returns the item under review.
func (s *Session) MediaItemID() string { return s.mediaItemID }

// OpenedAt returns when the session was created.
func (s *Session) OpenedAt() time.Time { return s.openedAt }

// Closed reports whether Save or Discard has been called.
func (s *Session) Closed() bool { return s.closed }

// Existing returns a copy of the persisted tag list the session was opened with.
func (s *Session) Existing() core.FlatTagList {
	return append(core.FlatTagList(nil), s.existing...)
}

// Ingest appends suggestions to category. Every suggestion enters the pending
// state regardless of its confidence. Duplicate names are kept; they collapse
// when Save builds the flat list.
func (s *Session) Ingest(category core.Category, suggestions []core.AnnotationTag) error {
	if s.closed {
		return ErrSessionClosed
	}
	if !category.Valid() {
		return &core.ValidationError{Field: "category", Reason: string(category)}
	}

	for _, sug := range suggestions {
		tag := sug.Clone()
		tag.Name = strings.TrimSpace(tag.Name)
		if tag.Name == "" {
			log.Printf("[ANNOTATION] Skipping unnamed %s suggestion for %s", category, s.mediaItemID)
			continue
		}
		if tag.ID == "" || s.byID[tag.ID] != nil {
			tag.ID = uuid.New().String()
		}
		tag.Category = category
		tag.State = core.StatePending
		if tag.Source != core.SourceExisting {
			tag.Source = core.SourceAI
		}
		tag.Confidence = clampUnit(tag.Confidence)
		if tag.Box != nil {
			box := tag.Box.Clamp()
			tag.Box = &box
		}
		if tag.Meta.Intensity != nil {
			v := clampUnit(*tag.Meta.Intensity)
			tag.Meta.Intensity = &v
		}
		s.add(&tag)
	}
	return nil
}

// SeedExisting records previously persisted tags of a known category as
// accepted tags with source "existing", so the review UI can show them.
func (s *Session) SeedExisting(category core.Category, names ...string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if !category.Valid() {
		return &core.ValidationError{Field: "category", Reason: string(category)}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.add(&core.AnnotationTag{
			ID:         uuid.New().String(),
			Category:   category,
			Name:       name,
			Confidence: 1.0,
			Source:     core.SourceExisting,
			State:      core.StateAccepted,
		})
	}
	return nil
}

// AddCustom adds a user-authored tag. It starts accepted with full confidence.
func (s *Session) AddCustom(category core.Category, name string) (*core.AnnotationTag, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if !category.Valid() {
		return nil, &core.ValidationError{Field: "category", Reason: string(category)}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &core.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	tag := &core.AnnotationTag{
		ID:         uuid.New().String(),
		Category:   category,
		Name:       name,
		Confidence: 1.0,
		Source:     core.SourceUser,
		State:      core.StateAccepted,
	}
	s.add(tag)
	out := tag.Clone()
	return &out, nil
}

// Accept marks a tag accepted. Unknown ids are ignored and report false.
func (s *Session) Accept(tagID string) bool {
	return s.apply(tagID, ActionAccept)
}

// Reject marks a tag rejected. Unknown ids are ignored and report false.
func (s *Session) Reject(tagID string) bool {
	return s.apply(tagID, ActionReject)
}

// AcceptAll accepts every pending tag in category and returns how many changed.
func (s *Session) AcceptAll(category core.Category) int {
	return s.applyPending(category, ActionAccept)
}

// RejectAll rejects every pending tag in category and returns how many changed.
func (s *Session) RejectAll(category core.Category) int {
	return s.applyPending(category, ActionReject)
}

// AssignFace binds a people tag to an identity from the registry. The tag is
// renamed to resolvedName and accepted. The identity must already exist; the
// session only records the binding. Unknown tag ids are ignored.
func (s *Session) AssignFace(tagID, identityID, resolvedName string) error {
	if s.closed {
		return ErrSessionClosed
	}
	tag, ok := s.byID[tagID]
	if !ok {
		return nil
	}
	if tag.Category != core.People {
		return &core.ValidationError{Field: "category", Reason: "faces can only be assigned on people tags"}
	}
	resolvedName = strings.TrimSpace(resolvedName)
	if identityID == "" || resolvedName == "" {
		return &core.ValidationError{Field: "identity", Reason: "id and name are required"}
	}

	tag.Meta.IdentityID = identityID
	tag.Name = resolvedName
	tag.State = Transition(tag.State, ActionAccept)
	return nil
}

// RemoveFace rejects a people tag, e.g. a detected face that is a false positive.
func (s *Session) RemoveFace(tagID string) bool {
	tag, ok := s.byID[tagID]
	if !ok || tag.Category != core.People {
		return false
	}
	return s.apply(tagID, ActionReject)
}

// Get returns a copy of the tag with the given id.
func (s *Session) Get(tagID string) (core.AnnotationTag, bool) {
	tag, ok := s.byID[tagID]
	if !ok {
		return core.AnnotationTag{}, false
	}
	return tag.Clone(), true
}

// Tags returns copies of the tags in category, in ingestion order.
func (s *Session) Tags(category core.Category) []core.AnnotationTag {
	return lo.Map(s.tags[category], func(t *core.AnnotationTag, _ int) core.AnnotationTag {
		return t.Clone()
	})
}

// ByTier groups the tags of category by confidence tier.
func (s *Session) ByTier(category core.Category) map[core.Tier][]core.AnnotationTag {
	return lo.GroupBy(s.Tags(category), func(t core.AnnotationTag) core.Tier {
		return t.Tier()
	})
}

// Counts tallies every category's tags by state.
func (s *Session) Counts() map[core.Category]StateCounts {
	counts := make(map[core.Category]StateCounts, len(core.Categories))
	for _, c := range core.Categories {
		var sc StateCounts
		for _, t := range s.tags[c] {
			switch t.State {
			case core.StatePending:
				sc.Pending++
			case core.StateAccepted:
				sc.Accepted++
			case core.StateRejected:
				sc.Rejected++
			}
		}
		counts[c] = sc
	}
	return counts
}

// Result builds the flat tag list Save would return without closing the session.
// The persisted list comes first, unchanged; accepted names not already in it
// follow in category order, then ingestion order. Matching is exact.
func (s *Session) Result() (core.FlatTagList, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	out := append(core.FlatTagList(nil), s.existing...)
	seen := lo.SliceToMap(out, func(name string) (string, struct{}) {
		return name, struct{}{}
	})
	for _, c := range core.Categories {
		for _, t := range s.tags[c] {
			if t.State != core.StateAccepted {
				continue
			}
			if _, dup := seen[t.Name]; dup {
				continue
			}
			seen[t.Name] = struct{}{}
			out = append(out, t.Name)
		}
	}
	return out, nil
}

// Save returns the item's new flat tag list and closes the session.
// Pending and rejected tags are dropped.
func (s *Session) Save() (core.FlatTagList, error) {
	out, err := s.Result()
	if err != nil {
		return nil, err
	}
	s.close()
	log.Printf("[ANNOTATION] Saved session %s for %s: %d tags (%d before)",
		s.id, s.mediaItemID, len(out), len(s.existing))
	return out, nil
}

// Discard closes the session without producing a tag list.
func (s *Session) Discard() {
	if s.closed {
		return
	}
	s.close()
	log.Printf("[ANNOTATION] Discarded session %s for %s", s.id, s.mediaItemID)
}

func (s *Session) add(tag *core.AnnotationTag) {
	s.tags[tag.Category] = append(s.tags[tag.Category], tag)
	s.byID[tag.ID] = tag
}

func (s *Session) apply(tagID string, a Action) bool {
	if s.closed {
		return false
	}
	tag, ok := s.byID[tagID]
	if !ok {
		return false
	}
	tag.State = Transition(tag.State, a)
	return true
}

func (s *Session) applyPending(category core.Category, a Action) int {
	if s.closed {
		return 0
	}
	n := 0
	for _, t := range s.tags[category] {
		if t.State == core.StatePending {
			t.State = Transition(t.State, a)
			n++
		}
	}
	return n
}

func (s *Session) close() {
	s.closed = true
	s.tags = nil
	s.byID = nil
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
