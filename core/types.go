// Package core defines the annotation data model and error taxonomy shared by
// the taxonomy, annotation, bulk and carousel packages.
package core

import (
	"fmt"
	"time"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/overlay"
)

// Category scopes an annotation tag to one kind of detected feature.
type Category string

const (
	People    Category = "people"
	Objects   Category = "objects"
	Locations Category = "locations"
	Events    Category = "events"
	Emotions  Category = "emotions"
	Text      Category = "text"
)

// Categories lists every category in display order.
// Save and listing operations iterate categories in this order.
var Categories = []Category{People, Objects, Locations, Events, Emotions, Text}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", s)}
	}
	return c, nil
}

// Source records who produced an annotation tag.
type Source string

const (
	SourceAI       Source = "ai"
	SourceUser     Source = "user"
	SourceExisting Source = "existing"
)

// State is the review state of an annotation tag.
type State string

const (
	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
)

// Tier buckets confidence scores for display and triage.
// Tiers are advisory: nothing is rejected automatically for a low score.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tier thresholds.
const (
	HighConfidence   = 0.90
	MediumConfidence = 0.70
)

// TierFor returns the confidence tier for a score.
func TierFor(confidence float64) Tier {
	switch {
	case confidence >= HighConfidence:
		return TierHigh
	case confidence >= MediumConfidence:
		return TierMedium
	default:
		return TierLow
	}
}

// Coordinates is a geographic position attached to a location tag.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Meta carries the category-specific fields of an annotation tag.
// Only the fields relevant to the tag's category are meaningful.
type Meta struct {
	IdentityID  string       `json:"identity_id,omitempty"` // people
	Address     string       `json:"address,omitempty"`     // locations
	Coordinates *Coordinates `json:"coordinates,omitempty"` // locations
	Date        *time.Time   `json:"date,omitempty"`        // events
	Intensity   *float64     `json:"intensity,omitempty"`   // emotions, in [0,1]
	Recognized  string       `json:"recognized,omitempty"`  // text
}

// AnnotationTag is a candidate or confirmed label attached to one media item.
type AnnotationTag struct {
	ID         string                 `json:"id"`
	Category   Category               `json:"category"`
	Name       string                 `json:"name"`
	Confidence float64                `json:"confidence"`
	Source     Source                 `json:"source"`
	State      State                  `json:"state"`
	Box        *overlay.NormalizedBox `json:"box,omitempty"`
	Meta       Meta                   `json:"meta"`
}

// Tier returns the confidence tier of the tag.
func (t AnnotationTag) Tier() Tier {
	return TierFor(t.Confidence)
}

// Clone returns a deep copy of the tag.
func (t AnnotationTag) Clone() AnnotationTag {
	if t.Box != nil {
		box := *t.Box
		t.Box = &box
	}
	if t.Meta.Coordinates != nil {
		c := *t.Meta.Coordinates
		t.Meta.Coordinates = &c
	}
	if t.Meta.Date != nil {
		d := *t.Meta.Date
		t.Meta.Date = &d
	}
	if t.Meta.Intensity != nil {
		i := *t.Meta.Intensity
		t.Meta.Intensity = &i
	}
	return t
}

// FlatTagList is the persisted, de-duplicated list of tag names on a media item.
type FlatTagList []string
