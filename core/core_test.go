package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/overlay"
)

func TestErrorsMatchSentinels(t *testing.T) {
	wrapped := fmt.Errorf("move tag: %w", &CycleError{ID: "a", NewParentID: "b"})
	assert.ErrorIs(t, wrapped, ErrCycle)
	assert.NotErrorIs(t, wrapped, ErrValidation)

	var cycle *CycleError
	assert.True(t, errors.As(wrapped, &cycle))
	assert.Equal(t, "b", cycle.NewParentID)

	assert.ErrorIs(t, &ValidationError{Field: "name", Reason: "empty"}, ErrValidation)
	assert.ErrorIs(t, &NotFoundError{Kind: "tag", ID: "x"}, ErrNotFound)
	assert.EqualError(t, &NotFoundError{Kind: "tag", ID: "x"}, `tag "x" not found`)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierHigh, TierFor(1))
	assert.Equal(t, TierHigh, TierFor(0.90))
	assert.Equal(t, TierMedium, TierFor(0.89))
	assert.Equal(t, TierMedium, TierFor(0.70))
	assert.Equal(t, TierLow, TierFor(0.69))
	assert.Equal(t, TierLow, TierFor(0))
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		assert.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCategory("pets")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClone(t *testing.T) {
	d := time.Date(2021, 11, 4, 0, 0, 0, 0, time.UTC)
	in := 0.4
	orig := AnnotationTag{
		Name: "Diwali",
		Box:  &overlay.NormalizedBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2},
		Meta: Meta{Date: &d, Intensity: &in, Coordinates: &Coordinates{Lat: 15.5, Lng: 73.8}},
	}

	cp := orig.Clone()
	cp.Box.X = 0.9
	*cp.Meta.Date = d.AddDate(1, 0, 0)
	*cp.Meta.Intensity = 1
	cp.Meta.Coordinates.Lat = 0

	assert.Equal(t, 0.1, orig.Box.X)
	assert.Equal(t, d, *orig.Meta.Date)
	assert.Equal(t, 0.4, *orig.Meta.Intensity)
	assert.Equal(t, 15.5, orig.Meta.Coordinates.Lat)
}
