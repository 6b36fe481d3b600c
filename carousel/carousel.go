// Package carousel walks a flat queue of AI suggestions one at a time.
//
// The queue spans many media items and is independent of any annotation
// session. Decisions go to a Handler at the integration boundary; the queue
// itself never changes, so a second pass reviews the same suggestions again.
// A Carousel is not safe for concurrent use.
package carousel

import (
	"context"
	"fmt"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/annotation"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// Suggestion is one queued candidate.
type Suggestion struct {
	ID          string
	MediaItemID string
	Name        string
	Category    core.Category
	Confidence  float64
}

// Tier returns the suggestion's confidence tier.
func (s Suggestion) Tier() core.Tier {
	return core.TierFor(s.Confidence)
}

// Handler receives a decision on a suggestion.
type Handler func(ctx context.Context, s Suggestion, decision annotation.Action) error

// Carousel is a circular cursor over a fixed suggestion queue.
type Carousel struct {
	items   []Suggestion
	handler Handler
	cursor  int
}

// New creates a carousel positioned on the first suggestion. A nil handler
// accepts every decision without doing anything.
func New(items []Suggestion, handler Handler) *Carousel {
	if handler == nil {
		handler = func(context.Context, Suggestion, annotation.Action) error { return nil }
	}
	return &Carousel{
		items:   append([]Suggestion(nil), items...),
		handler: handler,
	}
}

// Len returns the queue length.
func (c *Carousel) Len() int { return len(c.items) }

// Current returns the suggestion under the cursor. ok is false for an empty queue.
func (c *Carousel) Current() (s Suggestion, ok bool) {
	if len(c.items) == 0 {
		return Suggestion{}, false
	}
	return c.items[c.cursor], true
}

// Position returns the zero-based cursor index and the queue length.
func (c *Carousel) Position() (index, total int) {
	return c.cursor, len(c.items)
}

// Accept reports an accept decision on the current suggestion and advances.
func (c *Carousel) Accept(ctx context.Context) error {
	return c.decide(ctx, annotation.ActionAccept)
}

// Reject reports a reject decision on the current suggestion and advances.
func (c *Carousel) Reject(ctx context.Context) error {
	return c.decide(ctx, annotation.ActionReject)
}

// Next advances the cursor without a decision, wrapping to the first suggestion.
func (c *Carousel) Next() {
	if len(c.items) == 0 {
		return
	}
	c.cursor = (c.cursor + 1) % len(c.items)
}

// Prev moves the cursor back, wrapping to the last suggestion.
func (c *Carousel) Prev() {
	if len(c.items) == 0 {
		return
	}
	c.cursor = (c.cursor - 1 + len(c.items)) % len(c.items)
}

// decide calls the handler and advances only if it succeeded, so a failed
// decision can be retried on the same suggestion.
func (c *Carousel) decide(ctx context.Context, a annotation.Action) error {
	s, ok := c.Current()
	if !ok {
		return nil
	}
	if err := c.handler(ctx, s, a); err != nil {
		return fmt.Errorf("%s suggestion %s: %w", a, s.ID, err)
	}
	c.Next()
	return nil
}
