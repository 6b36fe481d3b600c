// Package claude proposes candidate tags by asking a Claude model about a
// media item's caption.
//
// No image is sent. The model reads the caption or description the uploader
// wrote and calls the propose_tags tool with candidates per category, which
// are parsed into pending AI suggestions. Without an image there is nothing to
// locate, so suggestions usually arrive without bounding boxes.
package claude

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/overlay"
	"github.com/ronyyyyy619/Yaadein-Final-sub001/suggest"
)

// Messages is the subset of the Anthropic client used here.
// *anthropic.MessageService satisfies it.
type Messages interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Captions looks up the text describing a media item.
type Captions interface {
	Caption(ctx context.Context, mediaItemID string) (string, error)
}

// CaptionMap serves captions from a map.
type CaptionMap map[string]string

// Caption implements Captions.
func (m CaptionMap) Caption(_ context.Context, mediaItemID string) (string, error) {
	c, ok := m[mediaItemID]
	if !ok {
		return "", &core.NotFoundError{Kind: "caption", ID: mediaItemID}
	}
	return c, nil
}

// Config holds Source configuration.
type Config struct {
	// Model is the Claude model to use.
	// Default: "claude-sonnet-4-20250514"
	Model string

	// MaxTokens caps the reply length.
	// Default: 1024
	MaxTokens int64

	// MaxPerCategory drops candidates beyond this many per category, keeping
	// the most confident. Zero keeps all.
	// Default: 8
	MaxPerCategory int
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	Model:          "claude-sonnet-4-20250514",
	MaxTokens:      1024,
	MaxPerCategory: 8,
}

const systemPrompt = `You label family photos and videos for a private archive.
Given a description of one memory, propose tags in these categories:
people, objects, locations, events, emotions, text.
Call the propose_tags tool once. Each key is a category and each value is a
list of {"name": string, "confidence": number between 0 and 1}.
Locations may add "address". Events may add "date" as YYYY-MM-DD.
Emotions may add "intensity" between 0 and 1. Text may add "text" with the
words visible in the frame. Omit categories with nothing to suggest.
Use "Unknown Person" for people you cannot name.`

// Source implements suggest.Source on top of Claude.
type Source struct {
	messages Messages
	captions Captions
	config   *Config
}

var _ suggest.Source = (*Source)(nil)

// New creates a Source.
func New(messages Messages, captions Captions, config *Config) *Source {
	if config == nil {
		config = DefaultConfig
	}
	return &Source{
		messages: messages,
		captions: captions,
		config:   config,
	}
}

// Suggest implements suggest.Source.
func (s *Source) Suggest(ctx context.Context, mediaItemID string) (suggest.Batch, error) {
	caption, err := s.captions.Caption(ctx, mediaItemID)
	if err != nil {
		return nil, fmt.Errorf("load caption: %w", err)
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return suggest.Batch{}, nil
	}

	model := s.config.Model
	if model == "" {
		model = DefaultConfig.Model
	}
	maxTokens := s.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultConfig.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(caption)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Tools:      []anthropic.ToolUnionParam{proposeTagsTool()},
		ToolChoice: anthropic.ToolChoiceParamOfTool(ToolName),
	}

	start := time.Now()
	resp, err := s.messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude request: %w", err)
	}

	batch, err := Parse(replyJSON(resp), s.config.MaxPerCategory)
	if err != nil {
		return nil, err
	}

	log.Printf("[CLAUDE] %d candidates for %s in %v", batch.Len(), mediaItemID, time.Since(start).Round(time.Millisecond))
	return batch, nil
}

// replyJSON returns the input of the propose_tags call, or the reply text
// when the model answered in prose instead.
func replyJSON(resp *anthropic.Message) string {
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			if block.Name == ToolName {
				return string(block.Input)
			}
		case "text":
			text.WriteString(block.Text)
		}
	}
	return text.String()
}

// candidate is one entry of the model's reply.
type candidate struct {
	Name       string                 `json:"name"`
	Confidence float64                `json:"confidence"`
	Box        *overlay.NormalizedBox `json:"box,omitempty"`
	Address    string                 `json:"address,omitempty"`
	Date       string                 `json:"date,omitempty"`
	Intensity  *float64               `json:"intensity,omitempty"`
	Text       string                 `json:"text,omitempty"`
}

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("reply contains no JSON object")

// Parse converts a model reply into a batch. Text around the outermost JSON
// object (prose, code fences) is ignored, as are unknown categories and
// unnamed candidates. maxPerCategory > 0 keeps only the most confident entries.
func Parse(reply string, maxPerCategory int) (suggest.Batch, error) {
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}

	var raw map[string][]candidate
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}

	batch := make(suggest.Batch)
	for key, entries := range raw {
		category, err := core.ParseCategory(strings.ToLower(strings.TrimSpace(key)))
		if err != nil {
			log.Printf("[CLAUDE] Ignoring unknown category %q", key)
			continue
		}
		for _, c := range entries {
			if strings.TrimSpace(c.Name) == "" {
				continue
			}
			batch[category] = append(batch[category], c.toTag(category))
		}
		if maxPerCategory > 0 && len(batch[category]) > maxPerCategory {
			batch[category] = topN(batch[category], maxPerCategory)
		}
	}
	return batch, nil
}

func (c candidate) toTag(category core.Category) core.AnnotationTag {
	tag := core.AnnotationTag{
		Category:   category,
		Name:       strings.TrimSpace(c.Name),
		Confidence: c.Confidence,
		Source:     core.SourceAI,
		State:      core.StatePending,
		Box:        c.Box,
	}
	switch category {
	case core.Locations:
		tag.Meta.Address = c.Address
	case core.Events:
		if d, err := time.Parse(time.DateOnly, c.Date); err == nil {
			tag.Meta.Date = &d
		}
	case core.Emotions:
		tag.Meta.Intensity = c.Intensity
	case core.Text:
		tag.Meta.Recognized = c.Text
	}
	return tag
}

// topN keeps the n most confident tags, preserving their relative order.
func topN(tags []core.AnnotationTag, n int) []core.AnnotationTag {
	idx := make([]int, len(tags))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(tags[b].Confidence, tags[a].Confidence)
	})
	idx = idx[:n]
	slices.Sort(idx)

	out := make([]core.AnnotationTag, 0, n)
	for _, i := range idx {
		out = append(out, tags[i])
	}
	return out
}
