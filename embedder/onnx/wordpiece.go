package onnx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Tokenizer is a lowercasing BERT WordPiece tokenizer.
type Tokenizer struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	unk   int64
	pad   int64
}

// LoadTokenizer reads the vocabulary from a Hugging Face tokenizer.json.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}

	var file struct {
		Model struct {
			Vocab map[string]int64 `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	return NewTokenizer(file.Model.Vocab)
}

// NewTokenizer builds a tokenizer from a vocabulary that contains the
// [CLS], [SEP], [UNK] and [PAD] special tokens.
func NewTokenizer(vocab map[string]int64) (*Tokenizer, error) {
	t := &Tokenizer{vocab: vocab}
	for tok, dst := range map[string]*int64{"[CLS]": &t.cls, "[SEP]": &t.sep, "[UNK]": &t.unk, "[PAD]": &t.pad} {
		id, ok := vocab[tok]
		if !ok {
			return nil, fmt.Errorf("vocabulary has no %s token", tok)
		}
		*dst = id
	}
	return t, nil
}

// Encoding is one tokenized sequence padded to a fixed length.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// Encode tokenizes text into [CLS] tokens... [SEP], truncated and padded to maxLen.
func (t *Tokenizer) Encode(text string, maxLen int) Encoding {
	if maxLen < 2 {
		maxLen = 2
	}
	tokens := t.Tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	enc := Encoding{
		InputIDs:      make([]int64, maxLen),
		AttentionMask: make([]int64, maxLen),
		TokenTypeIDs:  make([]int64, maxLen),
	}
	for i := range enc.InputIDs {
		enc.InputIDs[i] = t.pad
	}

	enc.InputIDs[0] = t.cls
	copy(enc.InputIDs[1:], tokens)
	enc.InputIDs[len(tokens)+1] = t.sep
	for i := 0; i < len(tokens)+2; i++ {
		enc.AttentionMask[i] = 1
	}
	return enc
}

// Tokenize returns the WordPiece ids of text, without special tokens.
// Punctuation splits words and becomes its own token, as in BERT's basic tokenizer.
func (t *Tokenizer) Tokenize(text string) []int64 {
	var ids []int64
	for _, word := range splitWords(strings.ToLower(text)) {
		ids = append(ids, t.wordPiece(word)...)
	}
	return ids
}

// wordPiece greedily matches the longest vocabulary prefix, continuing with
// "##" pieces. A word with an unmatched remainder becomes a single [UNK].
func (t *Tokenizer) wordPiece(word string) []int64 {
	if id, ok := t.vocab[word]; ok {
		return []int64{id}
	}

	runes := []rune(word)
	var pieces []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		matched := false
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				matched = true
				break
			}
		}
		if !matched {
			return []int64{t.unk}
		}
		start = end
	}
	return pieces
}

func splitWords(text string) []string {
	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
