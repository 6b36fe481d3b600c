//go:build onnx

// Package onnx embeds tag lists with a sentence-transformer model through
// ONNX Runtime. Build with -tags onnx; the runtime shared library and the
// model files must be present on the machine.
package onnx

import (
	"context"
	"fmt"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/library"
)

// Config configures the ONNX embedder.
type Config struct {
	// SharedLibraryPath locates libonnxruntime. Empty uses the loader's search path.
	SharedLibraryPath string

	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the model's tokenizer.json.
	TokenizerPath string

	// Dimensions is the embedding size.
	// Default: 384 (all-MiniLM-L6-v2)
	Dimensions int

	// MaxSequence is the padded token length fed to the model.
	// Default: 128
	MaxSequence int
}

// Embedder runs a BERT-style model and mean-pools its last hidden state.
type Embedder struct {
	mu         sync.Mutex // sessions are not safe for concurrent Run
	session    *ort.DynamicAdvancedSession
	tokenizer  *Tokenizer
	dimensions int
	maxSeq     int
}

var _ library.Embedder = (*Embedder)(nil)

// The runtime environment is process-wide.
var (
	initOnce sync.Once
	initErr  error
)

// New loads the runtime, tokenizer and model.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx: ModelPath is required")
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 384
	}
	if cfg.MaxSequence <= 0 {
		cfg.MaxSequence = 128
	}

	initOnce.Do(func() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", initErr)
	}

	tokenizer, err := LoadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	log.Printf("[ONNX] Loaded %s (%d dims)", cfg.ModelPath, cfg.Dimensions)
	return &Embedder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
		maxSeq:     cfg.MaxSequence,
	}, nil
}

// Embed implements library.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	enc := e.tokenizer.Encode(text, e.maxSeq)
	shape := ort.NewShape(1, int64(e.maxSeq))

	inputs := make([]ort.Value, 0, 3)
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, data := range [][]int64{enc.InputIDs, enc.AttentionMask, enc.TokenTypeIDs} {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("create input tensor: %w", err)
		}
		inputs = append(inputs, t)
	}

	outputs := []ort.Value{nil}
	e.mu.Lock()
	err := e.session.Run(inputs, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}

	pooled, err := meanPool(hidden.GetData(), hidden.GetShape(), enc.AttentionMask, e.dimensions)
	if err != nil {
		return nil, err
	}
	return normalize(pooled), nil
}

// Dimensions implements library.Embedder.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases the model session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
