package onnx

import (
	"fmt"
	"math"
)

// meanPool averages the hidden states of attended tokens.
// hidden is laid out [seqLen][dims]; an output already shaped [dims] is
// returned as a copy.
func meanPool(hidden []float32, shape []int64, mask []int64, dims int) ([]float32, error) {
	switch len(shape) {
	case 2:
		if len(hidden) < dims {
			return nil, fmt.Errorf("pooled output has %d values, want %d", len(hidden), dims)
		}
		return append([]float32(nil), hidden[:dims]...), nil
	case 3:
	default:
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}

	if shape[0] != 1 {
		return nil, fmt.Errorf("expected batch size 1, got %d", shape[0])
	}
	if shape[2] != int64(dims) {
		return nil, fmt.Errorf("hidden size %d, want %d", shape[2], dims)
	}

	out := make([]float32, dims)
	var attended float32
	for i := 0; i < int(shape[1]) && i < len(mask); i++ {
		if mask[i] == 0 {
			continue
		}
		attended++
		row := hidden[i*dims : (i+1)*dims]
		for j, v := range row {
			out[j] += v
		}
	}
	if attended == 0 {
		return out, nil
	}
	for j := range out {
		out[j] /= attended
	}
	return out, nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
