// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

// Package vector provides embedding math for the interest engine.
//
// Embeddings are plain float64 slices. Producers are expected to deliver
// unit-normalized vectors; nothing in this package enforces that, so Dot
// only behaves as cosine similarity when callers uphold the convention.
package vector

import "math"

// Embedding is a fixed-dimension semantic vector.
// An empty embedding means the item has not been processed yet.
type Embedding []float64

// Dot returns the dot product of a and b.
// Zero-length or dimension-mismatched inputs score 0 rather than erroring.
func Dot(a, b Embedding) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// Norm returns the L2 norm of v.
func Norm(v Embedding) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize returns a copy of v scaled to unit length.
// A zero-magnitude vector is returned as-is instead of dividing by zero.
func Normalize(v Embedding) Embedding {
	out := make(Embedding, len(v))
	copy(out, v)

	norm := Norm(out)
	if norm == 0 {
		return out
	}

	for i := range out {
		out[i] /= norm
	}
	return out
}

// Blend moves base toward target by fraction t and returns the result:
// base + (target - base) * t. The result is NOT normalized.
// If the dimensions differ, a copy of base is returned unchanged.
func Blend(base, target Embedding, t float64) Embedding {
	out := make(Embedding, len(base))
	copy(out, base)

	if len(base) != len(target) {
		return out
	}

	for i := range out {
		out[i] += (target[i] - out[i]) * t
	}
	return out
}

// Average returns the element-wise mean of a and b, unnormalized.
// If the dimensions differ, a copy of a is returned unchanged.
func Average(a, b Embedding) Embedding {
	out := make(Embedding, len(a))
	copy(out, a)

	if len(a) != len(b) {
		return out
	}

	for i := range out {
		out[i] = (out[i] + b[i]) / 2
	}
	return out
}

// Clone returns an independent copy of v.
func Clone(v Embedding) Embedding {
	if v == nil {
		return nil
	}
	out := make(Embedding, len(v))
	copy(out, v)
	return out
}
