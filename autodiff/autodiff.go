// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation (backpropagation)
// using a gradient tape. It wraps any backend to add autodiff capabilities, so
// every manifold operation is differentiable with respect to its points,
// tangent vectors and curvature.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	hyp, _ := manifold.NewLorentz[float64](backend, manifold.LorentzConfig{Learnable: true})
//	x, _ := hyp.RandomNormal(tensor.Shape{4, 3}, manifold.SampleOptions[float64, *autodiff.Backend[*cpu.Backend]]{})
//	y, _ := hyp.RandomNormal(tensor.Shape{4, 3}, manifold.SampleOptions[float64, *autodiff.Backend[*cpu.Backend]]{})
//
//	backend.Tape().StartRecording()
//	d, _ := hyp.Dist(x, y, false)
//	grads := autodiff.Backward(d.SumAll(), backend)
//	dk, _ := autodiff.Grad(grads, hyp.K().Value())
package autodiff

import (
	"github.com/born-ml/riemann/internal/autodiff"
	"github.com/born-ml/riemann/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients via backpropagation.
func Backward[T tensor.Float, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}

// Grad returns the gradient of x from a Backward result.
func Grad[T tensor.Float, B tensor.Backend](grads map[*tensor.RawTensor]*tensor.RawTensor, x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return autodiff.Grad(grads, x)
}
