// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense arrays the manifold operations run on.
//
// # Overview
//
// A Tensor[T, B] holds float32 or float64 elements on a backend B. All
// elementwise operations broadcast NumPy-style; reductions, reshapes and
// batched linear algebra (MatMul, Solve, Expm, QR, Polar) operate on the
// trailing axes and treat the rest as a batch.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/riemann/backend/cpu"
//	    "github.com/born-ml/riemann/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
//	    n := x.Square().Sum(-1, false).Sqrt() // row norms, shape [2]
//	}
//
// # Differentiation
//
// Wrap the backend with autodiff.New to record operations and compute
// gradients with autodiff.Backward.
package tensor
