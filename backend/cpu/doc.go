// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting
//   - Batched MatMul, Solve, Expm, QR and polar decomposition on gonum
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/riemann/backend/cpu"
//	    "github.com/born-ml/riemann/manifold"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    ball, _ := manifold.NewPoincareBall[float64](backend, manifold.PoincareConfig{C: 1})
//	    x, _ := ball.RandomNormal(tensor.Shape{8, 3}, manifold.SampleOptions[float64, *cpu.Backend]{})
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
