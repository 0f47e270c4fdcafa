// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/parallel"
	"github.com/born-ml/riemann/tensor"
)

// Backend evaluates manifold formulas on the CPU: broadcasting
// elementwise kernels in float64 precision and batched dense linear
// algebra, one gonum factorisation per matrix in the batch.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how elementwise kernels are split across
// goroutines. The zero value runs them sequentially.
type ParallelConfig = parallel.Config

var _ tensor.Backend = (*Backend)(nil)

// New returns a backend that parallelises over all CPUs.
//
//	backend := cpu.New()
//	sphere, _ := manifold.NewSphereExact[float64](backend, manifold.SphereConfig{Dim: 3})
func New() *Backend {
	return internalcpu.New()
}

// NewWithParallel returns a backend using cfg for elementwise kernels.
func NewWithParallel(cfg ParallelConfig) *Backend {
	return internalcpu.New().WithParallel(cfg)
}

// DefaultParallelConfig returns the configuration New uses.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}
