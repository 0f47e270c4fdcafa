// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/riemann/backend/cpu"
	"github.com/born-ml/riemann/tensor"
)

func TestNewWithParallel(t *testing.T) {
	assert.Equal(t, "CPU", cpu.New().Name())

	rng := rand.New(rand.NewSource(1))
	shape := tensor.Shape{64, 257}
	a := tensor.Randn[float64](shape, rng, cpu.New())
	b := tensor.Randn[float64](shape, rng, cpu.New())

	forced := cpu.DefaultParallelConfig()
	forced.Enabled, forced.NumWorkers, forced.MinChunkSize = true, 4, 16
	for _, backend := range []*cpu.Backend{cpu.NewWithParallel(cpu.ParallelConfig{}), cpu.NewWithParallel(forced)} {
		x := tensor.New[float64](a.Raw(), backend)
		y := tensor.New[float64](b.Raw(), backend)
		assert.Equal(t, a.Mul(b).Tanh().Data(), x.Mul(y).Tanh().Data())
	}
}
