// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/backend/cpu"
	"github.com/born-ml/riemann/tensor"
)

func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.Backend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Equal(t, 6, raw.NumElements())

	x := tensor.New[float32](raw, cpu.New())
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, x.Data())
}

func TestCreation(t *testing.T) {
	b := cpu.New()
	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0}, tensor.Eye[float64](3, 2, b).Data())
	assert.InDelta(t, 6, tensor.Ones[float64](tensor.Shape{2, 3}, b).SumAll().Item(), 0)
	assert.InDelta(t, 2.5, tensor.Scalar(2.5, b).Item(), 0)
	assert.Equal(t, tensor.Float64, tensor.DTypeOf[float64]())

	rng := rand.New(rand.NewSource(1))
	u := tensor.Rand[float32](tensor.Shape{100}, -1, 1, rng, b)
	for _, v := range u.Data() {
		assert.True(t, v >= -1 && v < 1)
	}
	assert.Equal(t, tensor.Shape{4, 5}, tensor.Randn[float64](tensor.Shape{4, 5}, rng, b).Shape())

	_, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{2, 2}, b)
	assert.Error(t, err)
}

func TestOps(t *testing.T) {
	b := cpu.New()
	x, err := tensor.FromSlice([]float64{3, 4, 6, 8}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 10}, x.Square().Sum(-1, false).Sqrt().Data())

	c := tensor.Cat([]*tensor.Tensor[float64, *cpu.Backend]{x, tensor.Zeros[float64](tensor.Shape{2, 1}, b)}, -1)
	assert.Equal(t, tensor.Shape{2, 3}, c.Shape())

	shape, needA, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 4})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 4}, shape)
	assert.True(t, needA)
}
