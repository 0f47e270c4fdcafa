package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/tensor"
)

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b    tensor.Shape
		want    tensor.Shape
		wantErr bool
	}{
		{tensor.Shape{3, 1}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false},
		{tensor.Shape{5}, tensor.Shape{2, 1}, tensor.Shape{2, 5}, false},
		{tensor.Shape{}, tensor.Shape{4, 2}, tensor.Shape{4, 2}, false},
		{tensor.Shape{3, 4}, tensor.Shape{3, 5}, nil, true},
	}
	for _, tt := range tests {
		got, _, err := tensor.BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	all, err := tensor.BroadcastAll(tensor.Shape{2, 1, 3}, tensor.Shape{4, 1}, tensor.Shape{})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 4, 3}, all)
}

func TestShape_Axis(t *testing.T) {
	s := tensor.Shape{2, 3, 4}

	d, err := s.Axis(-1)
	require.NoError(t, err)
	assert.Equal(t, 2, d)

	_, err = s.Axis(3)
	assert.Error(t, err)
	assert.Equal(t, tensor.Shape{2}, s.Batch(2))
	assert.Equal(t, tensor.Shape{}, s.Batch(3))
	assert.Equal(t, tensor.Shape{2, 3, 4, 5}, s.Concat(5))
}

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, x.DType())
	assert.Equal(t, float32(6), x.At(1, 2))

	_, err = tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend)
	assert.Error(t, err)
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	assert.Equal(t, []float64{0, 0, 0}, tensor.Zeros[float64](tensor.Shape{3}, backend).Data())
	assert.Equal(t, []float64{1, 1}, tensor.Ones[float64](tensor.Shape{2}, backend).Data())
	assert.Equal(t, float64(2.5), tensor.Scalar[float64](2.5, backend).Item())
	assert.Equal(t, []float32{1, 0, 0, 1, 0, 0}, tensor.Eye[float32](3, 2, backend).Data())

	rng := rand.New(rand.NewSource(1))
	u := tensor.Rand[float64](tensor.Shape{100}, -1, 1, rng, backend)
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
	n := tensor.Randn[float32](tensor.Shape{4, 5}, rng, backend)
	assert.Equal(t, tensor.Shape{4, 5}, n.Shape())
}

func TestTensorOps(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	assert.Equal(t, []float64{6, 15}, x.Sum(-1, false).Data())
	assert.Equal(t, tensor.Shape{2, 1}, x.Sum(-1, true).Shape())
	assert.Equal(t, float64(21), x.SumAll().Item())
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, x.SubScalar(1).Data())
	assert.Equal(t, []float64{9, 8, 7, 6, 5, 4}, x.RSubScalar(10).Data())
	assert.Equal(t, []float64{0.5, 1, 1.5, 2, 2.5, 3}, x.DivScalar(2).Data())
	assert.InDeltaSlice(t, []float64{6, 3, 2, 1.5, 1.2, 1}, x.RDivScalar(6).Data(), 1e-15)
	assert.Equal(t, []float64{2, 2, 3, 4, 4, 4}, x.Clamp(2, 4).Data())
	assert.Equal(t, []float64{3, 3, 3, 4, 5, 6}, x.ClampMin(3).Data())
	assert.Equal(t, []float64{1, 2, 2, 2, 2, 2}, x.ClampMax(2).Data())

	assert.Equal(t, tensor.Shape{1, 2, 3}, x.Unsqueeze(0).Shape())
	assert.Equal(t, tensor.Shape{2, 3, 1}, x.Unsqueeze(-1).Shape())
	assert.Equal(t, tensor.Shape{2, 3}, x.Unsqueeze(0).Squeeze(0).Shape())
	assert.Panics(t, func() { x.Squeeze(0) })

	assert.Same(t, x, x.Narrow(1, 0, 3))
	assert.Equal(t, []float64{3, 6}, x.Narrow(-1, 2, 1).Data())
}

func TestTensor_MatMulBroadcastsBatch(t *testing.T) {
	backend := cpu.New()
	a := tensor.Eye[float64](2, 2, backend).MulScalar(2)
	b, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 2, 2}, backend)
	require.NoError(t, err)

	c := a.MatMul(b)
	assert.Equal(t, tensor.Shape{2, 2, 2}, c.Shape())
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12, 14, 16}, c.Data())

	assert.Equal(t, []float64{1, 3, 2, 4, 5, 7, 6, 8}, b.MT().Data())
}

func TestCat(t *testing.T) {
	backend := cpu.New()
	a := tensor.Ones[float64](tensor.Shape{2, 1}, backend)
	b := tensor.Zeros[float64](tensor.Shape{2, 2}, backend)

	c := tensor.Cat([]*tensor.Tensor[float64, *cpu.CPUBackend]{a, b}, -1)
	assert.Equal(t, tensor.Shape{2, 3}, c.Shape())
	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0}, c.Data())
}

func TestRawKernels(t *testing.T) {
	x := tensor.FromValues([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.Float64, tensor.CPU)

	n := tensor.NarrowRaw(x, 1, 1, 2)
	back := tensor.ScatterNarrowRaw(n, x.Shape(), 1, 1)
	assert.Equal(t, []float64{0, 2, 3, 0, 5, 6}, back.Values())

	e := tensor.ExpandRaw(tensor.FromValues([]float64{1, 2, 3}, tensor.Shape{3}, tensor.Float64, tensor.CPU), tensor.Shape{2, 3})
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, e.Values())
	assert.Equal(t, []float64{2, 4, 6}, tensor.SumToShape(e, tensor.Shape{3}).Values())
	assert.Equal(t, []float64{12}, tensor.SumToShape(e, tensor.Shape{1, 1}).Values())
	assert.Panics(t, func() { tensor.ExpandRaw(x, tensor.Shape{3, 3}) })
}
