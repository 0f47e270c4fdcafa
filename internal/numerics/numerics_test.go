package numerics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/autodiff"
	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/tensor"
)

func finite[T tensor.Float](t *testing.T, vals []T) {
	t.Helper()
	for i, v := range vals {
		f := float64(v)
		assert.False(t, math.IsNaN(f) || math.IsInf(f, 0), "element %d is %v", i, f)
	}
}

func TestFor(t *testing.T) {
	p32, p64 := For[float32](), For[float64]()
	assert.Greater(t, p32.Eps, p64.Eps)
	assert.Greater(t, p32.BallEps, p64.BallEps)
	assert.Greater(t, p32.Atol, p64.Atol)
}

func TestHelpers_WellConditioned(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float64{-0.5, 0, 0.5}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{math.Atanh(-0.5), 0, math.Atanh(0.5)}, Artanh(x).Data(), 1e-15)
	assert.InDeltaSlice(t, []float64{math.Acos(-0.5), math.Pi / 2, math.Acos(0.5)}, Arccos(x).Data(), 1e-15)
	assert.InDeltaSlice(t, []float64{math.Asinh(-0.5), 0, math.Asinh(0.5)}, Arsinh(x).Data(), 1e-15)

	y, err := tensor.FromSlice([]float64{1.5, 10}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{math.Acosh(1.5), math.Acosh(10)}, Arcosh(y).Data(), 1e-15)
}

func TestHelpers_ClampAtSingularities(t *testing.T) {
	t.Run("float32", func(t *testing.T) {
		backend := cpu.New()
		x, err := tensor.FromSlice([]float32{-1, 1, -3, 3}, tensor.Shape{4}, backend)
		require.NoError(t, err)
		finite(t, Artanh(x).Data())
		finite(t, Arccos(x).Data())
		finite(t, Arcosh(x).Data())
	})
	t.Run("float64", func(t *testing.T) {
		backend := cpu.New()
		x, err := tensor.FromSlice([]float64{-1, 1, -3, 3}, tensor.Shape{4}, backend)
		require.NoError(t, err)
		finite(t, Artanh(x).Data())
		finite(t, Arccos(x).Data())

		ach := Arcosh(x).Data()
		finite(t, ach)
		assert.Less(t, ach[1], 1e-6, "arcosh(1) degrades to the clamped boundary value")
	})
}

func TestHelpers_GradientsFiniteAtBoundary(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float64{1, -1, 0.25}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	y := Artanh(x).Add(Arcosh(x)).Add(Arccos(x)).SumAll()

	gx, err := autodiff.Grad(autodiff.Backward(y, backend), x)
	require.NoError(t, err)
	finite(t, gx.Data())
}

func TestNorm(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float64{3, 4, 0, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	n := Norm(x, false)
	assert.Equal(t, tensor.Shape{2}, n.Shape())
	assert.InDelta(t, 5.0, n.Data()[0], 1e-15)
	assert.Equal(t, For[float64]().MinNorm, n.Data()[1])

	assert.Equal(t, tensor.Shape{2, 1}, Norm(x, true).Shape())
	assert.Equal(t, []float64{25, 0}, Dot(x, x, false).Data())
}

func TestNorm_ZeroVectorGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.Zeros[float64](tensor.Shape{3}, backend)
	y := Norm(x, false)

	gx, err := autodiff.Grad(autodiff.Backward(y, backend), x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, gx.Data())
}
