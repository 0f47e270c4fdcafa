package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/autodiff"
	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/tensor"
)

type adTensor = tensor.Tensor[float64, adBackend]

// checkGradient compares the autodiff gradient of a scalar function with
// central finite differences.
func checkGradient(t *testing.T, f func(*adTensor) *adTensor, x0 []float64, shape tensor.Shape, tol float64) {
	t.Helper()
	const h = 1e-6

	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	x, err := tensor.FromSlice(x0, shape, backend)
	require.NoError(t, err)
	gx, err := autodiff.Grad(autodiff.Backward(f(x), backend), x)
	require.NoError(t, err)
	backend.Tape().StopRecording()

	eval := func(vals []float64) float64 {
		xv, err := tensor.FromSlice(vals, shape, backend)
		require.NoError(t, err)
		return f(xv).Item()
	}
	for i := range x0 {
		plus := append([]float64(nil), x0...)
		minus := append([]float64(nil), x0...)
		plus[i] += h
		minus[i] -= h
		numeric := (eval(plus) - eval(minus)) / (2 * h)
		assert.InDelta(t, numeric, gx.Data()[i], tol, "component %d", i)
	}
}

func TestGradientCheck_Unary(t *testing.T) {
	x0 := []float64{0.3, -0.6, 0.75}
	pos := []float64{1.3, 2.5, 4}

	tests := []struct {
		name string
		f    func(*adTensor) *adTensor
		x0   []float64
	}{
		{"Exp", func(x *adTensor) *adTensor { return x.Exp().SumAll() }, x0},
		{"Log", func(x *adTensor) *adTensor { return x.Log().SumAll() }, pos},
		{"Sqrt", func(x *adTensor) *adTensor { return x.Sqrt().SumAll() }, pos},
		{"Abs", func(x *adTensor) *adTensor { return x.Abs().SumAll() }, x0},
		{"Cos", func(x *adTensor) *adTensor { return x.Cos().SumAll() }, x0},
		{"Sin", func(x *adTensor) *adTensor { return x.Sin().SumAll() }, x0},
		{"Cosh", func(x *adTensor) *adTensor { return x.Cosh().SumAll() }, x0},
		{"Sinh", func(x *adTensor) *adTensor { return x.Sinh().SumAll() }, x0},
		{"Tanh", func(x *adTensor) *adTensor { return x.Tanh().SumAll() }, x0},
		{"Acos", func(x *adTensor) *adTensor { return x.Acos().SumAll() }, x0},
		{"Acosh", func(x *adTensor) *adTensor { return x.Acosh().SumAll() }, pos},
		{"Atanh", func(x *adTensor) *adTensor { return x.Atanh().SumAll() }, x0},
		{"Asinh", func(x *adTensor) *adTensor { return x.Asinh().SumAll() }, x0},
		{"Div", func(x *adTensor) *adTensor { return x.Exp().Div(x.Square().AddScalar(1)).SumAll() }, x0},
		{"Neg", func(x *adTensor) *adTensor { return x.Neg().Mul(x).SumAll() }, x0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradient(t, tt.f, tt.x0, tensor.Shape{3}, 1e-6)
		})
	}
}

func TestGradientCheck_LinearAlgebra(t *testing.T) {
	square := []float64{0.4, -0.2, 0.1, 0.3, 0.5, -0.3, 0.2, 0.1, 0.6}
	tall := []float64{1.0, 0.2, -0.3, 0.8, 0.5, 0.1, 0.2, -0.4}
	w := []float64{1, -2, 3, 0.5, -1, 2, 1.5, 0.25}

	weighted := func(x *adTensor) *adTensor {
		c, err := tensor.FromSlice(w, tensor.Shape{4, 2}, x.Backend())
		require.NoError(t, err)
		return x.Mul(c).SumAll()
	}

	t.Run("Expm", func(t *testing.T) {
		checkGradient(t, func(x *adTensor) *adTensor {
			return x.Expm().Square().SumAll()
		}, square, tensor.Shape{3, 3}, 1e-5)
	})
	t.Run("Solve", func(t *testing.T) {
		checkGradient(t, func(x *adTensor) *adTensor {
			eye := tensor.Eye[float64](3, 3, x.Backend())
			rhs := tensor.Ones[float64](tensor.Shape{3, 1}, x.Backend())
			return x.Add(eye).Solve(rhs).Square().SumAll()
		}, square, tensor.Shape{3, 3}, 1e-5)
	})
	t.Run("QR", func(t *testing.T) {
		checkGradient(t, func(x *adTensor) *adTensor { return weighted(x.QR()) }, tall, tensor.Shape{4, 2}, 1e-5)
	})
	t.Run("Polar", func(t *testing.T) {
		checkGradient(t, func(x *adTensor) *adTensor { return weighted(x.Polar()) }, tall, tensor.Shape{4, 2}, 1e-5)
	})
	t.Run("Transpose", func(t *testing.T) {
		checkGradient(t, func(x *adTensor) *adTensor {
			return x.MT().MatMul(x).Square().SumAll()
		}, tall, tensor.Shape{4, 2}, 1e-5)
	})
}
