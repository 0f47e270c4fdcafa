// Package manifoldtest provides assertions shared by the geometry tests.
package manifoldtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/autodiff"
	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/diagnostics"
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/tensor"
)

// AD is the differentiable CPU backend used by gradient checks.
type AD = autodiff.AutodiffBackend[*cpu.CPUBackend]

// Seeds are the random seeds the property tests iterate over.
var Seeds = []int64{30, 31, 32, 33, 34, 35, 36, 37, 38, 39}

// Close asserts that got and want agree within tol.
func Close[T tensor.Float, B tensor.Backend](t *testing.T, got, want *tensor.Tensor[T, B], tol manifold.Tolerance, what string) bool {
	t.Helper()
	ok, residual := manifold.Allclose(got, want, tol)
	return assert.True(t, ok, "%s: residual %.3g exceeds tolerance %+v", what, residual, tol)
}

// Loose returns the tolerance for composed maps in T.
func Loose[T tensor.Float]() manifold.Tolerance {
	return diagnostics.DefaultTolerance[T]()
}

// RequireDiagnostics runs the diagnostics suite on m and fails the test for
// every failing property.
func RequireDiagnostics[T tensor.Float, B tensor.Backend](t *testing.T, m manifold.Manifold[T, B], point tensor.Shape, opts diagnostics.Options) diagnostics.Report {
	t.Helper()
	report, err := diagnostics.Run(m, point, opts)
	require.NoError(t, err)
	for _, r := range report.Failed() {
		t.Errorf("%s/%s: %s (residual %.3g)", report.Manifold, r.Property, r.Reason, r.Residual)
	}
	return report
}

// CheckGradient compares the autodiff gradients of the scalar function f
// with respect to each input against central finite differences.
func CheckGradient(t *testing.T, f func(in []*tensor.Tensor[float64, *AD]) *tensor.Tensor[float64, *AD],
	values [][]float64, shapes []tensor.Shape, tol float64,
) {
	t.Helper()
	const h = 1e-6

	backend := autodiff.New(cpu.New())
	build := func(vals [][]float64) []*tensor.Tensor[float64, *AD] {
		in := make([]*tensor.Tensor[float64, *AD], len(vals))
		for i := range vals {
			x, err := tensor.FromSlice(vals[i], shapes[i], backend)
			require.NoError(t, err)
			in[i] = x
		}
		return in
	}

	backend.Tape().StartRecording()
	in := build(values)
	grads := autodiff.Backward(f(in), backend)
	backend.Tape().StopRecording()

	eval := func(vals [][]float64) float64 {
		return f(build(vals)).Item()
	}
	for i := range values {
		g, err := autodiff.Grad(grads, in[i])
		require.NoError(t, err, "input %d", i)
		for j := range values[i] {
			plus, minus := perturb(values, i, j, h), perturb(values, i, j, -h)
			numeric := (eval(plus) - eval(minus)) / (2 * h)
			assert.InDelta(t, numeric, g.Data()[j], tol, "input %d component %d", i, j)
		}
	}
}

func perturb(values [][]float64, i, j int, h float64) [][]float64 {
	out := make([][]float64, len(values))
	for n := range values {
		out[n] = append([]float64(nil), values[n]...)
	}
	out[i][j] += h
	return out
}
