package diagnostics_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/diagnostics"
	"github.com/born-ml/riemann/internal/manifold/euclidean"
	"github.com/born-ml/riemann/internal/manifold/lorentz"
	"github.com/born-ml/riemann/internal/manifold/sphere"
	"github.com/born-ml/riemann/internal/manifold/stiefel"
	"github.com/born-ml/riemann/internal/tensor"
)

type flat = euclidean.Euclidean[float64, *cpu.CPUBackend]

// stretched reports every distance twice too long.
type stretched struct{ *flat }

func (m stretched) Dist(x, y *tensor.Tensor[float64, *cpu.CPUBackend], keepDim bool) (*tensor.Tensor[float64, *cpu.CPUBackend], error) {
	d, err := m.flat.Dist(x, y, keepDim)
	if err != nil {
		return nil, err
	}
	return d.MulScalar(2), nil
}

func results(r diagnostics.Report) map[diagnostics.Property]diagnostics.Result {
	out := make(map[diagnostics.Property]diagnostics.Result, len(r.Results))
	for _, res := range r.Results {
		out[res.Property] = res
	}
	return out
}

func TestRunPasses(t *testing.T) {
	m, err := lorentz.NewExact[float64](cpu.New(), lorentz.Config{K: 2})
	require.NoError(t, err)
	report, err := diagnostics.Run(m, tensor.Shape{4}, diagnostics.Options{Samples: 16})
	require.NoError(t, err)

	assert.Equal(t, "LorentzExact", report.Manifold)
	assert.Equal(t, tensor.Float64, report.DType)
	assert.Len(t, report.Results, 11)
	assert.True(t, report.OK())
	assert.Empty(t, report.Failed())
	for _, r := range report.Results {
		assert.True(t, r.OK, "%s: %s", r.Property, r.Reason)
	}
}

func TestRunDetectsWrongDistance(t *testing.T) {
	e, err := euclidean.New[float64](cpu.New(), euclidean.Config{})
	require.NoError(t, err)
	report, err := diagnostics.Run[float64, *cpu.CPUBackend](stretched{e}, tensor.Shape{3}, diagnostics.Options{Rand: rand.New(rand.NewSource(7))})
	require.NoError(t, err)

	assert.False(t, report.OK())
	byProperty := results(report)
	for _, p := range []diagnostics.Property{diagnostics.DistLogmapNorm, diagnostics.GeodesicArcLength, diagnostics.OriginMaps} {
		assert.False(t, byProperty[p].OK, p)
		assert.False(t, byProperty[p].Skipped, p)
		assert.Greater(t, byProperty[p].Residual, 0.0, p)
	}
	assert.Contains(t, byProperty[diagnostics.DistLogmapNorm].Reason, "Dist(x, y)")
	for _, p := range []diagnostics.Property{diagnostics.PointOnManifold, diagnostics.ExpmapLogmap, diagnostics.DistSymmetric, diagnostics.TranspInner} {
		assert.True(t, byProperty[p].OK, p)
	}
	assert.Len(t, report.Failed(), 3)
}

func TestRunSkipsMissingOperations(t *testing.T) {
	m, err := stiefel.NewCanonical[float32](cpu.New(), stiefel.Config{N: 4, P: 2})
	require.NoError(t, err)
	report, err := diagnostics.Run(m, tensor.Shape{4, 2}, diagnostics.Options{Samples: 8})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, tensor.Float32, report.DType)

	byProperty := results(report)
	for _, p := range []diagnostics.Property{
		diagnostics.ExpmapLogmap, diagnostics.LogmapSelf, diagnostics.DistLogmapNorm,
		diagnostics.DistSymmetric, diagnostics.TranspInner, diagnostics.GeodesicArcLength, diagnostics.OriginMaps,
	} {
		assert.True(t, byProperty[p].Skipped, p)
	}
	assert.Contains(t, byProperty[diagnostics.DistSymmetric].Reason, "not implemented")
	for _, p := range []diagnostics.Property{diagnostics.PointOnManifold, diagnostics.ProjxIdempotent, diagnostics.VectorOnTangent, diagnostics.TranspTangent} {
		assert.True(t, byProperty[p].OK, p)
	}
}

func TestProjectionTransportIsNotCheckedForIsometry(t *testing.T) {
	m, err := sphere.New[float64](cpu.New(), sphere.Config{})
	require.NoError(t, err)
	report, err := diagnostics.Run(m, tensor.Shape{3}, diagnostics.Options{Samples: 8})
	require.NoError(t, err)
	r := results(report)[diagnostics.TranspInner]
	assert.True(t, r.Skipped)
	assert.Contains(t, r.Reason, "not isometric")
}

func TestRunRejectsBadShape(t *testing.T) {
	m, err := lorentz.New[float64](cpu.New(), lorentz.Config{})
	require.NoError(t, err)
	_, err = diagnostics.Run(m, tensor.Shape{1}, diagnostics.Options{})
	assert.ErrorContains(t, err, "diagnostics: Lorentz")
}

func TestDefaultTolerance(t *testing.T) {
	assert.InDelta(t, 1e-3, diagnostics.DefaultTolerance[float32]().Atol, 0)
	assert.InDelta(t, 1e-6, diagnostics.DefaultTolerance[float64]().Rtol, 0)
}
