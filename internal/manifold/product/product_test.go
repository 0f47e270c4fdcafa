package product_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/diagnostics"
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/manifold/euclidean"
	"github.com/born-ml/riemann/internal/manifold/lorentz"
	"github.com/born-ml/riemann/internal/manifold/manifoldtest"
	"github.com/born-ml/riemann/internal/manifold/poincare"
	"github.com/born-ml/riemann/internal/manifold/product"
	"github.com/born-ml/riemann/internal/manifold/sphere"
	"github.com/born-ml/riemann/internal/manifold/stiefel"
	"github.com/born-ml/riemann/internal/tensor"
)

// must unwraps a constructor result; the constructors only fail on bad
// configuration.
func must[M any](m M, err error) M {
	if err != nil {
		panic(err)
	}
	return m
}

type (
	cpuTensor[T tensor.Float] = tensor.Tensor[T, *cpu.CPUBackend]
	factor[T tensor.Float]    = product.Factor[T, *cpu.CPUBackend]
)

// curved builds H³ (Lorentz, 4 coordinates) × B² × S² × R².
func curved[T tensor.Float](t *testing.T, learnable bool) *product.Product[T, *cpu.CPUBackend] {
	t.Helper()
	b := cpu.New()
	l, err := lorentz.NewExact[T](b, lorentz.Config{K: 2, Learnable: learnable})
	require.NoError(t, err)
	p, err := poincare.NewExact[T](b, poincare.Config{C: 0.5})
	require.NoError(t, err)
	s, err := sphere.NewExact[T](b, sphere.Config{K: 1.5})
	require.NoError(t, err)
	e, err := euclidean.New[T](b, euclidean.Config{})
	require.NoError(t, err)

	m, err := product.New(b,
		factor[T]{Manifold: l, Shape: tensor.Shape{4}},
		factor[T]{Manifold: p, Shape: tensor.Shape{2}},
		factor[T]{Manifold: s, Shape: tensor.Shape{3}},
		factor[T]{Manifold: e, Shape: tensor.Shape{2}},
	)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	b := cpu.New()
	l, err := lorentz.New[float64](b, lorentz.Config{})
	require.NoError(t, err)
	st := must(stiefel.New[float64](b, stiefel.Config{}))

	m, err := product.New(b,
		factor[float64]{Manifold: l, Shape: tensor.Shape{3}},
		factor[float64]{Manifold: st, Shape: tensor.Shape{4, 2}},
	)
	require.NoError(t, err)
	assert.Equal(t, "Product", m.Name())
	assert.Equal(t, []int{0, 3, 11}, m.Offsets())
	assert.Len(t, m.Factors(), 2)
	assert.False(t, m.ParallelTransport())
	assert.False(t, m.Reversible())

	_, err = product.New[float64](b)
	assert.ErrorIs(t, err, manifold.ErrInvalidParam)

	_, err = product.New(b, factor[float64]{Manifold: st, Shape: tensor.Shape{4}})
	assert.ErrorIs(t, err, manifold.ErrShape)

	_, err = product.New(b, factor[float64]{Manifold: st, Shape: tensor.Shape{2, 4}})
	assert.ErrorIs(t, err, manifold.ErrShape)
	assert.Contains(t, err.Error(), "factor 0")

	_, err = product.New(b, factor[float64]{Shape: tensor.Shape{2}})
	assert.ErrorIs(t, err, manifold.ErrInvalidParam)
}

func TestTakePack(t *testing.T) {
	m := curved[float64](t, false)
	x := tensor.Randn[float64](tensor.Shape{5, 11}, rand.New(rand.NewSource(1)), m.Backend())
	parts := make([]*cpuTensor[float64], len(m.Factors()))
	for i := range parts {
		parts[i] = m.Take(x, i)
	}
	assert.Equal(t, tensor.Shape{5, 3}, parts[2].Shape())
	assert.Equal(t, x.Data(), m.Pack(parts).Data())

	_, err := m.Projx(tensor.Zeros[float64](tensor.Shape{5, 10}, m.Backend()))
	assert.ErrorIs(t, err, manifold.ErrShape)
}

func TestMatchesFactors(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	m := curved[float64](t, false)
	so := manifold.SampleOptions[float64, *cpu.CPUBackend]{Std: 0.5, Rand: rng}
	x, err := m.RandomNormal(tensor.Shape{20, 11}, so)
	require.NoError(t, err)
	y, err := m.RandomNormal(tensor.Shape{20, 11}, so)
	require.NoError(t, err)
	require.NoError(t, manifold.AssertPointOnManifold(m, x, manifold.Tolerance{}))

	d, err := m.Dist(x, y, true)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{20, 1}, d.Shape())

	w, err := m.Logmap(x, y)
	require.NoError(t, err)
	sq := tensor.Zeros[float64](tensor.Shape{20}, m.Backend())
	for i, f := range m.Factors() {
		fd, err := f.Manifold.Dist(m.Take(x, i), m.Take(y, i), false)
		require.NoError(t, err)
		sq = sq.Add(fd.Square())

		fw, err := f.Manifold.Logmap(m.Take(x, i), m.Take(y, i))
		require.NoError(t, err)
		assert.Equal(t, fw.Data(), m.Take(w, i).Data(), f.Manifold.Name())
	}
	manifoldtest.Close(t, d.Squeeze(-1), sq.Sqrt(), manifold.Tolerance{Atol: 1e-12, Rtol: 1e-12}, "product distance")

	inner, err := m.Inner(x, w, nil, false)
	require.NoError(t, err)
	manifoldtest.Close(t, inner, d.Squeeze(-1).Square(), manifoldtest.Loose[float64](), "‖Logmap‖² = Dist²")
}

func testDistOfExpmap[T tensor.Float](t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := curved[T](t, false)
	x, err := m.RandomNormal(tensor.Shape{30, 11}, manifold.SampleOptions[T, *cpu.CPUBackend]{Std: 0.5, Rand: rng})
	require.NoError(t, err)
	v, err := m.Proju(x, tensor.Randn[T](x.Shape(), rng, m.Backend()).MulScalar(0.3))
	require.NoError(t, err)

	y, err := m.Expmap(x, v)
	require.NoError(t, err)
	d, err := m.Dist(x, y, false)
	require.NoError(t, err)
	n, err := m.Norm(x, v, false)
	require.NoError(t, err)
	manifoldtest.Close(t, d, n, manifoldtest.Loose[T](), "Dist(x, Expmap(x, v)) = ‖v‖")
}

func TestDistOfExpmap(t *testing.T) {
	t.Run("float32", testDistOfExpmap[float32])
	t.Run("float64", testDistOfExpmap[float64])
}

func TestCheckNamesFactor(t *testing.T) {
	m := curved[float64](t, false)
	x, err := m.Origin(tensor.Shape{2, 11})
	require.NoError(t, err)
	require.NoError(t, manifold.AssertPointOnManifold(m, x, manifold.Tolerance{}))

	bad := x.Data()
	bad[7] = 3 // sphere coordinates occupy [6, 9)
	y, err := tensor.FromSlice(bad, x.Shape(), m.Backend())
	require.NoError(t, err)
	c := m.CheckPointOnManifold(y, manifold.Tolerance{})
	assert.False(t, c.OK)
	assert.Contains(t, c.Reason, "factor 2 (SphereExact)")
}

func TestAggregates(t *testing.T) {
	m := curved[float64](t, true)
	assert.True(t, m.ParallelTransport())
	assert.False(t, m.Reversible())
	params := m.Parameters()
	require.Len(t, params, 1)
	assert.Equal(t, "k", params[0].Name())
}

func TestRandomNormalIsDeterministic(t *testing.T) {
	m := curved[float64](t, false)
	draw := func() []float64 {
		x, err := m.RandomNormal(tensor.Shape{8, 11}, manifold.SampleOptions[float64, *cpu.CPUBackend]{Rand: rand.New(rand.NewSource(4))})
		require.NoError(t, err)
		return x.Data()
	}
	assert.Equal(t, draw(), draw())
}

func TestMeanIsSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m := curved[float64](t, false)
	mean, err := m.RandomNormal(tensor.Shape{6, 11}, manifold.SampleOptions[float64, *cpu.CPUBackend]{Rand: rng})
	require.NoError(t, err)
	x, err := m.RandomNormal(tensor.Shape{6, 11}, manifold.SampleOptions[float64, *cpu.CPUBackend]{Mean: mean, Std: 1e-9, Rand: rng})
	require.NoError(t, err)
	manifoldtest.Close(t, x, mean, manifold.Tolerance{Atol: 1e-7}, "samples collapse onto the mean")
}

func TestDiagnostics(t *testing.T) {
	m64 := curved[float64](t, false)
	report := manifoldtest.RequireDiagnostics[float64, *cpu.CPUBackend](t, m64, tensor.Shape{11}, diagnostics.Options{Rand: rand.New(rand.NewSource(1))})
	for _, r := range report.Results {
		assert.False(t, r.Skipped, "%s: %s", r.Property, r.Reason)
	}

	m32 := curved[float32](t, false)
	manifoldtest.RequireDiagnostics[float32, *cpu.CPUBackend](t, m32, tensor.Shape{11}, diagnostics.Options{Rand: rand.New(rand.NewSource(2))})

	b := cpu.New()
	s, err := sphere.New[float64](b, sphere.Config{})
	require.NoError(t, err)
	mixed, err := product.New(b,
		factor[float64]{Manifold: s, Shape: tensor.Shape{3}},
		factor[float64]{Manifold: must(stiefel.NewCanonical[float64](b, stiefel.Config{})), Shape: tensor.Shape{3, 2}},
	)
	require.NoError(t, err)
	report = manifoldtest.RequireDiagnostics[float64, *cpu.CPUBackend](t, mixed, tensor.Shape{9}, diagnostics.Options{})
	skipped := map[diagnostics.Property]bool{}
	for _, r := range report.Results {
		skipped[r.Property] = r.Skipped
	}
	assert.True(t, skipped[diagnostics.ExpmapLogmap])
	assert.True(t, skipped[diagnostics.OriginMaps])
	assert.False(t, skipped[diagnostics.TranspTangent])
}
