package stiefel_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/diagnostics"
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/manifold/manifoldtest"
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

type cpuTensor[T tensor.Float] = tensor.Tensor[T, *cpu.CPUBackend]

func flavours[T tensor.Float]() []manifold.Manifold[T, *cpu.CPUBackend] {
	b := cpu.New()
	return []manifold.Manifold[T, *cpu.CPUBackend]{must(stiefel.New[T](b, stiefel.Config{})), must(stiefel.NewExact[T](b, stiefel.Config{})), must(stiefel.NewCanonical[T](b, stiefel.Config{}))}
}

func pointAndTangent[T tensor.Float](t *testing.T, m manifold.Manifold[T, *cpu.CPUBackend], rng *rand.Rand, shape tensor.Shape) (x, u *cpuTensor[T]) {
	t.Helper()
	x, err := m.RandomNormal(shape, manifold.SampleOptions[T, *cpu.CPUBackend]{Rand: rng})
	require.NoError(t, err)
	u, err = m.Proju(x, tensor.Randn[T](shape, rng, m.Backend()))
	require.NoError(t, err)
	return x, u
}

func TestNew(t *testing.T) {
	names := []string{"EuclideanStiefel", "EuclideanStiefelExact", "CanonicalStiefel"}
	for i, m := range flavours[float64]() {
		assert.Equal(t, names[i], m.Name())
		assert.Equal(t, 2, m.Ndim())
	}
	assert.False(t, must(stiefel.New[float64](cpu.New(), stiefel.Config{})).Reversible())
	assert.True(t, must(stiefel.NewCanonical[float64](cpu.New(), stiefel.Config{})).Reversible())

	for _, cfg := range []stiefel.Config{{N: 2, P: 3}, {N: 3}, {P: 1}} {
		_, err := stiefel.New[float64](cpu.New(), cfg)
		assert.ErrorIs(t, err, manifold.ErrInvalidParam, "%+v", cfg)
	}
}

func TestDeclaredSize(t *testing.T) {
	m, err := stiefel.NewExact[float64](cpu.New(), stiefel.Config{N: 4, P: 2})
	require.NoError(t, err)
	_, err = m.Origin(tensor.Shape{3, 4, 2})
	require.NoError(t, err)
	_, err = m.Origin(tensor.Shape{4, 3})
	assert.ErrorIs(t, err, manifold.ErrShape)
	_, err = m.Origin(tensor.Shape{5, 2})
	assert.ErrorIs(t, err, manifold.ErrShape)

	x := must(stiefel.NewExact[float64](cpu.New(), stiefel.Config{}))
	o, err := x.Origin(tensor.Shape{3, 2})
	require.NoError(t, err)
	_, err = m.Proju(o, o)
	assert.ErrorIs(t, err, manifold.ErrShape)
	assert.ErrorContains(t, err, "need 4×2, got 3×2")
}

func testProjection[T tensor.Float](t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, m := range flavours[T]() {
		raw := tensor.Randn[T](tensor.Shape{4, 6, 3}, rng, m.Backend())
		x, err := m.Projx(raw)
		require.NoError(t, err)
		require.NoError(t, manifold.AssertPointOnManifold(m, x, manifold.Tolerance{}), m.Name())

		again, err := m.Projx(x)
		require.NoError(t, err)
		manifoldtest.Close(t, again, x, manifoldtest.Loose[T](), "Projx is idempotent")

		u, err := m.Proju(x, tensor.Randn[T](x.Shape(), rng, m.Backend()))
		require.NoError(t, err)
		require.NoError(t, manifold.AssertVectorOnTangent(m, x, u, manifold.Tolerance{}), m.Name())
	}
}

func TestProjection(t *testing.T) {
	t.Run("float32", testProjection[float32])
	t.Run("float64", testProjection[float64])
}

func TestOriginAndChecks(t *testing.T) {
	m := must(stiefel.New[float64](cpu.New(), stiefel.Config{}))
	o, err := m.Origin(tensor.Shape{3, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0}, o.Data())
	require.NoError(t, manifold.AssertPointOnManifold(m, o, manifold.Tolerance{}))

	c := m.CheckPointOnManifold(o.MulScalar(2), manifold.Tolerance{})
	assert.False(t, c.OK)
	assert.InDelta(t, 3.0, c.Residual, 1e-12)

	assert.ErrorIs(t, manifold.AssertVectorOnTangent(m, o, o, manifold.Tolerance{}), manifold.ErrNotOnTangent)

	_, err = m.Origin(tensor.Shape{2, 3})
	assert.ErrorIs(t, err, manifold.ErrShape)
	_, err = m.Projx(tensor.Zeros[float64](tensor.Shape{4}, m.Backend()))
	assert.ErrorIs(t, err, manifold.ErrShape)
}

func TestNoLogarithm(t *testing.T) {
	for _, m := range flavours[float64]() {
		o, err := m.Origin(tensor.Shape{4, 2})
		require.NoError(t, err)
		_, err = m.Logmap(o, o)
		assert.ErrorIs(t, err, manifold.ErrNotImplemented)
		_, err = m.Dist(o, o, false)
		assert.ErrorIs(t, err, manifold.ErrNotImplemented)
		assert.Contains(t, err.Error(), m.Name()+".Dist")
	}
}

// velocity returns (step(h) - step(-h)) / 2h.
func velocity(step func(h float64) *cpuTensor[float64], h float64) *cpuTensor[float64] {
	return step(h).Sub(step(-h)).DivScalar(2 * h)
}

func TestRetractionsAreFirstOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const h = 1e-6
	tol := manifold.Tolerance{Atol: 1e-6, Rtol: 1e-6}
	for _, m := range flavours[float64]() {
		x, u := pointAndTangent(t, m, rng, tensor.Shape{3, 5, 2})
		step := func(h float64) *cpuTensor[float64] {
			y, err := m.Retr(x, u.MulScalar(h))
			require.NoError(t, err)
			return y
		}
		manifoldtest.Close(t, velocity(step, h), u, tol, m.Name()+": d/dt Retr(x, tu) at 0")

		y, err := m.Retr(x, u.MulScalar(0.7))
		require.NoError(t, err)
		require.NoError(t, manifold.AssertPointOnManifold(m, y, manifold.Tolerance{}), m.Name())

		zero, err := m.Retr(x, tensor.Zeros[float64](x.Shape(), m.Backend()))
		require.NoError(t, err)
		manifoldtest.Close(t, zero, x, manifold.Tolerance{Atol: 1e-12}, m.Name()+": Retr(x, 0)")
	}
}

func TestGeodesicsHaveConstantSpeed(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const h = 1e-5
	tol := manifold.Tolerance{Atol: 1e-6, Rtol: 1e-6}
	for _, m := range []manifold.Manifold[float64, *cpu.CPUBackend]{
		must(stiefel.NewExact[float64](cpu.New(), stiefel.Config{})), must(stiefel.NewCanonical[float64](cpu.New(), stiefel.Config{})),
	} {
		x, u := pointAndTangent(t, m, rng, tensor.Shape{4, 6, 3})
		speed0, err := m.Norm(x, u, false)
		require.NoError(t, err)

		for _, s := range []float64{0.5, 1.5} {
			at := func(h float64) *cpuTensor[float64] {
				y, err := m.Expmap(x, u.MulScalar(s+h), manifold.WithProject(false))
				require.NoError(t, err)
				return y
			}
			y, vel := at(0), velocity(at, h)
			require.NoError(t, manifold.AssertVectorOnTangent(m, y, vel, manifold.Tolerance{Atol: 1e-6}))
			speed, err := m.Norm(y, vel, false)
			require.NoError(t, err)
			manifoldtest.Close(t, speed, speed0, tol, m.Name()+": geodesic speed")
		}
	}
}

func TestGeodesicsAgreeOnHorizontalVectors(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	euc := must(stiefel.NewExact[float64](cpu.New(), stiefel.Config{}))
	can := must(stiefel.NewCanonical[float64](cpu.New(), stiefel.Config{}))

	x, _ := pointAndTangent[float64](t, euc, rng, tensor.Shape{5, 7, 2})
	g := tensor.Randn[float64](x.Shape(), rng, euc.Backend())
	u := g.Sub(x.MatMul(x.MT().MatMul(g))) // XᵀU = 0

	a, err := euc.Expmap(x, u)
	require.NoError(t, err)
	b, err := can.Expmap(x, u)
	require.NoError(t, err)
	manifoldtest.Close(t, b, a, manifold.Tolerance{Atol: 1e-9, Rtol: 1e-9}, "Euclidean and canonical geodesics")
}

func TestEgrad2rgrad(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, m := range flavours[float64]() {
		x, v := pointAndTangent(t, m, rng, tensor.Shape{6, 5, 3})
		g := tensor.Randn[float64](x.Shape(), rng, m.Backend())
		rg, err := m.Egrad2rgrad(x, g)
		require.NoError(t, err)
		require.NoError(t, manifold.AssertVectorOnTangent(m, x, rg, manifold.Tolerance{}), m.Name())

		// ⟨rgrad, v⟩_x equals the Euclidean pairing tr(Gᵀv) on tangent v.
		got, err := m.Inner(x, rg, v, false)
		require.NoError(t, err)
		manifoldtest.Close(t, got, stiefel.Inner(g, v, false), manifold.Tolerance{Atol: 1e-10, Rtol: 1e-10}, m.Name()+": metric duality")
	}
}

func TestCanonicalIsReversible(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	m := must(stiefel.NewCanonical[float64](cpu.New(), stiefel.Config{}))
	x, u := pointAndTangent[float64](t, m, rng, tensor.Shape{3, 6, 2})

	y, w, err := m.RetrTransp(x, u, u)
	require.NoError(t, err)
	require.NoError(t, manifold.AssertVectorOnTangent(m, y, w, manifold.Tolerance{}))

	alone, err := m.TranspFollowRetr(x, u, u)
	require.NoError(t, err)
	manifoldtest.Close(t, w, alone, manifold.Tolerance{Atol: 1e-12, Rtol: 1e-12}, "RetrTransp transport")

	back, err := m.Retr(y, w.Neg())
	require.NoError(t, err)
	manifoldtest.Close(t, back, x, manifold.Tolerance{Atol: 1e-10, Rtol: 1e-10}, "Retr(Retr(x, u), -τu)")

	// The Cayley rotation is an isometry of the canonical metric.
	before, err := m.Norm(x, u, false)
	require.NoError(t, err)
	after, err := m.Norm(y, w, false)
	require.NoError(t, err)
	manifoldtest.Close(t, after, before, manifold.Tolerance{Atol: 1e-10, Rtol: 1e-10}, "rotated length")
}

func TestBroadcastBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := must(stiefel.NewExact[float64](cpu.New(), stiefel.Config{}))
	x, err := m.RandomNormal(tensor.Shape{5, 2}, manifold.SampleOptions[float64, *cpu.CPUBackend]{Rand: rng})
	require.NoError(t, err)
	u, err := m.Proju(x, tensor.Randn[float64](tensor.Shape{4, 5, 2}, rng, m.Backend()))
	require.NoError(t, err)

	y, err := m.Expmap(x, u)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 5, 2}, y.Shape())
	require.NoError(t, manifold.AssertPointOnManifold(m, y, manifold.Tolerance{}))
}

func TestDiagnostics(t *testing.T) {
	for _, m := range flavours[float64]() {
		report := manifoldtest.RequireDiagnostics[float64, *cpu.CPUBackend](t, m, tensor.Shape{5, 2}, diagnostics.Options{Rand: rand.New(rand.NewSource(1))})
		for _, r := range report.Results {
			if r.Property == diagnostics.ExpmapLogmap {
				assert.True(t, r.Skipped, "no closed-form logarithm")
			}
		}
	}
	for _, m := range flavours[float32]() {
		manifoldtest.RequireDiagnostics[float32, *cpu.CPUBackend](t, m, tensor.Shape{4, 3}, diagnostics.Options{Rand: rand.New(rand.NewSource(2))})
	}
}

func TestGradients(t *testing.T) {
	x0 := []float64{0.8, 0.1, -0.2, 0.9, 0.3, -0.1}
	u0 := []float64{0.1, -0.3, 0.2, 0.05, -0.1, 0.4}
	shapes := []tensor.Shape{{3, 2}, {3, 2}}
	score := func(y *tensor.Tensor[float64, *manifoldtest.AD]) *tensor.Tensor[float64, *manifoldtest.AD] {
		return y.Narrow(-2, 0, 1).SumAll().Add(y.Sin().SumAll())
	}

	t.Run("expmap", func(t *testing.T) {
		manifoldtest.CheckGradient(t, func(in []*tensor.Tensor[float64, *manifoldtest.AD]) *tensor.Tensor[float64, *manifoldtest.AD] {
			return score(stiefel.Expmap(in[0], in[1]))
		}, [][]float64{x0, u0}, shapes, 1e-6)
	})
	t.Run("qr", func(t *testing.T) {
		manifoldtest.CheckGradient(t, func(in []*tensor.Tensor[float64, *manifoldtest.AD]) *tensor.Tensor[float64, *manifoldtest.AD] {
			return score(stiefel.RetrQR(in[0], in[1]))
		}, [][]float64{x0, u0}, shapes, 1e-6)
	})
	t.Run("cayley", func(t *testing.T) {
		manifoldtest.CheckGradient(t, func(in []*tensor.Tensor[float64, *manifoldtest.AD]) *tensor.Tensor[float64, *manifoldtest.AD] {
			return score(stiefel.RetrCayley(in[0], in[1]))
		}, [][]float64{x0, u0}, shapes, 1e-6)
	})
}
