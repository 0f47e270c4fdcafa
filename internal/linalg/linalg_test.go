package linalg

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/tensor"
)

func randRaw(rng *rand.Rand, shape tensor.Shape) *tensor.RawTensor {
	vals := make([]float64, shape.NumElements())
	for i := range vals {
		vals[i] = rng.NormFloat64()
	}
	return tensor.FromValues(vals, shape, tensor.Float64, tensor.CPU)
}

func raw(vals []float64, shape ...int) *tensor.RawTensor {
	return tensor.FromValues(vals, tensor.Shape(shape), tensor.Float64, tensor.CPU)
}

// numericVJP returns ⟨g, ∂f/∂a⟩ by central differences.
func numericVJP(f func(*tensor.RawTensor) *tensor.RawTensor, a, g *tensor.RawTensor) []float64 {
	const h = 1e-6
	base := a.Values()
	gv := g.Values()
	out := make([]float64, len(base))
	for j := range base {
		plus := append([]float64(nil), base...)
		minus := append([]float64(nil), base...)
		plus[j] += h
		minus[j] -= h
		fp := f(tensor.FromValues(plus, a.Shape(), a.DType(), a.Device())).Values()
		fm := f(tensor.FromValues(minus, a.Shape(), a.DType(), a.Device())).Values()
		for k := range fp {
			out[j] += gv[k] * (fp[k] - fm[k]) / (2 * h)
		}
	}
	return out
}

func assertOrthonormalColumns(t *testing.T, q *tensor.RawTensor) {
	t.Helper()
	qtq := MatMul(tensor.TransposeLast2Raw(q), q)
	p := q.Shape()[len(q.Shape())-1]
	vals := qtq.Values()
	for b := 0; b < len(vals)/(p*p); b++ {
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				assert.InDelta(t, want, vals[b*p*p+i*p+j], 1e-10)
			}
		}
	}
}

func TestMatMul(t *testing.T) {
	a := raw([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw([]float64{7, 8, 9, 10, 11, 12}, 3, 2)

	c := MatMul(a, b)

	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Values())
}

func TestMatMul_Float32Batch(t *testing.T) {
	a := tensor.FromValues([]float64{1, 0, 0, 1, 2, 0, 0, 2}, tensor.Shape{2, 2, 2}, tensor.Float32, tensor.CPU)
	b := tensor.FromValues([]float64{1, 2, 3, 4, 1, 2, 3, 4}, tensor.Shape{2, 2, 2}, tensor.Float32, tensor.CPU)

	c := MatMul(a, b)

	assert.Equal(t, tensor.Float32, c.DType())
	assert.Equal(t, []float32{1, 2, 3, 4, 2, 4, 6, 8}, c.AsFloat32())
}

func TestSolve(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := randRaw(rng, tensor.Shape{3, 4, 4})
	b := randRaw(rng, tensor.Shape{3, 4, 2})

	x := Solve(a, b)
	back := MatMul(a, x)

	assert.InDeltaSlice(t, b.Values(), back.Values(), 1e-10)
}

func TestExpm(t *testing.T) {
	zero := raw(make([]float64, 9), 3, 3)
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, Expm(zero).Values(), 1e-14)

	diag := raw([]float64{1, 0, 0, -2}, 2, 2)
	assert.InDeltaSlice(t, []float64{math.E, 0, 0, math.Exp(-2)}, Expm(diag).Values(), 1e-12)

	// exp of a skew-symmetric 2×2 is a rotation
	skew := raw([]float64{0, -0.3, 0.3, 0}, 2, 2)
	c, s := math.Cos(0.3), math.Sin(0.3)
	assert.InDeltaSlice(t, []float64{c, -s, s, c}, Expm(skew).Values(), 1e-12)
}

func TestQR_PositiveDiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := randRaw(rng, tensor.Shape{4, 5, 3})

	q := QR(a)
	require.Equal(t, a.Shape(), q.Shape())
	assertOrthonormalColumns(t, q)

	r := MatMul(tensor.TransposeLast2Raw(q), a).Values()
	for b := 0; b < 4; b++ {
		for i := 0; i < 3; i++ {
			assert.Greater(t, r[b*9+i*3+i], 0.0)
			for j := 0; j < i; j++ {
				assert.InDelta(t, 0, r[b*9+i*3+j], 1e-10)
			}
		}
	}
}

func TestPolar(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := randRaw(rng, tensor.Shape{2, 6, 2})

	q := Polar(a)
	assertOrthonormalColumns(t, q)

	// idempotent on matrices with orthonormal columns
	assert.InDeltaSlice(t, q.Values(), Polar(q).Values(), 1e-10)
}

func TestSolveVJP(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := randRaw(rng, tensor.Shape{3, 3})
	b := randRaw(rng, tensor.Shape{3, 2})
	g := randRaw(rng, tensor.Shape{3, 2})

	gA, gB := SolveVJP(a, Solve(a, b), g)

	wantA := numericVJP(func(x *tensor.RawTensor) *tensor.RawTensor { return Solve(x, b) }, a, g)
	wantB := numericVJP(func(x *tensor.RawTensor) *tensor.RawTensor { return Solve(a, x) }, b, g)
	assert.InDeltaSlice(t, wantA, gA.Values(), 1e-5)
	assert.InDeltaSlice(t, wantB, gB.Values(), 1e-5)
}

func TestExpmVJP(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := randRaw(rng, tensor.Shape{4, 4})
	g := randRaw(rng, tensor.Shape{4, 4})

	got := ExpmVJP(a, g)

	want := numericVJP(Expm, a, g)
	assert.InDeltaSlice(t, want, got.Values(), 1e-5)
}

func TestQRVJP(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	a := randRaw(rng, tensor.Shape{5, 3})
	g := randRaw(rng, tensor.Shape{5, 3})

	got := QRVJP(a, g)

	want := numericVJP(QR, a, g)
	assert.InDeltaSlice(t, want, got.Values(), 1e-5)
}

func TestPolarVJP(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := randRaw(rng, tensor.Shape{5, 3})
	g := randRaw(rng, tensor.Shape{5, 3})

	got := PolarVJP(a, g)

	want := numericVJP(Polar, a, g)
	assert.InDeltaSlice(t, want, got.Values(), 1e-5)
}
