package lorentz

import (
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// The functions below are the closed-form hyperboloid maths. Points live in
// R^{d} with the time coordinate at index 0 and satisfy ⟨x, x⟩_L = -K with
// x₀ > 0. k is the K tensor: a scalar or broadcastable against the batch
// shape followed by a singleton axis.

func split[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) (time, space *tensor.Tensor[T, B]) {
	d := x.Dim(-1)
	return x.Narrow(-1, 0, 1), x.Narrow(-1, 1, d-1)
}

func squeeze[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	return manifold.SqueezeKeep(x, 1, keepDim)
}

// Inner returns the Minkowski form -u₀v₀ + Σ uᵢvᵢ.
func Inner[T tensor.Float, B tensor.Backend](u, v *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	time, space := split(u.Mul(v))
	return squeeze(space.Sum(-1, true).Sub(time), keepDim)
}

// TangentNorm returns √⟨u, u⟩_L clamped below by MinNorm.
func TangentNorm[T tensor.Float, B tensor.Backend](u *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	minNorm := numerics.For[T]().MinNorm
	return Inner(u, u, keepDim).ClampMin(T(minNorm * minNorm)).Sqrt()
}

// Inner0 returns ⟨origin, v⟩_L = -√K v₀.
func Inner0[T tensor.Float, B tensor.Backend](v, k *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	time, _ := split(v)
	return squeeze(time.Mul(k.Sqrt()).Neg(), keepDim)
}

// Origin returns (√K, 0, …, 0) broadcast to shape.
func Origin[T tensor.Float, B tensor.Backend](shape tensor.Shape, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	d := shape[len(shape)-1]
	batch := shape.Batch(1)
	time := k.Sqrt().Expand(batch.Concat(1))
	space := tensor.Zeros[T](batch.Concat(d-1), k.Backend())
	return manifold.ConcatLast(time, space)
}

// Project recomputes the time coordinate x₀ = √(K + ‖x_s‖²).
func Project[T tensor.Float, B tensor.Backend](x, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	_, space := split(x)
	time := k.Add(space.Square().Sum(-1, true)).Sqrt()
	return manifold.ConcatLast(time, space)
}

// ProjectU returns v + ⟨x, v⟩_L x / K.
func ProjectU[T tensor.Float, B tensor.Backend](x, v, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return v.Add(Inner(x, v, true).Mul(x).Div(k))
}

// Egrad2rgrad flips the sign of the time component, applying the inverse
// Minkowski metric, and projects onto the tangent space.
func Egrad2rgrad[T tensor.Float, B tensor.Backend](x, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	time, space := split(u)
	return ProjectU(x, manifold.ConcatLast(time.Neg(), space), k)
}

// Expmap returns cosh(‖u‖/√K) x + √K sinh(‖u‖/√K) u/‖u‖.
func Expmap[T tensor.Float, B tensor.Backend](x, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtK := k.Sqrt()
	nu := TangentNorm(u, true)
	theta := nu.Div(sqrtK)
	return theta.Cosh().Mul(x).Add(sqrtK.Mul(theta.Sinh()).Mul(u).Div(nu))
}

// Expmap0 is Expmap at the origin; the time component of u is ignored.
func Expmap0[T tensor.Float, B tensor.Backend](u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtK := k.Sqrt()
	_, space := split(u)
	nu := numerics.Norm(space, true)
	theta := nu.Div(sqrtK)
	time := sqrtK.Mul(theta.Cosh())
	return manifold.ConcatLast(time, sqrtK.Mul(theta.Sinh()).Mul(space).Div(nu))
}

// Dist returns √K arcosh(-⟨x, y⟩_L / K) in its chord form
// 2√K arsinh(‖x - y‖_L / 2√K), which is exactly zero for x = y.
func Dist[T tensor.Float, B tensor.Backend](x, y, k *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	twoSqrtK := k.Sqrt().MulScalar(2)
	chord := TangentNorm(x.Sub(y), true)
	return squeeze(twoSqrtK.Mul(numerics.Arsinh(chord.Div(twoSqrtK))), keepDim)
}

// Dist0 returns √K arcosh(y₀ / √K), the distance from the origin.
func Dist0[T tensor.Float, B tensor.Backend](y, k *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	sqrtK := k.Sqrt()
	time, _ := split(y)
	return squeeze(sqrtK.Mul(numerics.Arcosh(time.Div(sqrtK))), keepDim)
}

// Logmap returns d(x, y) P/‖P‖_L with P = y + ⟨x, y⟩_L x / K.
func Logmap[T tensor.Float, B tensor.Backend](x, y, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	p := y.Add(Inner(x, y, true).Mul(x).Div(k))
	return Dist(x, y, k, true).Mul(p).Div(TangentNorm(p, true))
}

// Logmap0 is Logmap at the origin.
func Logmap0[T tensor.Float, B tensor.Backend](y, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	time, space := split(y)
	scale := Dist0(y, k, true).Div(numerics.Norm(space, true))
	return manifold.ConcatLast(time.MulScalar(0), scale.Mul(space))
}

// Logmap0Back returns Logmap(y, origin).
func Logmap0Back[T tensor.Float, B tensor.Backend](y, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return Logmap(y, Origin(y.Shape(), k), k)
}

// Transp parallel-transports v from x to y:
// v + ⟨y, v⟩_L / (K - ⟨x, y⟩_L) (x + y).
func Transp[T tensor.Float, B tensor.Backend](x, y, v, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	denom := numerics.ClampNorm(k.Sub(Inner(x, y, true)))
	return v.Add(Inner(y, v, true).Div(denom).Mul(x.Add(y)))
}

// Transp0 transports u from the origin to y.
func Transp0[T tensor.Float, B tensor.Backend](y, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return Transp(Origin(y.Shape(), k), y, u, k)
}

// Transp0Back transports u from y to the origin.
func Transp0Back[T tensor.Float, B tensor.Backend](y, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return Transp(y, Origin(y.Shape(), k), u, k)
}

// GeodesicUnit returns cosh(t/√K) x + √K sinh(t/√K) u for a unit-speed u.
func GeodesicUnit[T tensor.Float, B tensor.Backend](tm, x, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtK := k.Sqrt()
	theta := tm.Div(sqrtK)
	return theta.Cosh().Mul(x).Add(sqrtK.Mul(theta.Sinh()).Mul(u))
}

// ToPoincare maps the hyperboloid isometrically onto the Poincaré ball of
// radius √K (curvature -1/K): √K x_s / (x₀ + √K).
func ToPoincare[T tensor.Float, B tensor.Backend](x, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtK := k.Sqrt()
	time, space := split(x)
	return sqrtK.Mul(space).Div(time.Add(sqrtK))
}

// FromPoincare inverts ToPoincare.
func FromPoincare[T tensor.Float, B tensor.Backend](p, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sq := p.Square().Sum(-1, true)
	denom := numerics.ClampNorm(k.Sub(sq))
	time := k.Sqrt().Mul(k.Add(sq)).Div(denom)
	return manifold.ConcatLast(time, k.MulScalar(2).Mul(p).Div(denom))
}
