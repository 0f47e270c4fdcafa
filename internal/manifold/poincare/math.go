package poincare

import (
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Closed-form gyrovector maths on the ball of radius 1/√c. c is a scalar
// tensor or broadcastable against the batch shape followed by a singleton
// axis. Reductions keep the last axis unless noted.

func sqnorm[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return numerics.Dot(x, x, true)
}

func squeeze[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	return manifold.SqueezeKeep(x, 1, keepDim)
}

// Lambda returns the conformal factor 2 / (1 - c‖x‖²).
func Lambda[T tensor.Float, B tensor.Backend](x, c *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	denom := numerics.ClampNorm(c.Mul(sqnorm(x)).RSubScalar(1))
	return squeeze(denom.RDivScalar(2), keepDim)
}

// Inner returns λ_x² ⟨u, v⟩.
func Inner[T tensor.Float, B tensor.Backend](x, u, v, c *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	return squeeze(Lambda(x, c, true).Square().Mul(numerics.Dot(u, v, true)), keepDim)
}

// TangentNorm returns λ_x ‖u‖.
func TangentNorm[T tensor.Float, B tensor.Backend](x, u, c *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	return squeeze(Lambda(x, c, true).Mul(numerics.Norm(u, true)), keepDim)
}

// Project clips x to the radius (1 - ε)/√c without branching.
func Project[T tensor.Float, B tensor.Backend](x, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	maxNorm := c.Sqrt().RDivScalar(T(1 - numerics.For[T]().BallEps))
	return x.Mul(maxNorm.Div(numerics.Norm(x, true)).ClampMax(1))
}

// MobiusAdd returns the gyrovector sum x ⊕ y.
func MobiusAdd[T tensor.Float, B tensor.Backend](x, y, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	x2, y2, xy := sqnorm(x), sqnorm(y), numerics.Dot(x, y, true)
	twoCXY := c.Mul(xy).MulScalar(2)
	num := twoCXY.Add(c.Mul(y2)).AddScalar(1).Mul(x).Add(c.Mul(x2).RSubScalar(1).Mul(y))
	denom := twoCXY.Add(c.Square().Mul(x2).Mul(y2)).AddScalar(1)
	return num.Div(numerics.ClampNorm(denom))
}

// MobiusSub returns x ⊕ (-y).
func MobiusSub[T tensor.Float, B tensor.Backend](x, y, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return MobiusAdd(x, y.Neg(), c)
}

// MobiusScalarMul returns the gyrovector scalar product r ⊗ x.
func MobiusScalarMul[T tensor.Float, B tensor.Backend](r, x, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	xn := numerics.Norm(x, true)
	scale := r.Mul(numerics.Artanh(sqrtC.Mul(xn))).Tanh()
	return scale.Mul(x).Div(xn.Mul(sqrtC))
}

// MobiusMatvec applies the matrix m (out × in) to x in the gyrovector sense.
func MobiusMatvec[T tensor.Float, B tensor.Backend](m, x, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	xn := numerics.Norm(x, true)
	mx := x.Unsqueeze(-2).MatMul(m.MT()).Squeeze(-2)
	mxn := numerics.Norm(mx, true)
	scale := mxn.Div(xn).Mul(numerics.Artanh(sqrtC.Mul(xn))).Tanh()
	return scale.Mul(mx).Div(mxn.Mul(sqrtC))
}

// Gyration returns gyr[u, v]w.
func Gyration[T tensor.Float, B tensor.Backend](u, v, w, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	u2, v2 := sqnorm(u), sqnorm(v)
	uv, uw, vw := numerics.Dot(u, v, true), numerics.Dot(u, w, true), numerics.Dot(v, w, true)
	c2 := c.Square()
	a := c2.Mul(uw).Mul(v2).Neg().Add(c.Mul(vw)).Add(c2.Mul(uv).Mul(vw).MulScalar(2))
	b := c2.Mul(vw).Mul(u2).Neg().Sub(c.Mul(uw))
	d := c.Mul(uv).MulScalar(2).Add(c2.Mul(u2).Mul(v2)).AddScalar(1)
	return w.Add(a.Mul(u).Add(b.Mul(v)).MulScalar(2).Div(numerics.ClampNorm(d)))
}

// Expmap returns x ⊕ tanh(√c λ_x ‖u‖ / 2) u / (√c ‖u‖).
func Expmap[T tensor.Float, B tensor.Backend](x, u, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	un := numerics.Norm(u, true)
	second := sqrtC.Mul(Lambda(x, c, true)).Mul(un).MulScalar(0.5).Tanh().Mul(u).Div(sqrtC.Mul(un))
	return MobiusAdd(x, second, c)
}

// Expmap0 returns tanh(√c ‖u‖) u / (√c ‖u‖).
func Expmap0[T tensor.Float, B tensor.Backend](u, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	un := numerics.Norm(u, true)
	return sqrtC.Mul(un).Tanh().Mul(u).Div(sqrtC.Mul(un))
}

// Logmap returns 2/(√c λ_x) artanh(√c ‖-x ⊕ y‖) (-x ⊕ y)/‖-x ⊕ y‖.
func Logmap[T tensor.Float, B tensor.Backend](x, y, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	sub := MobiusAdd(x.Neg(), y, c)
	sn := numerics.Norm(sub, true)
	scale := numerics.Artanh(sqrtC.Mul(sn)).MulScalar(2).Div(sqrtC.Mul(Lambda(x, c, true)))
	return scale.Mul(sub).Div(sn)
}

// Logmap0 returns artanh(√c ‖y‖) y / (√c ‖y‖).
func Logmap0[T tensor.Float, B tensor.Backend](y, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	yn := numerics.Norm(y, true)
	return numerics.Artanh(sqrtC.Mul(yn)).Mul(y).Div(sqrtC.Mul(yn))
}

// Logmap0Back returns Logmap(y, 0).
func Logmap0Back[T tensor.Float, B tensor.Backend](y, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return Logmap(y, y.MulScalar(0), c)
}

// Dist returns 2/√c artanh(√c ‖-x ⊕ y‖).
func Dist[T tensor.Float, B tensor.Backend](x, y, c *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	sn := numerics.Norm(MobiusAdd(x.Neg(), y, c), true)
	return squeeze(numerics.Artanh(sqrtC.Mul(sn)).MulScalar(2).Div(sqrtC), keepDim)
}

// Dist0 returns 2/√c artanh(√c ‖y‖).
func Dist0[T tensor.Float, B tensor.Backend](y, c *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	return squeeze(numerics.Artanh(sqrtC.Mul(numerics.Norm(y, true))).MulScalar(2).Div(sqrtC), keepDim)
}

// Transp parallel-transports v from x to y: gyr[y, -x]v λ_x / λ_y.
func Transp[T tensor.Float, B tensor.Backend](x, y, v, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return Gyration(y, x.Neg(), v, c).Mul(Lambda(x, c, true)).Div(Lambda(y, c, true))
}

// Transp0 transports u from the origin to y: u (1 - c‖y‖²).
func Transp0[T tensor.Float, B tensor.Backend](y, u, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return u.Mul(numerics.ClampNorm(c.Mul(sqnorm(y)).RSubScalar(1)))
}

// Transp0Back transports u from y to the origin: u / (1 - c‖y‖²).
func Transp0Back[T tensor.Float, B tensor.Backend](y, u, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return u.Div(numerics.ClampNorm(c.Mul(sqnorm(y)).RSubScalar(1)))
}

// Egrad2rgrad rescales a Euclidean gradient by λ_x⁻².
func Egrad2rgrad[T tensor.Float, B tensor.Backend](x, u, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return u.Div(Lambda(x, c, true).Square())
}

// Geodesic returns the point at fraction t of the geodesic from x to y:
// x ⊕ (t ⊗ (-x ⊕ y)).
func Geodesic[T tensor.Float, B tensor.Backend](t, x, y, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return MobiusAdd(x, MobiusScalarMul(t, MobiusAdd(x.Neg(), y, c), c), c)
}

// GeodesicUnit returns x ⊕ tanh(√c t / 2) u / (√c ‖u‖) for u of unit
// Riemannian length.
func GeodesicUnit[T tensor.Float, B tensor.Backend](t, x, u, c *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	second := sqrtC.Mul(t).MulScalar(0.5).Tanh().Mul(u).Div(sqrtC.Mul(numerics.Norm(u, true)))
	return MobiusAdd(x, second, c)
}

// Dist2Plane returns the distance from x to the gyroplane through p with
// normal a.
func Dist2Plane[T tensor.Float, B tensor.Backend](x, p, a, c *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	sqrtC := c.Sqrt()
	diff := MobiusAdd(p.Neg(), x, c)
	num := sqrtC.Mul(numerics.Dot(diff, a, true).Abs()).MulScalar(2)
	denom := c.Mul(sqnorm(diff)).RSubScalar(1).Mul(numerics.Norm(a, true))
	return squeeze(numerics.Arsinh(num.Div(numerics.ClampNorm(denom))).Div(sqrtC), keepDim)
}
