package sphere

import (
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Points satisfy ‖x‖² = 1/k; k is broadcastable against the batch shape
// followed by a singleton axis.

func squeeze[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	return manifold.SqueezeKeep(x, 1, keepDim)
}

// Origin returns the north pole (1/√k, 0, …, 0) broadcast to shape.
func Origin[T tensor.Float, B tensor.Backend](shape tensor.Shape, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	d := shape[len(shape)-1]
	batch := shape.Batch(1)
	pole := k.Sqrt().RDivScalar(1).Expand(batch.Concat(1))
	return manifold.ConcatLast(pole, tensor.Zeros[T](batch.Concat(d-1), k.Backend()))
}

// Project rescales x onto the sphere: x / (‖x‖√k).
func Project[T tensor.Float, B tensor.Backend](x, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return x.Div(numerics.Norm(x, true).Mul(k.Sqrt()))
}

// ProjectU returns u - k⟨x, u⟩x.
func ProjectU[T tensor.Float, B tensor.Backend](x, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return u.Sub(k.Mul(numerics.Dot(x, u, true)).Mul(x))
}

// Expmap returns cos(√k‖u‖)x + sin(√k‖u‖)u/(√k‖u‖).
func Expmap[T tensor.Float, B tensor.Backend](x, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	theta := numerics.Norm(u, true).Mul(k.Sqrt())
	return theta.Cos().Mul(x).Add(theta.Sin().Mul(u).Div(theta))
}

// Dist returns arccos(k⟨x, y⟩)/√k.
func Dist[T tensor.Float, B tensor.Backend](x, y, k *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	d := numerics.Arccos(k.Mul(numerics.Dot(x, y, true))).Div(k.Sqrt())
	return squeeze(d, keepDim)
}

// Logmap returns d(x, y)P/‖P‖ with P the tangent projection of y - x.
func Logmap[T tensor.Float, B tensor.Backend](x, y, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	p := ProjectU(x, y.Sub(x), k)
	return Dist(x, y, k, true).Mul(p).Div(numerics.Norm(p, true))
}

// Transp parallel-transports v from x to y along the minimising geodesic:
// v - ⟨y, v⟩/(1/k + ⟨x, y⟩)(x + y).
func Transp[T tensor.Float, B tensor.Backend](x, y, v, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	denom := numerics.ClampNorm(k.RDivScalar(1).Add(numerics.Dot(x, y, true)))
	return v.Sub(numerics.Dot(y, v, true).Div(denom).Mul(x.Add(y)))
}

// GeodesicUnit returns cos(√k t)x + sin(√k t)u/√k for a unit-speed u.
func GeodesicUnit[T tensor.Float, B tensor.Backend](tm, x, u, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	sqrtK := k.Sqrt()
	theta := tm.Mul(sqrtK)
	return theta.Cos().Mul(x).Add(theta.Sin().Mul(u).Div(sqrtK))
}

// Dist0 returns the distance from the north pole, arccos(√k y₀)/√k.
func Dist0[T tensor.Float, B tensor.Backend](y, k *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	sqrtK := k.Sqrt()
	return squeeze(numerics.Arccos(sqrtK.Mul(y.Narrow(-1, 0, 1))).Div(sqrtK), keepDim)
}
