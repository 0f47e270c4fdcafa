package stiefel

import (
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Points are n×p matrices with orthonormal columns, XᵀX = I_p. Every
// function accepts arbitrary leading batch axes.

// Sym returns (A + Aᵀ)/2.
func Sym[T tensor.Float, B tensor.Backend](a *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return a.Add(a.MT()).MulScalar(0.5)
}

// eye returns I_n broadcast over batch.
func eye[T tensor.Float, B tensor.Backend](batch tensor.Shape, n int, b B) *tensor.Tensor[T, B] {
	return tensor.Eye[T](n, n, b).Expand(batch.Concat(n, n))
}

// expand broadcasts the batch axes of ts against each other.
func expand[T tensor.Float, B tensor.Backend](ts ...*tensor.Tensor[T, B]) []*tensor.Tensor[T, B] {
	batch := tensor.Shape{}
	for _, t := range ts {
		s, _, err := tensor.BroadcastShapes(batch, t.Shape().Batch(2))
		if err != nil {
			panic(err)
		}
		batch = s
	}
	out := make([]*tensor.Tensor[T, B], len(ts))
	for i, t := range ts {
		s := t.Shape()
		out[i] = t.Expand(batch.Concat(s[len(s)-2:]...))
	}
	return out
}

// blocks assembles the block matrix [[a, b], [c, d]].
func blocks[T tensor.Float, B tensor.Backend](a, b, c, d *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	ex := expand(a, b, c, d)
	top := tensor.Cat([]*tensor.Tensor[T, B]{ex[0], ex[1]}, -1)
	bottom := tensor.Cat([]*tensor.Tensor[T, B]{ex[2], ex[3]}, -1)
	return tensor.Cat([]*tensor.Tensor[T, B]{top, bottom}, -2)
}

// Origin returns the first p columns of I_n broadcast to shape.
func Origin[T tensor.Float, B tensor.Backend](shape tensor.Shape, b B) *tensor.Tensor[T, B] {
	n, p := shape[len(shape)-2], shape[len(shape)-1]
	return tensor.Eye[T](n, p, b).Expand(shape)
}

// Project returns the closest point of the manifold, the polar factor UVᵀ
// of X = UΣVᵀ.
func Project[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return x.Polar()
}

// ProjectU returns U - X sym(XᵀU), the orthogonal projection onto the
// tangent space at X.
func ProjectU[T tensor.Float, B tensor.Backend](x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return u.Sub(x.MatMul(Sym(x.MT().MatMul(u))))
}

// Inner returns tr(UᵀV).
func Inner[T tensor.Float, B tensor.Backend](u, v *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	return manifold.SqueezeKeep(u.Mul(v).Sum(-1, true).Sum(-2, true), 2, keepDim)
}

// RetrQR returns the Q factor of X + U with a positive diagonal R.
func RetrQR[T tensor.Float, B tensor.Backend](x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return x.Add(u).QR()
}

// Expmap follows the geodesic of the Euclidean metric:
// [X U] expm([[XᵀU, -UᵀU], [I, XᵀU]]) [expm(-XᵀU); 0].
func Expmap[T tensor.Float, B tensor.Backend](x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	ex := expand(x, u)
	x, u = ex[0], ex[1]
	p := x.Dim(-1)
	batch := x.Shape().Batch(2)

	a := x.MT().MatMul(u)
	id := eye[T](batch, p, x.Backend())
	w := blocks(a, u.MT().MatMul(u).Neg(), id, a).Expm()
	tail := tensor.Cat([]*tensor.Tensor[T, B]{a.Neg().Expm(), tensor.Zeros[T](batch.Concat(p, p), x.Backend())}, -2)
	return tensor.Cat([]*tensor.Tensor[T, B]{x, u}, -1).MatMul(w).MatMul(tail)
}

// CanonicalInner returns tr(UᵀV) - ½ tr(UᵀXXᵀV).
func CanonicalInner[T tensor.Float, B tensor.Backend](x, u, v *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	xt := x.MT()
	return Inner(u, v, keepDim).Sub(Inner(xt.MatMul(u), xt.MatMul(v), keepDim).MulScalar(0.5))
}

// CanonicalEgrad2rgrad returns U - XUᵀX, the canonical-metric gradient of
// a Euclidean gradient U.
func CanonicalEgrad2rgrad[T tensor.Float, B tensor.Backend](x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return u.Sub(x.MatMul(u.MT()).MatMul(x))
}

// cayley returns the skew-symmetric generator A = WXᵀ - XWᵀ with
// W = U - ½XXᵀU, for which AX = U on the tangent space.
func cayley[T tensor.Float, B tensor.Backend](x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	w := u.Sub(x.MatMul(x.MT().MatMul(u)).MulScalar(0.5))
	wx := w.MatMul(x.MT())
	return wx.Sub(wx.MT())
}

// TranspFollowRetr applies the Cayley rotation (I - A/2)⁻¹(I + A/2) of the
// retraction along U to V.
func TranspFollowRetr[T tensor.Float, B tensor.Backend](x, u, v *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	ex := expand(x, u, v)
	x, u, v = ex[0], ex[1], ex[2]
	half := cayley(x, u).MulScalar(0.5)
	id := eye[T](x.Shape().Batch(2), x.Dim(-2), x.Backend())
	return id.Sub(half).Solve(v.Add(half.MatMul(v)))
}

// RetrCayley returns (I - A/2)⁻¹(I + A/2)X.
func RetrCayley[T tensor.Float, B tensor.Backend](x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return TranspFollowRetr(x, u, x)
}

// CanonicalExpmap follows the geodesic of the canonical metric:
// [X Q] expm([[A, -Rᵀ], [R, 0]]) [I; 0] with A = XᵀU and QR = U - XA.
func CanonicalExpmap[T tensor.Float, B tensor.Backend](x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	ex := expand(x, u)
	x, u = ex[0], ex[1]
	p := x.Dim(-1)
	batch := x.Shape().Batch(2)

	a := x.MT().MatMul(u)
	perp := u.Sub(x.MatMul(a))
	q := perp.QR()
	r := q.MT().MatMul(perp)
	zero := tensor.Zeros[T](batch.Concat(p, p), x.Backend())
	w := blocks(a, r.MT().Neg(), r, zero).Expm().Narrow(-1, 0, p)
	return tensor.Cat([]*tensor.Tensor[T, B]{x, q}, -1).MatMul(w)
}

// Norm returns √Inner(u, u) clamped below by MinNorm.
func Norm[T tensor.Float, B tensor.Backend](u *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	minNorm := numerics.For[T]().MinNorm
	return Inner(u, u, keepDim).ClampMin(T(minNorm * minNorm)).Sqrt()
}
