package tensor

import (
	"fmt"
	"math"
)

// Add returns t + other with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Sub returns t - other with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

// Mul returns t * other with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// Div returns t / other with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

// AddScalar returns t + s.
func (t *Tensor[T, B]) AddScalar(s T) *Tensor[T, B] {
	return t.wrap(t.backend.AddScalar(t.raw, float64(s)))
}

// SubScalar returns t - s.
func (t *Tensor[T, B]) SubScalar(s T) *Tensor[T, B] {
	return t.wrap(t.backend.AddScalar(t.raw, -float64(s)))
}

// RSubScalar returns s - t.
func (t *Tensor[T, B]) RSubScalar(s T) *Tensor[T, B] {
	return t.Neg().AddScalar(s)
}

// MulScalar returns t * s.
func (t *Tensor[T, B]) MulScalar(s T) *Tensor[T, B] {
	return t.wrap(t.backend.MulScalar(t.raw, float64(s)))
}

// DivScalar returns t / s.
func (t *Tensor[T, B]) DivScalar(s T) *Tensor[T, B] {
	return t.wrap(t.backend.MulScalar(t.raw, 1/float64(s)))
}

// RDivScalar returns s / t.
func (t *Tensor[T, B]) RDivScalar(s T) *Tensor[T, B] {
	return Scalar(s, t.backend).Div(t)
}

// Neg returns -t.
func (t *Tensor[T, B]) Neg() *Tensor[T, B] { return t.wrap(t.backend.Neg(t.raw)) }

// Square returns t * t.
func (t *Tensor[T, B]) Square() *Tensor[T, B] { return t.Mul(t) }

// Exp returns e^t.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] { return t.wrap(t.backend.Exp(t.raw)) }

// Log returns ln(t).
func (t *Tensor[T, B]) Log() *Tensor[T, B] { return t.wrap(t.backend.Log(t.raw)) }

// Sqrt returns √t.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] { return t.wrap(t.backend.Sqrt(t.raw)) }

// Abs returns |t|.
func (t *Tensor[T, B]) Abs() *Tensor[T, B] { return t.wrap(t.backend.Abs(t.raw)) }

// Sign returns the element-wise sign (-1, 0 or 1).
func (t *Tensor[T, B]) Sign() *Tensor[T, B] { return t.wrap(t.backend.Sign(t.raw)) }

// Cos returns cos(t).
func (t *Tensor[T, B]) Cos() *Tensor[T, B] { return t.wrap(t.backend.Cos(t.raw)) }

// Sin returns sin(t).
func (t *Tensor[T, B]) Sin() *Tensor[T, B] { return t.wrap(t.backend.Sin(t.raw)) }

// Cosh returns cosh(t).
func (t *Tensor[T, B]) Cosh() *Tensor[T, B] { return t.wrap(t.backend.Cosh(t.raw)) }

// Sinh returns sinh(t).
func (t *Tensor[T, B]) Sinh() *Tensor[T, B] { return t.wrap(t.backend.Sinh(t.raw)) }

// Tanh returns tanh(t).
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] { return t.wrap(t.backend.Tanh(t.raw)) }

// Acos returns arccos(t) without clamping.
func (t *Tensor[T, B]) Acos() *Tensor[T, B] { return t.wrap(t.backend.Acos(t.raw)) }

// Acosh returns arcosh(t) without clamping.
func (t *Tensor[T, B]) Acosh() *Tensor[T, B] { return t.wrap(t.backend.Acosh(t.raw)) }

// Atanh returns artanh(t) without clamping.
func (t *Tensor[T, B]) Atanh() *Tensor[T, B] { return t.wrap(t.backend.Atanh(t.raw)) }

// Asinh returns arsinh(t).
func (t *Tensor[T, B]) Asinh() *Tensor[T, B] { return t.wrap(t.backend.Asinh(t.raw)) }

// Clamp limits every element to [lo, hi].
func (t *Tensor[T, B]) Clamp(lo, hi T) *Tensor[T, B] {
	return t.wrap(t.backend.Clamp(t.raw, float64(lo), float64(hi)))
}

// ClampMin limits every element from below.
func (t *Tensor[T, B]) ClampMin(lo T) *Tensor[T, B] {
	return t.wrap(t.backend.Clamp(t.raw, float64(lo), math.Inf(1)))
}

// ClampMax limits every element from above.
func (t *Tensor[T, B]) ClampMax(hi T) *Tensor[T, B] {
	return t.wrap(t.backend.Clamp(t.raw, math.Inf(-1), float64(hi)))
}

// Sum reduces along dim (negative counts from the end).
func (t *Tensor[T, B]) Sum(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.SumDim(t.raw, t.axis(dim), keepDim))
}

// SumAll reduces every element into a scalar tensor.
func (t *Tensor[T, B]) SumAll() *Tensor[T, B] {
	return t.Reshape(Shape{t.NumElements()}).Sum(0, false)
}

// Reshape returns a tensor with the same elements and a new shape.
func (t *Tensor[T, B]) Reshape(shape Shape) *Tensor[T, B] {
	if shape.Equal(t.Shape()) {
		return t
	}
	return t.wrap(t.backend.Reshape(t.raw, shape))
}

// Unsqueeze inserts a size-1 dimension at dim.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	shape := t.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	out := make(Shape, 0, len(shape)+1)
	out = append(out, shape[:dim]...)
	out = append(out, 1)
	out = append(out, shape[dim:]...)
	return t.Reshape(out)
}

// Squeeze removes the size-1 dimension at dim.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	d := t.axis(dim)
	shape := t.Shape()
	if shape[d] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d of %v is not 1", d, shape))
	}
	out := append(shape[:d:d], shape[d+1:]...)
	return t.Reshape(out)
}

// Expand broadcasts t to shape.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	if shape.Equal(t.Shape()) {
		return t
	}
	return t.wrap(t.backend.Expand(t.raw, shape))
}

// Narrow returns length elements starting at start along dim.
func (t *Tensor[T, B]) Narrow(dim, start, length int) *Tensor[T, B] {
	d := t.axis(dim)
	if start == 0 && length == t.Shape()[d] {
		return t
	}
	return t.wrap(t.backend.Narrow(t.raw, d, start, length))
}

// MT transposes the last two axes.
func (t *Tensor[T, B]) MT() *Tensor[T, B] {
	return t.wrap(t.backend.MatTranspose(t.raw))
}

// MatMul computes the batched matrix product over the last two axes.
// Batch dimensions broadcast.
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	a, b := broadcastBatch(t, other)
	return t.wrap(t.backend.MatMul(a.raw, b.raw))
}

// Solve returns X with t·X = rhs for square t. Batch dimensions broadcast.
func (t *Tensor[T, B]) Solve(rhs *Tensor[T, B]) *Tensor[T, B] {
	a, b := broadcastBatch(t, rhs)
	return t.wrap(t.backend.Solve(a.raw, b.raw))
}

// Expm returns the matrix exponential of every square matrix in t.
func (t *Tensor[T, B]) Expm() *Tensor[T, B] {
	return t.wrap(t.backend.Expm(t.raw))
}

// QR returns the orthonormal factor of the reduced QR decomposition of every
// matrix in t, normalised so that R has a positive diagonal.
func (t *Tensor[T, B]) QR() *Tensor[T, B] {
	return t.wrap(t.backend.QR(t.raw))
}

// Polar returns the orthonormal polar factor UVᵀ of every matrix in t.
func (t *Tensor[T, B]) Polar() *Tensor[T, B] {
	return t.wrap(t.backend.Polar(t.raw))
}

// Cat concatenates tensors along dim.
func Cat[T Float, B Backend](ts []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(ts) == 1 {
		return ts[0]
	}
	d := ts[0].axis(dim)
	raws := make([]*RawTensor, len(ts))
	for i, t := range ts {
		raws[i] = t.raw
	}
	return ts[0].wrap(ts[0].backend.Cat(raws, d))
}

// broadcastBatch expands the batch prefixes (all but the last two axes) of
// a and b to their common shape.
func broadcastBatch[T Float, B Backend](a, b *Tensor[T, B]) (*Tensor[T, B], *Tensor[T, B]) {
	as, bs := a.Shape(), b.Shape()
	if len(as) < 2 || len(bs) < 2 {
		panic(fmt.Sprintf("matrix op: operands need at least 2 dimensions, got %v and %v", as, bs))
	}
	batch, _, err := BroadcastShapes(as.Batch(2), bs.Batch(2))
	if err != nil {
		panic(fmt.Sprintf("matrix op: %v", err))
	}
	return a.Expand(batch.Concat(as[len(as)-2:]...)), b.Expand(batch.Concat(bs[len(bs)-2:]...))
}
