// Package numerics holds the stabilised transcendental helpers shared by the
// manifold maths and the per-precision constants they clamp with.
//
// Every helper is total: inputs outside the mathematical domain are clamped
// to the nearest safe value instead of producing NaN or Inf.
package numerics

import (
	"github.com/born-ml/riemann/internal/tensor"
)

// Precision collects the clamping constants and default comparison
// tolerances for one floating-point type.
type Precision struct {
	// Eps keeps artanh, arcosh and arccos arguments away from their
	// singular points.
	Eps float64
	// MinNorm is the smallest vector norm used as a divisor.
	MinNorm float64
	// BallEps is the relative margin kept from the Poincaré ball boundary.
	BallEps float64
	// Atol and Rtol are the default absolute and relative tolerances for
	// manifold invariant checks.
	Atol, Rtol float64
}

var (
	float32Precision = Precision{Eps: 1e-7, MinNorm: 1e-15, BallEps: 4e-3, Atol: 1e-4, Rtol: 1e-4}
	float64Precision = Precision{Eps: 1e-15, MinNorm: 1e-15, BallEps: 1e-5, Atol: 1e-7, Rtol: 1e-7}
)

// For returns the constants for T.
func For[T tensor.Float]() Precision {
	if tensor.DTypeOf[T]() == tensor.Float32 {
		return float32Precision
	}
	return float64Precision
}

// Artanh returns artanh(x) with x clamped to [-1+ε, 1-ε].
func Artanh[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	eps := For[T]().Eps
	return x.Clamp(T(-1+eps), T(1-eps)).Atanh()
}

// Arcosh returns arcosh(x) with x clamped to [1+ε, ∞).
func Arcosh[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return x.ClampMin(T(1 + For[T]().Eps)).Acosh()
}

// Arsinh returns arsinh(x); it is finite everywhere and needs no clamp.
func Arsinh[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return x.Asinh()
}

// Arccos returns arccos(x) with x clamped to [-1+ε, 1-ε].
func Arccos[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	eps := For[T]().Eps
	return x.Clamp(T(-1+eps), T(1-eps)).Acos()
}

// Dot returns the Euclidean inner product over the last axis.
func Dot[T tensor.Float, B tensor.Backend](x, y *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	return x.Mul(y).Sum(-1, keepDim)
}

// Norm returns the Euclidean norm over the last axis, never smaller than
// MinNorm.
func Norm[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	minNorm := For[T]().MinNorm
	return Dot(x, x, keepDim).ClampMin(T(minNorm * minNorm)).Sqrt()
}

// ClampNorm returns n clamped below by MinNorm, for use as a divisor.
func ClampNorm[T tensor.Float, B tensor.Backend](n *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return n.ClampMin(T(For[T]().MinNorm))
}
