package manifold

import (
	"fmt"
	"math"

	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Tolerance bounds |a - b| ≤ Atol + Rtol·|b| in invariant checks.
// The zero value selects DefaultTolerance for the tensor dtype.
type Tolerance struct {
	Atol, Rtol float64
}

// DefaultTolerance returns the check tolerance for T.
func DefaultTolerance[T tensor.Float]() Tolerance {
	p := numerics.For[T]()
	return Tolerance{Atol: p.Atol, Rtol: p.Rtol}
}

// ResolveTolerance returns tol, or the default for T when tol is zero.
func ResolveTolerance[T tensor.Float](tol Tolerance) Tolerance {
	if tol == (Tolerance{}) {
		return DefaultTolerance[T]()
	}
	return tol
}

// Check is the outcome of a membership test.
type Check struct {
	OK       bool
	Reason   string
	Residual float64
}

// Pass returns a successful Check.
func Pass(residual float64) Check {
	return Check{OK: true, Residual: residual}
}

// Fail returns a failed Check.
func Fail(residual float64, format string, args ...any) Check {
	return Check{Reason: fmt.Sprintf(format, args...), Residual: residual}
}

// Allclose compares a and b elementwise after broadcasting and returns
// whether they agree within tol, plus the largest absolute deviation.
// Incompatible shapes report false with an infinite residual.
func Allclose[T tensor.Float, B tensor.Backend](a, b *tensor.Tensor[T, B], tol Tolerance) (bool, float64) {
	tol = ResolveTolerance[T](tol)
	shape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return false, math.Inf(1)
	}
	av := tensor.ExpandRaw(a.Raw(), shape).Values()
	bv := tensor.ExpandRaw(b.Raw(), shape).Values()

	ok, residual := true, 0.0
	for i := range av {
		d := math.Abs(av[i] - bv[i])
		if math.IsNaN(d) {
			return false, math.NaN()
		}
		residual = max(residual, d)
		if d > tol.Atol+tol.Rtol*math.Abs(bv[i]) {
			ok = false
		}
	}
	return ok, residual
}

// CheckClose runs Allclose and turns the outcome into a Check, using what
// to describe the compared quantity.
func CheckClose[T tensor.Float, B tensor.Backend](a, b *tensor.Tensor[T, B], tol Tolerance, what string) Check {
	ok, residual := Allclose(a, b, tol)
	if !ok {
		return Fail(residual, "%s", what)
	}
	return Pass(residual)
}

// CheckScaled is CheckClose with the relative bound taken against scale,
// the summed magnitude of the terms that produced a:
// |a - b| ≤ Atol + Rtol·(|b| + scale). scale must broadcast to a.
func CheckScaled[T tensor.Float, B tensor.Backend](a, b, scale *tensor.Tensor[T, B], tol Tolerance, what string) Check {
	tol = ResolveTolerance[T](tol)
	shape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err == nil {
		shape, _, err = tensor.BroadcastShapes(shape, scale.Shape())
	}
	if err != nil {
		return Fail(math.Inf(1), "%s", what)
	}
	av := tensor.ExpandRaw(a.Raw(), shape).Values()
	bv := tensor.ExpandRaw(b.Raw(), shape).Values()
	sv := tensor.ExpandRaw(scale.Raw(), shape).Values()

	ok, residual := true, 0.0
	for i := range av {
		d := math.Abs(av[i] - bv[i])
		if math.IsNaN(d) {
			return Fail(math.NaN(), "%s", what)
		}
		residual = max(residual, d)
		if d > tol.Atol+tol.Rtol*(math.Abs(bv[i])+math.Abs(sv[i])) {
			ok = false
		}
	}
	if !ok {
		return Fail(residual, "%s", what)
	}
	return Pass(residual)
}

// AssertPointOnManifold returns a *ValidationError when x is not on m.
func AssertPointOnManifold[T tensor.Float, B tensor.Backend](m Manifold[T, B], x *tensor.Tensor[T, B], tol Tolerance) error {
	c := m.CheckPointOnManifold(x, tol)
	if c.OK {
		return nil
	}
	return &ValidationError{Kind: ErrNotOnManifold, Manifold: m.Name(), Reason: c.Reason, Residual: c.Residual}
}

// AssertVectorOnTangent returns a *ValidationError when u is not tangent to
// m at x.
func AssertVectorOnTangent[T tensor.Float, B tensor.Backend](m Manifold[T, B], x, u *tensor.Tensor[T, B], tol Tolerance) error {
	c := m.CheckVectorOnTangent(x, u, tol)
	if c.OK {
		return nil
	}
	return &ValidationError{Kind: ErrNotOnTangent, Manifold: m.Name(), Reason: c.Reason, Residual: c.Residual}
}
