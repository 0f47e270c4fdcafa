// Package stiefel implements the Stiefel manifold St(n, p) of n×p matrices
// with orthonormal columns.
//
// EuclideanStiefel and EuclideanStiefelExact carry the metric induced by
// R^{n×p}; CanonicalStiefel carries the canonical metric and moves along
// Cayley rotations. No closed-form logarithm exists, so Logmap and Dist
// report manifold.ErrNotImplemented.
package stiefel

import (
	"fmt"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Config fixes the matrix size. Zero N and P accept any n ≥ p ≥ 1.
type Config struct {
	N, P int
}

type core[T tensor.Float, B tensor.Backend] struct {
	manifold.Base[T, B]
}

func newCore[T tensor.Float, B tensor.Backend](name string, backend B, cfg Config) (core[T, B], error) {
	sized := cfg != (Config{})
	if sized && (cfg.P < 1 || cfg.N < cfg.P) {
		return core[T, B]{}, fmt.Errorf("%s: size %d×%d: %w: need n ≥ p ≥ 1", name, cfg.N, cfg.P, manifold.ErrInvalidParam)
	}
	return core[T, B]{Base: manifold.NewBase[T](name, 2, backend, func(s tensor.Shape) error {
		if sized && (s[0] != cfg.N || s[1] != cfg.P) {
			return fmt.Errorf("need %d×%d, got %d×%d", cfg.N, cfg.P, s[0], s[1])
		}
		if s[1] < 1 || s[0] < s[1] {
			return fmt.Errorf("need n ≥ p ≥ 1, got %d×%d", s[0], s[1])
		}
		return nil
	})}, nil
}

// ParallelTransport reports false: tangent vectors are moved by projection
// or by the retraction's rotation.
func (m *core[T, B]) ParallelTransport() bool { return false }

func (m *core[T, B]) prepare(op string, ts ...*tensor.Tensor[T, B]) error {
	_, err := m.Broadcast(op, ts...)
	return err
}

// CheckPointOnManifold tests XᵀX = I.
func (m *core[T, B]) CheckPointOnManifold(x *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	if err := m.prepare("CheckPointOnManifold", x); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	p := x.Dim(-1)
	return manifold.CheckClose(x.MT().MatMul(x), tensor.Eye[T](p, p, m.Backend()), tol, "XᵀX is not the identity")
}

// CheckVectorOnTangent tests sym(XᵀU) = 0.
func (m *core[T, B]) CheckVectorOnTangent(x, u *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	if err := m.prepare("CheckVectorOnTangent", x, u); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	s := Sym(x.MT().MatMul(u))
	return manifold.CheckClose(s, tensor.Zeros[T](s.Shape(), m.Backend()), tol, "sym(XᵀU) is not zero")
}

// Projx returns the polar factor of x.
func (m *core[T, B]) Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Projx", x); err != nil {
		return nil, err
	}
	return Project(x), nil
}

// Proju returns U - X sym(XᵀU).
func (m *core[T, B]) Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Proju", x, u); err != nil {
		return nil, err
	}
	return ProjectU(x, u), nil
}

// Transp projects v onto the tangent space at y.
func (m *core[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Transp", x, y, v); err != nil {
		return nil, err
	}
	return ProjectU(y, v), nil
}

// Logmap is not available in closed form.
func (m *core[T, B]) Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Logmap", x, y); err != nil {
		return nil, err
	}
	return nil, manifold.NotImplemented(m.Name(), "Logmap")
}

// Dist is not available in closed form.
func (m *core[T, B]) Dist(x, y *tensor.Tensor[T, B], _ bool) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Dist", x, y); err != nil {
		return nil, err
	}
	return nil, manifold.NotImplemented(m.Name(), "Dist")
}

// Origin returns the first p columns of I_n broadcast to shape.
func (m *core[T, B]) Origin(shape tensor.Shape) (*tensor.Tensor[T, B], error) {
	if err := m.CheckShape(shape); err != nil {
		return nil, err
	}
	return Origin[T](shape, m.Backend()), nil
}

func (m *core[T, B]) project(y *tensor.Tensor[T, B], opts []manifold.Option) *tensor.Tensor[T, B] {
	if manifold.ResolveOptions(opts...).Project {
		return Project(y)
	}
	return y
}

// sample draws ε ~ N(0, std²), projects it onto the tangent space at the
// mean and moves it onto the manifold with step.
func (m *core[T, B]) sample(shape tensor.Shape, opts manifold.SampleOptions[T, B],
	step func(x, u *tensor.Tensor[T, B]) *tensor.Tensor[T, B],
) (*tensor.Tensor[T, B], error) {
	opts = opts.Resolve()
	mean := opts.Mean
	if mean == nil {
		var err error
		if mean, err = m.Origin(shape); err != nil {
			return nil, err
		}
	}
	noise := tensor.Randn[T](shape, opts.Rand, m.Backend()).MulScalar(T(opts.Std))
	if err := m.prepare("RandomNormal", mean, noise); err != nil {
		return nil, err
	}
	return Project(step(mean, ProjectU(mean, noise))), nil
}

// euclidean holds the operations shared by the flavours with the
// Euclidean metric tr(UᵀV).
type euclidean[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// Reversible reports false.
func (m *euclidean[T, B]) Reversible() bool { return false }

// Egrad2rgrad is Proju.
func (m *euclidean[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Egrad2rgrad", x, u); err != nil {
		return nil, err
	}
	return ProjectU(x, u), nil
}

// Inner returns tr(UᵀV).
func (m *euclidean[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if v == nil {
		v = u
	}
	if err := m.prepare("Inner", x, u, v); err != nil {
		return nil, err
	}
	return Inner(u, v, keepDim), nil
}

// Norm returns the Frobenius norm of u.
func (m *euclidean[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Norm", x, u); err != nil {
		return nil, err
	}
	return Norm(u, keepDim), nil
}

// Expmap follows the geodesic of the Euclidean metric from x along u.
func (m *euclidean[T, B]) Expmap(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Expmap", x, u); err != nil {
		return nil, err
	}
	return m.project(Expmap(x, u), opts), nil
}

// RandomNormal samples Expmap(mean, Proju(mean, ε)).
func (m *euclidean[T, B]) RandomNormal(shape tensor.Shape, opts manifold.SampleOptions[T, B]) (*tensor.Tensor[T, B], error) {
	return m.sample(shape, opts, Expmap[T, B])
}

// EuclideanStiefel retracts with the Q factor of X + U.
type EuclideanStiefel[T tensor.Float, B tensor.Backend] struct {
	euclidean[T, B]
}

// New creates a EuclideanStiefel.
func New[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*EuclideanStiefel[T, B], error) {
	c, err := newCore[T]("EuclideanStiefel", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &EuclideanStiefel[T, B]{euclidean[T, B]{c}}, nil
}

// Retr returns qf(X + U). The result has orthonormal columns by
// construction; opts are accepted for interface compatibility.
func (m *EuclideanStiefel[T, B]) Retr(x, u *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Retr", x, u); err != nil {
		return nil, err
	}
	return RetrQR(x, u), nil
}

// RetrTransp retracts x along u and projects v onto the new tangent space.
func (m *EuclideanStiefel[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	y, err := m.Retr(x, u, opts...)
	if err != nil {
		return nil, nil, err
	}
	w, err := m.Transp(x, y, v)
	if err != nil {
		return nil, nil, err
	}
	return y, w, nil
}

// EuclideanStiefelExact retracts along geodesics of the Euclidean metric.
type EuclideanStiefelExact[T tensor.Float, B tensor.Backend] struct {
	euclidean[T, B]
}

// NewExact creates a EuclideanStiefelExact.
func NewExact[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*EuclideanStiefelExact[T, B], error) {
	c, err := newCore[T]("EuclideanStiefelExact", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &EuclideanStiefelExact[T, B]{euclidean[T, B]{c}}, nil
}

// Retr is Expmap.
func (m *EuclideanStiefelExact[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return m.Expmap(x, u, opts...)
}

// RetrTransp follows the geodesic and projects v onto the new tangent
// space.
func (m *EuclideanStiefelExact[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	y, err := m.Expmap(x, u, opts...)
	if err != nil {
		return nil, nil, err
	}
	w, err := m.Transp(x, y, v)
	if err != nil {
		return nil, nil, err
	}
	return y, w, nil
}

// CanonicalStiefel carries the canonical metric tr(Uᵀ(I - ½XXᵀ)V) and
// retracts with the Cayley transform.
type CanonicalStiefel[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// NewCanonical creates a CanonicalStiefel.
func NewCanonical[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*CanonicalStiefel[T, B], error) {
	c, err := newCore[T]("CanonicalStiefel", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &CanonicalStiefel[T, B]{c}, nil
}

// Reversible reports true: retracting back along the rotated reverse
// direction returns to the starting point.
func (m *CanonicalStiefel[T, B]) Reversible() bool { return true }

// Egrad2rgrad returns U - XUᵀX.
func (m *CanonicalStiefel[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Egrad2rgrad", x, u); err != nil {
		return nil, err
	}
	return CanonicalEgrad2rgrad(x, u), nil
}

// Inner returns the canonical inner product.
func (m *CanonicalStiefel[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if v == nil {
		v = u
	}
	if err := m.prepare("Inner", x, u, v); err != nil {
		return nil, err
	}
	return CanonicalInner(x, u, v, keepDim), nil
}

// Norm returns the canonical length of u.
func (m *CanonicalStiefel[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	inner, err := m.Inner(x, u, u, keepDim)
	if err != nil {
		return nil, err
	}
	minNorm := numerics.For[T]().MinNorm
	return inner.ClampMin(T(minNorm * minNorm)).Sqrt(), nil
}

// Expmap follows the geodesic of the canonical metric.
func (m *CanonicalStiefel[T, B]) Expmap(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Expmap", x, u); err != nil {
		return nil, err
	}
	return m.project(CanonicalExpmap(x, u), opts), nil
}

// Retr applies the Cayley rotation generated by u to x. The result has
// orthonormal columns by construction; opts are accepted for interface
// compatibility.
func (m *CanonicalStiefel[T, B]) Retr(x, u *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Retr", x, u); err != nil {
		return nil, err
	}
	return RetrCayley(x, u), nil
}

// TranspFollowRetr rotates v with the Cayley rotation of Retr(x, u).
func (m *CanonicalStiefel[T, B]) TranspFollowRetr(x, u, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("TranspFollowRetr", x, u, v); err != nil {
		return nil, err
	}
	return TranspFollowRetr(x, u, v), nil
}

// RetrTransp rotates x and v together with one solve.
func (m *CanonicalStiefel[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	if err := m.prepare("RetrTransp", x, u, v); err != nil {
		return nil, nil, err
	}
	p := x.Dim(-1)
	ex := expand(x, u, v)
	both := TranspFollowRetr(ex[0], ex[1], tensor.Cat([]*tensor.Tensor[T, B]{ex[0], ex[2]}, -1))
	return both.Narrow(-1, 0, p), both.Narrow(-1, p, p), nil
}

// RandomNormal samples Retr(mean, Proju(mean, ε)).
func (m *CanonicalStiefel[T, B]) RandomNormal(shape tensor.Shape, opts manifold.SampleOptions[T, B]) (*tensor.Tensor[T, B], error) {
	return m.sample(shape, opts, RetrCayley[T, B])
}

var (
	_ manifold.Manifold[float64, tensor.Backend] = (*EuclideanStiefel[float64, tensor.Backend])(nil)
	_ manifold.Manifold[float32, tensor.Backend] = (*EuclideanStiefelExact[float32, tensor.Backend])(nil)
	_ manifold.Manifold[float64, tensor.Backend] = (*CanonicalStiefel[float64, tensor.Backend])(nil)
	_ manifold.Transporter                       = (*CanonicalStiefel[float64, tensor.Backend])(nil)
)
