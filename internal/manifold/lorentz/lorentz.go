// Package lorentz implements the hyperboloid model of hyperbolic space.
//
// Points satisfy ⟨x, x⟩_L = -K with the time coordinate first and
// positive; the sectional curvature is -1/K. Two flavours share the maths:
// Lorentz retracts by projection and LorentzExact follows geodesics.
package lorentz

import (
	"fmt"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/tensor"
)

// Config configures a hyperboloid.
type Config struct {
	// K is the negative inverse curvature. Zero means 1.
	K float64
	// Learnable marks K as a trainable parameter.
	Learnable bool
	// Dim fixes the number of ambient coordinates (time coordinate
	// included). Zero accepts any width.
	Dim int
}

type core[T tensor.Float, B tensor.Backend] struct {
	manifold.Base[T, B]
	k *manifold.Param[T, B]
}

func newCore[T tensor.Float, B tensor.Backend](name string, backend B, cfg Config) (core[T, B], error) {
	if cfg.K == 0 {
		cfg.K = 1
	}
	k := manifold.ScalarParam[T]("k", cfg.K, cfg.Learnable, backend)
	if err := k.RequirePositive(); err != nil {
		return core[T, B]{}, fmt.Errorf("%s: %w", name, err)
	}
	width, err := manifold.Width(2, cfg.Dim)
	if err != nil {
		return core[T, B]{}, fmt.Errorf("%s: %w", name, err)
	}
	base := manifold.NewBase[T](name, 1, backend, width)
	return core[T, B]{Base: base, k: k}, nil
}

// K returns the curvature handle.
func (m *core[T, B]) K() *manifold.Param[T, B] {
	return m.k
}

// Parameters returns K when it is learnable.
func (m *core[T, B]) Parameters() []*manifold.Param[T, B] {
	if m.k.Learnable() {
		return []*manifold.Param[T, B]{m.k}
	}
	return nil
}

// Reversible reports false: transport along a retraction is not inverted
// by the reverse retraction.
func (m *core[T, B]) Reversible() bool { return false }

// ParallelTransport reports true: both flavours transport along geodesics.
func (m *core[T, B]) ParallelTransport() bool { return true }

// prepare validates the operands of op and snapshots K.
func (m *core[T, B]) prepare(op string, ts ...*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	shape, err := m.Broadcast(op, ts...)
	if err != nil {
		return nil, err
	}
	k := m.k.Value()
	if err := m.BroadcastBatch(op, shape, k); err != nil {
		return nil, err
	}
	return k, nil
}

// CheckPointOnManifold tests ⟨x, x⟩_L = -K and x₀ > 0. The relative
// tolerance applies to ‖x‖², so far points are judged by their rounding.
func (m *core[T, B]) CheckPointOnManifold(x *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	k, err := m.prepare("CheckPointOnManifold", x)
	if err != nil {
		return manifold.Fail(0, "%v", err)
	}
	scale := x.Square().Sum(-1, true)
	c := manifold.CheckScaled(Inner(x, x, true), k.Neg(), scale, tol, "Minkowski norm ⟨x, x⟩_L differs from -K")
	if !c.OK {
		return c
	}
	time, _ := split(x)
	for _, v := range time.Data() {
		if !(v > 0) {
			return manifold.Fail(float64(v), "time coordinate x₀ is not positive")
		}
	}
	return c
}

// CheckVectorOnTangent tests ⟨x, u⟩_L = 0 relative to Σ|xᵢuᵢ|.
func (m *core[T, B]) CheckVectorOnTangent(x, u *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	if _, err := m.prepare("CheckVectorOnTangent", x, u); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	inner := Inner(x, u, true)
	scale := x.Mul(u).Abs().Sum(-1, true)
	return manifold.CheckScaled(inner, tensor.Zeros[T](inner.Shape(), m.Backend()), scale, tol, "⟨x, u⟩_L is not zero")
}

// Projx recomputes the time coordinate of x.
func (m *core[T, B]) Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Projx", x)
	if err != nil {
		return nil, err
	}
	return Project(x, k), nil
}

// Proju projects u onto the tangent space at x.
func (m *core[T, B]) Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Proju", x, u)
	if err != nil {
		return nil, err
	}
	return ProjectU(x, u, k), nil
}

// Egrad2rgrad converts a Euclidean gradient into the Riemannian one.
func (m *core[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Egrad2rgrad", x, u)
	if err != nil {
		return nil, err
	}
	return Egrad2rgrad(x, u, k), nil
}

// Expmap follows the geodesic from x with initial velocity u for unit time.
func (m *core[T, B]) Expmap(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Expmap", x, u)
	if err != nil {
		return nil, err
	}
	y := Expmap(x, u, k)
	if manifold.ResolveOptions(opts...).Project {
		y = Project(y, k)
	}
	return y, nil
}

// Logmap returns the tangent vector at x pointing to y.
func (m *core[T, B]) Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Logmap", x, y)
	if err != nil {
		return nil, err
	}
	return Logmap(x, y, k), nil
}

// Transp parallel-transports v from x to y.
func (m *core[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Transp", x, y, v)
	if err != nil {
		return nil, err
	}
	return Transp(x, y, v, k), nil
}

// Inner returns the Minkowski inner product of u and v. It does not depend
// on x beyond validation.
func (m *core[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if v == nil {
		v = u
	}
	if _, err := m.prepare("Inner", x, u, v); err != nil {
		return nil, err
	}
	return Inner(u, v, keepDim), nil
}

// Norm returns the length of the tangent vector u.
func (m *core[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if _, err := m.prepare("Norm", x, u); err != nil {
		return nil, err
	}
	return TangentNorm(u, keepDim), nil
}

// Dist returns the geodesic distance between x and y.
func (m *core[T, B]) Dist(x, y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Dist", x, y)
	if err != nil {
		return nil, err
	}
	return Dist(x, y, k, keepDim), nil
}

// Origin returns (√K, 0, …, 0) broadcast to shape.
func (m *core[T, B]) Origin(shape tensor.Shape) (*tensor.Tensor[T, B], error) {
	if err := m.CheckShape(shape); err != nil {
		return nil, err
	}
	k := m.k.Value()
	if err := m.BroadcastBatch("Origin", shape, k); err != nil {
		return nil, err
	}
	return Origin(shape, k), nil
}

// RandomNormal samples Expmap(mean, Proju(mean, ε)) with ε ~ N(0, std²).
func (m *core[T, B]) RandomNormal(shape tensor.Shape, opts manifold.SampleOptions[T, B]) (*tensor.Tensor[T, B], error) {
	opts = opts.Resolve()
	mean := opts.Mean
	if mean == nil {
		var err error
		if mean, err = m.Origin(shape); err != nil {
			return nil, err
		}
	}
	noise := tensor.Randn[T](shape, opts.Rand, m.Backend()).MulScalar(T(opts.Std))
	k, err := m.prepare("RandomNormal", mean, noise)
	if err != nil {
		return nil, err
	}
	return Project(Expmap(mean, ProjectU(mean, noise, k), k), k), nil
}

// Expmap0 is Expmap at the origin.
func (m *core[T, B]) Expmap0(u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Expmap0", u)
	if err != nil {
		return nil, err
	}
	y := Expmap0(u, k)
	if manifold.ResolveOptions(opts...).Project {
		y = Project(y, k)
	}
	return y, nil
}

// Logmap0 is Logmap at the origin.
func (m *core[T, B]) Logmap0(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Logmap0", y)
	if err != nil {
		return nil, err
	}
	return Logmap0(y, k), nil
}

// Logmap0Back returns the tangent vector at y pointing to the origin.
func (m *core[T, B]) Logmap0Back(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Logmap0Back", y)
	if err != nil {
		return nil, err
	}
	return Logmap0Back(y, k), nil
}

// Dist0 returns the distance from the origin.
func (m *core[T, B]) Dist0(y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Dist0", y)
	if err != nil {
		return nil, err
	}
	return Dist0(y, k, keepDim), nil
}

// Inner0 returns ⟨origin, v⟩_L = -√K v₀.
func (m *core[T, B]) Inner0(v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Inner0", v)
	if err != nil {
		return nil, err
	}
	return Inner0(v, k, keepDim), nil
}

// Transp0 transports u from the origin to y.
func (m *core[T, B]) Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Transp0", y, u)
	if err != nil {
		return nil, err
	}
	return Transp0(y, u, k), nil
}

// Transp0Back transports u from y to the origin.
func (m *core[T, B]) Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Transp0Back", y, u)
	if err != nil {
		return nil, err
	}
	return Transp0Back(y, u, k), nil
}

// GeodesicUnit evaluates the unit-speed geodesic from x along u at time t.
func (m *core[T, B]) GeodesicUnit(t, x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("GeodesicUnit", x, u)
	if err != nil {
		return nil, err
	}
	if err := m.BroadcastBatch("GeodesicUnit", x.Shape(), t); err != nil {
		return nil, err
	}
	y := GeodesicUnit(t, x, u, k)
	if manifold.ResolveOptions(opts...).Project {
		y = Project(y, k)
	}
	return y, nil
}

// ToPoincare maps x onto the Poincaré ball of radius √K.
func (m *core[T, B]) ToPoincare(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("ToPoincare", x)
	if err != nil {
		return nil, err
	}
	return ToPoincare(x, k), nil
}

// FromPoincare maps a point of the Poincaré ball of radius √K onto the
// hyperboloid.
func (m *core[T, B]) FromPoincare(p *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if p.Rank() < 1 || p.Dim(-1) < 1 {
		return nil, fmt.Errorf("%s.FromPoincare: %w: got %v", m.Name(), manifold.ErrShape, p.Shape())
	}
	k := m.k.Value()
	if err := m.BroadcastBatch("FromPoincare", p.Shape(), k); err != nil {
		return nil, err
	}
	return FromPoincare(p, k), nil
}

// Lorentz is the hyperboloid with the projection retraction
// Retr(x, u) = Projx(x + u) and parallel transport.
type Lorentz[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// New creates a Lorentz manifold.
func New[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*Lorentz[T, B], error) {
	c, err := newCore[T]("Lorentz", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &Lorentz[T, B]{core: c}, nil
}

// Retr returns Projx(x + u), or x + u when projection is disabled.
func (m *Lorentz[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Retr", x, u)
	if err != nil {
		return nil, err
	}
	y := x.Add(u)
	if manifold.ResolveOptions(opts...).Project {
		y = Project(y, k)
	}
	return y, nil
}

// RetrTransp retracts x along u and transports v to the result.
func (m *Lorentz[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
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

// LorentzExact is the hyperboloid whose retraction is the exponential map.
type LorentzExact[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// NewExact creates a LorentzExact manifold.
func NewExact[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*LorentzExact[T, B], error) {
	c, err := newCore[T]("LorentzExact", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &LorentzExact[T, B]{core: c}, nil
}

// Retr is Expmap.
func (m *LorentzExact[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return m.Expmap(x, u, opts...)
}

// RetrTransp follows the geodesic from x along u and transports v with it.
func (m *LorentzExact[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
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

var (
	_ manifold.Manifold[float64, tensor.Backend]      = (*Lorentz[float64, tensor.Backend])(nil)
	_ manifold.Manifold[float32, tensor.Backend]      = (*LorentzExact[float32, tensor.Backend])(nil)
	_ manifold.OriginMaps[float64, tensor.Backend]    = (*Lorentz[float64, tensor.Backend])(nil)
	_ manifold.Geodesic[float64, tensor.Backend]      = (*LorentzExact[float64, tensor.Backend])(nil)
	_ manifold.Parameterized[float64, tensor.Backend] = (*Lorentz[float64, tensor.Backend])(nil)
	_ manifold.Transporter                            = (*Lorentz[float64, tensor.Backend])(nil)
)
