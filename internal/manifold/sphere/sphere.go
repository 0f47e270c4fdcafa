// Package sphere implements the sphere ‖x‖² = 1/k embedded in R^d.
//
// Sphere retracts by projection and moves tangent vectors by projecting
// them; SphereExact follows great circles and parallel-transports.
package sphere

import (
	"fmt"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Config configures a sphere.
type Config struct {
	// K is the sectional curvature; the radius is 1/√K. Zero means 1.
	K float64
	// Learnable marks K as a trainable parameter.
	Learnable bool
	// Dim fixes the number of ambient coordinates. Zero accepts any width.
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
func (m *core[T, B]) K() *manifold.Param[T, B] { return m.k }

// Parameters returns K when it is learnable.
func (m *core[T, B]) Parameters() []*manifold.Param[T, B] {
	if m.k.Learnable() {
		return []*manifold.Param[T, B]{m.k}
	}
	return nil
}

// Reversible reports false.
func (m *core[T, B]) Reversible() bool { return false }

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

// CheckPointOnManifold tests ‖x‖² = 1/k.
func (m *core[T, B]) CheckPointOnManifold(x *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	k, err := m.prepare("CheckPointOnManifold", x)
	if err != nil {
		return manifold.Fail(0, "%v", err)
	}
	return manifold.CheckClose(numerics.Dot(x, x, true), k.RDivScalar(1), tol, "‖x‖² differs from 1/k")
}

// CheckVectorOnTangent tests ⟨x, u⟩ = 0.
func (m *core[T, B]) CheckVectorOnTangent(x, u *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	if _, err := m.prepare("CheckVectorOnTangent", x, u); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	inner := numerics.Dot(x, u, true)
	return manifold.CheckClose(inner, tensor.Zeros[T](inner.Shape(), m.Backend()), tol, "⟨x, u⟩ is not zero")
}

// Projx rescales x onto the sphere.
func (m *core[T, B]) Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Projx", x)
	if err != nil {
		return nil, err
	}
	return Project(x, k), nil
}

// Proju removes the normal component of u at x.
func (m *core[T, B]) Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Proju", x, u)
	if err != nil {
		return nil, err
	}
	return ProjectU(x, u, k), nil
}

// Egrad2rgrad is Proju: the metric is induced by the ambient space.
func (m *core[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Egrad2rgrad", x, u)
	if err != nil {
		return nil, err
	}
	return ProjectU(x, u, k), nil
}

// Expmap follows the great circle from x with initial velocity u.
func (m *core[T, B]) Expmap(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Expmap", x, u)
	if err != nil {
		return nil, err
	}
	return m.project(Expmap(x, u, k), k, opts), nil
}

// Logmap returns the tangent vector at x pointing to y. It is undefined for
// antipodal points.
func (m *core[T, B]) Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Logmap", x, y)
	if err != nil {
		return nil, err
	}
	return Logmap(x, y, k), nil
}

// Inner returns the Euclidean inner product of u and v.
func (m *core[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if v == nil {
		v = u
	}
	if _, err := m.prepare("Inner", x, u, v); err != nil {
		return nil, err
	}
	return numerics.Dot(u, v, keepDim), nil
}

// Norm returns ‖u‖.
func (m *core[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if _, err := m.prepare("Norm", x, u); err != nil {
		return nil, err
	}
	return numerics.Norm(u, keepDim), nil
}

// Dist returns the great-circle distance.
func (m *core[T, B]) Dist(x, y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Dist", x, y)
	if err != nil {
		return nil, err
	}
	return Dist(x, y, k, keepDim), nil
}

// Origin returns the north pole broadcast to shape.
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

// Expmap0 is Expmap at the north pole.
func (m *core[T, B]) Expmap0(u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Expmap0", u)
	if err != nil {
		return nil, err
	}
	return m.project(Expmap(Origin(u.Shape(), k), u, k), k, opts), nil
}

// Logmap0 is Logmap at the north pole.
func (m *core[T, B]) Logmap0(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Logmap0", y)
	if err != nil {
		return nil, err
	}
	return Logmap(Origin(y.Shape(), k), y, k), nil
}

// Logmap0Back returns the tangent vector at y pointing to the north pole.
func (m *core[T, B]) Logmap0Back(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Logmap0Back", y)
	if err != nil {
		return nil, err
	}
	return Logmap(y, Origin(y.Shape(), k), k), nil
}

// Dist0 returns the distance from the north pole.
func (m *core[T, B]) Dist0(y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Dist0", y)
	if err != nil {
		return nil, err
	}
	return Dist0(y, k, keepDim), nil
}

// GeodesicUnit evaluates the unit-speed great circle from x along u at t.
func (m *core[T, B]) GeodesicUnit(t, x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("GeodesicUnit", x, u)
	if err != nil {
		return nil, err
	}
	if err := m.BroadcastBatch("GeodesicUnit", x.Shape(), t); err != nil {
		return nil, err
	}
	return m.project(GeodesicUnit(t, x, u, k), k, opts), nil
}

func (m *core[T, B]) project(y, k *tensor.Tensor[T, B], opts []manifold.Option) *tensor.Tensor[T, B] {
	if manifold.ResolveOptions(opts...).Project {
		return Project(y, k)
	}
	return y
}

// transport moves v from x to y; the flavours differ only here.
type transport[T tensor.Float, B tensor.Backend] func(x, y, v, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B]

func projectionTransport[T tensor.Float, B tensor.Backend](_, y, v, k *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return ProjectU(y, v, k)
}

func (m *core[T, B]) transp(op string, move transport[T, B], x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare(op, x, y, v)
	if err != nil {
		return nil, err
	}
	return move(x, y, v, k), nil
}

func (m *core[T, B]) transp0(op string, move transport[T, B], back bool, y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare(op, y, u)
	if err != nil {
		return nil, err
	}
	o := Origin(y.Shape(), k)
	if back {
		return move(y, o, u, k), nil
	}
	return move(o, y, u, k), nil
}

// Sphere retracts by Projx(x + u) and transports by projection onto the
// target tangent space.
type Sphere[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// New creates a Sphere.
func New[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*Sphere[T, B], error) {
	c, err := newCore[T]("Sphere", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &Sphere[T, B]{core: c}, nil
}

// ParallelTransport reports false: projection does not preserve inner
// products.
func (m *Sphere[T, B]) ParallelTransport() bool { return false }

// Retr returns Projx(x + u), or x + u when projection is disabled.
func (m *Sphere[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	k, err := m.prepare("Retr", x, u)
	if err != nil {
		return nil, err
	}
	return m.project(x.Add(u), k, opts), nil
}

// Transp projects v onto the tangent space at y.
func (m *Sphere[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.transp("Transp", projectionTransport[T, B], x, y, v)
}

// Transp0 moves u from the north pole to y.
func (m *Sphere[T, B]) Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.transp0("Transp0", projectionTransport[T, B], false, y, u)
}

// Transp0Back moves u from y to the north pole.
func (m *Sphere[T, B]) Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.transp0("Transp0Back", projectionTransport[T, B], true, y, u)
}

// RetrTransp retracts x along u and transports v to the result.
func (m *Sphere[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
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

// SphereExact retracts along great circles and parallel-transports.
type SphereExact[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// NewExact creates a SphereExact.
func NewExact[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*SphereExact[T, B], error) {
	c, err := newCore[T]("SphereExact", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &SphereExact[T, B]{core: c}, nil
}

// ParallelTransport reports true.
func (m *SphereExact[T, B]) ParallelTransport() bool { return true }

// Retr is Expmap.
func (m *SphereExact[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return m.Expmap(x, u, opts...)
}

// Transp parallel-transports v from x to y.
func (m *SphereExact[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.transp("Transp", Transp[T, B], x, y, v)
}

// Transp0 parallel-transports u from the north pole to y.
func (m *SphereExact[T, B]) Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.transp0("Transp0", Transp[T, B], false, y, u)
}

// Transp0Back parallel-transports u from y to the north pole.
func (m *SphereExact[T, B]) Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.transp0("Transp0Back", Transp[T, B], true, y, u)
}

// RetrTransp follows the great circle from x along u and transports v
// with it.
func (m *SphereExact[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
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
	_ manifold.Manifold[float64, tensor.Backend]      = (*Sphere[float64, tensor.Backend])(nil)
	_ manifold.Manifold[float32, tensor.Backend]      = (*SphereExact[float32, tensor.Backend])(nil)
	_ manifold.OriginMaps[float64, tensor.Backend]    = (*Sphere[float64, tensor.Backend])(nil)
	_ manifold.OriginMaps[float64, tensor.Backend]    = (*SphereExact[float64, tensor.Backend])(nil)
	_ manifold.Geodesic[float64, tensor.Backend]      = (*SphereExact[float64, tensor.Backend])(nil)
	_ manifold.Parameterized[float64, tensor.Backend] = (*Sphere[float64, tensor.Backend])(nil)
	_ manifold.Transporter                            = (*SphereExact[float64, tensor.Backend])(nil)
)
