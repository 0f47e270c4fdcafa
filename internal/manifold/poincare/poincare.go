// Package poincare implements the Poincaré ball model of hyperbolic space
// with curvature -c.
//
// Ball retracts by projection; BallExact follows geodesics. Both transport
// vectors with the gyration-based parallel transport.
package poincare

import (
	"fmt"
	"math"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Config configures a Poincaré ball.
type Config struct {
	// C is the negative curvature. Zero means 1.
	C float64
	// Learnable marks C as a trainable parameter.
	Learnable bool
	// Dim fixes the number of ambient coordinates. Zero accepts any width.
	Dim int
}

type core[T tensor.Float, B tensor.Backend] struct {
	manifold.Base[T, B]
	c *manifold.Param[T, B]
}

func newCore[T tensor.Float, B tensor.Backend](name string, backend B, cfg Config) (core[T, B], error) {
	if cfg.C == 0 {
		cfg.C = 1
	}
	c := manifold.ScalarParam[T]("c", cfg.C, cfg.Learnable, backend)
	if err := c.RequirePositive(); err != nil {
		return core[T, B]{}, fmt.Errorf("%s: %w", name, err)
	}
	width, err := manifold.Width(1, cfg.Dim)
	if err != nil {
		return core[T, B]{}, fmt.Errorf("%s: %w", name, err)
	}
	return core[T, B]{Base: manifold.NewBase[T](name, 1, backend, width), c: c}, nil
}

// C returns the curvature handle.
func (m *core[T, B]) C() *manifold.Param[T, B] { return m.c }

// Parameters returns C when it is learnable.
func (m *core[T, B]) Parameters() []*manifold.Param[T, B] {
	if m.c.Learnable() {
		return []*manifold.Param[T, B]{m.c}
	}
	return nil
}

// Reversible reports false.
func (m *core[T, B]) Reversible() bool { return false }

// ParallelTransport reports true.
func (m *core[T, B]) ParallelTransport() bool { return true }

func (m *core[T, B]) prepare(op string, ts ...*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	shape, err := m.Broadcast(op, ts...)
	if err != nil {
		return nil, err
	}
	c := m.c.Value()
	if err := m.BroadcastBatch(op, shape, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckPointOnManifold tests √c‖x‖ ≤ 1 - ε.
func (m *core[T, B]) CheckPointOnManifold(x *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	c, err := m.prepare("CheckPointOnManifold", x)
	if err != nil {
		return manifold.Fail(0, "%v", err)
	}
	tol = manifold.ResolveTolerance[T](tol)
	limit := 1 - numerics.For[T]().BallEps
	excess := 0.0
	for _, v := range c.Sqrt().Mul(numerics.Norm(x, true)).Data() {
		excess = max(excess, float64(v)-limit)
		if math.IsNaN(float64(v)) {
			return manifold.Fail(math.NaN(), "point is not finite")
		}
	}
	if excess > tol.Atol {
		return manifold.Fail(excess, "point lies outside the ball of radius 1/√c")
	}
	return manifold.Pass(excess)
}

// CheckVectorOnTangent accepts every vector: the tangent space is R^d.
func (m *core[T, B]) CheckVectorOnTangent(x, u *tensor.Tensor[T, B], _ manifold.Tolerance) manifold.Check {
	if _, err := m.prepare("CheckVectorOnTangent", x, u); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	return manifold.Pass(0)
}

// Projx clips x into the ball.
func (m *core[T, B]) Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Projx", x)
	if err != nil {
		return nil, err
	}
	return Project(x, c), nil
}

// Proju returns u unchanged.
func (m *core[T, B]) Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if _, err := m.prepare("Proju", x, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Egrad2rgrad rescales u by λ_x⁻².
func (m *core[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Egrad2rgrad", x, u)
	if err != nil {
		return nil, err
	}
	return Egrad2rgrad(x, u, c), nil
}

// Expmap follows the geodesic from x with initial velocity u.
func (m *core[T, B]) Expmap(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Expmap", x, u)
	if err != nil {
		return nil, err
	}
	return m.project(Expmap(x, u, c), c, opts), nil
}

func (m *core[T, B]) project(y, c *tensor.Tensor[T, B], opts []manifold.Option) *tensor.Tensor[T, B] {
	if manifold.ResolveOptions(opts...).Project {
		return Project(y, c)
	}
	return y
}

// Logmap returns the tangent vector at x pointing to y.
func (m *core[T, B]) Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Logmap", x, y)
	if err != nil {
		return nil, err
	}
	return Logmap(x, y, c), nil
}

// Transp parallel-transports v from x to y.
func (m *core[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Transp", x, y, v)
	if err != nil {
		return nil, err
	}
	return Transp(x, y, v, c), nil
}

// Inner returns λ_x² ⟨u, v⟩.
func (m *core[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if v == nil {
		v = u
	}
	c, err := m.prepare("Inner", x, u, v)
	if err != nil {
		return nil, err
	}
	return Inner(x, u, v, c, keepDim), nil
}

// Norm returns λ_x ‖u‖.
func (m *core[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Norm", x, u)
	if err != nil {
		return nil, err
	}
	return TangentNorm(x, u, c, keepDim), nil
}

// Dist returns the geodesic distance between x and y.
func (m *core[T, B]) Dist(x, y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Dist", x, y)
	if err != nil {
		return nil, err
	}
	return Dist(x, y, c, keepDim), nil
}

// Origin returns zeros of shape.
func (m *core[T, B]) Origin(shape tensor.Shape) (*tensor.Tensor[T, B], error) {
	if err := m.CheckShape(shape); err != nil {
		return nil, err
	}
	return tensor.Zeros[T](shape, m.Backend()), nil
}

// RandomNormal samples Expmap(mean, ε / λ_mean) with ε ~ N(0, std²), so
// that std is measured in the Riemannian metric.
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
	c, err := m.prepare("RandomNormal", mean, noise)
	if err != nil {
		return nil, err
	}
	return Project(Expmap(mean, noise.Div(Lambda(mean, c, true)), c), c), nil
}

// Expmap0 is Expmap at the origin.
func (m *core[T, B]) Expmap0(u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Expmap0", u)
	if err != nil {
		return nil, err
	}
	return m.project(Expmap0(u, c), c, opts), nil
}

// Logmap0 is Logmap at the origin.
func (m *core[T, B]) Logmap0(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Logmap0", y)
	if err != nil {
		return nil, err
	}
	return Logmap0(y, c), nil
}

// Logmap0Back returns the tangent vector at y pointing to the origin.
func (m *core[T, B]) Logmap0Back(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Logmap0Back", y)
	if err != nil {
		return nil, err
	}
	return Logmap0Back(y, c), nil
}

// Dist0 returns the distance from the origin.
func (m *core[T, B]) Dist0(y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Dist0", y)
	if err != nil {
		return nil, err
	}
	return Dist0(y, c, keepDim), nil
}

// Transp0 transports u from the origin to y.
func (m *core[T, B]) Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Transp0", y, u)
	if err != nil {
		return nil, err
	}
	return Transp0(y, u, c), nil
}

// Transp0Back transports u from y to the origin.
func (m *core[T, B]) Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Transp0Back", y, u)
	if err != nil {
		return nil, err
	}
	return Transp0Back(y, u, c), nil
}

// GeodesicUnit evaluates the unit-speed geodesic from x along u at time t.
func (m *core[T, B]) GeodesicUnit(t, x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("GeodesicUnit", x, u)
	if err != nil {
		return nil, err
	}
	if err := m.BroadcastBatch("GeodesicUnit", x.Shape(), t); err != nil {
		return nil, err
	}
	return m.project(GeodesicUnit(t, x, u, c), c, opts), nil
}

// Geodesic returns the point at fraction t of the way from x to y.
func (m *core[T, B]) Geodesic(t, x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Geodesic", x, y)
	if err != nil {
		return nil, err
	}
	if err := m.BroadcastBatch("Geodesic", x.Shape(), t); err != nil {
		return nil, err
	}
	return Geodesic(t, x, y, c), nil
}

// MobiusAdd returns x ⊕ y.
func (m *core[T, B]) MobiusAdd(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("MobiusAdd", x, y)
	if err != nil {
		return nil, err
	}
	return MobiusAdd(x, y, c), nil
}

// MobiusSub returns x ⊕ (-y).
func (m *core[T, B]) MobiusSub(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("MobiusSub", x, y)
	if err != nil {
		return nil, err
	}
	return MobiusSub(x, y, c), nil
}

// MobiusScalarMul returns r ⊗ x.
func (m *core[T, B]) MobiusScalarMul(r, x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("MobiusScalarMul", x)
	if err != nil {
		return nil, err
	}
	if err := m.BroadcastBatch("MobiusScalarMul", x.Shape(), r); err != nil {
		return nil, err
	}
	return MobiusScalarMul(r, x, c), nil
}

// MobiusMatvec applies the (out × in) matrix mat to x.
func (m *core[T, B]) MobiusMatvec(mat, x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("MobiusMatvec", x)
	if err != nil {
		return nil, err
	}
	if mat.Rank() != 2 || mat.Dim(-1) != x.Dim(-1) {
		return nil, fmt.Errorf("%s.MobiusMatvec: %w: matrix %v for points %v", m.Name(), manifold.ErrShape, mat.Shape(), x.Shape())
	}
	return MobiusMatvec(mat, x, c), nil
}

// Gyration returns gyr[u, v]w.
func (m *core[T, B]) Gyration(u, v, w *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Gyration", u, v, w)
	if err != nil {
		return nil, err
	}
	return Gyration(u, v, w, c), nil
}

// Lambda returns the conformal factor at x.
func (m *core[T, B]) Lambda(x *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Lambda", x)
	if err != nil {
		return nil, err
	}
	return Lambda(x, c, keepDim), nil
}

// Dist2Plane returns the distance from x to the gyroplane through p with
// normal a.
func (m *core[T, B]) Dist2Plane(x, p, a *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Dist2Plane", x, p, a)
	if err != nil {
		return nil, err
	}
	return Dist2Plane(x, p, a, c, keepDim), nil
}

// Ball is the Poincaré ball with the retraction Projx(x + u).
type Ball[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// New creates a Ball.
func New[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*Ball[T, B], error) {
	c, err := newCore[T]("PoincareBall", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &Ball[T, B]{core: c}, nil
}

// Retr returns Projx(x + u).
func (m *Ball[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	c, err := m.prepare("Retr", x, u)
	if err != nil {
		return nil, err
	}
	return m.project(x.Add(u), c, opts), nil
}

// RetrTransp retracts x along u and transports v to the result.
func (m *Ball[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
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

// BallExact is the Poincaré ball whose retraction is the exponential map.
type BallExact[T tensor.Float, B tensor.Backend] struct {
	core[T, B]
}

// NewExact creates a BallExact.
func NewExact[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*BallExact[T, B], error) {
	c, err := newCore[T]("PoincareBallExact", backend, cfg)
	if err != nil {
		return nil, err
	}
	return &BallExact[T, B]{core: c}, nil
}

// Retr is Expmap.
func (m *BallExact[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return m.Expmap(x, u, opts...)
}

// RetrTransp follows the geodesic from x along u and transports v with it.
func (m *BallExact[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
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
	_ manifold.Manifold[float64, tensor.Backend]   = (*Ball[float64, tensor.Backend])(nil)
	_ manifold.Manifold[float32, tensor.Backend]   = (*BallExact[float32, tensor.Backend])(nil)
	_ manifold.OriginMaps[float64, tensor.Backend] = (*BallExact[float64, tensor.Backend])(nil)
	_ manifold.Geodesic[float64, tensor.Backend]   = (*Ball[float64, tensor.Backend])(nil)
	_ manifold.Transporter                         = (*Ball[float64, tensor.Backend])(nil)
)
