// Package scaled rescales the metric of another manifold.
//
// A Scaled manifold has the same points, tangent spaces and maps as the
// manifold it wraps; only lengths change. With scale s the metric is s²g,
// so distances and norms grow by s and Riemannian gradients shrink by s².
package scaled

import (
	"fmt"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/tensor"
)

// Config configures a Scaled manifold.
type Config struct {
	// Scale multiplies every distance. Zero means 1.
	Scale float64
	// Learnable marks the scale as a trainable parameter.
	Learnable bool
}

// Scaled is a manifold whose metric is a constant multiple of another's.
type Scaled[T tensor.Float, B tensor.Backend] struct {
	manifold.Base[T, B]
	base  manifold.Manifold[T, B]
	scale *manifold.Param[T, B]
}

// New wraps base with the metric scale².
func New[T tensor.Float, B tensor.Backend](base manifold.Manifold[T, B], cfg Config) (*Scaled[T, B], error) {
	if base == nil {
		return nil, fmt.Errorf("Scaled: %w: nil manifold", manifold.ErrInvalidParam)
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	name := "Scaled(" + base.Name() + ")"
	scale := manifold.ScalarParam[T]("scale", cfg.Scale, cfg.Learnable, base.Backend())
	if err := scale.RequirePositive(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Scaled[T, B]{
		Base:  manifold.NewBase[T](name, base.Ndim(), base.Backend(), base.CheckShape),
		base:  base,
		scale: scale,
	}, nil
}

// Unwrap returns the wrapped manifold.
func (m *Scaled[T, B]) Unwrap() manifold.Manifold[T, B] {
	return m.base
}

// Scale returns the scale handle.
func (m *Scaled[T, B]) Scale() *manifold.Param[T, B] {
	return m.scale
}

// Parameters returns the scale when it is learnable, followed by the
// parameters of the wrapped manifold.
func (m *Scaled[T, B]) Parameters() []*manifold.Param[T, B] {
	var out []*manifold.Param[T, B]
	if m.scale.Learnable() {
		out = append(out, m.scale)
	}
	if p, ok := m.base.(manifold.Parameterized[T, B]); ok {
		out = append(out, p.Parameters()...)
	}
	return out
}

// Reversible reports whether the wrapped manifold is reversible.
func (m *Scaled[T, B]) Reversible() bool { return m.base.Reversible() }

// ParallelTransport reports whether the wrapped transport is parallel. A
// constant rescaling keeps parallel transport parallel.
func (m *Scaled[T, B]) ParallelTransport() bool {
	tr, ok := m.base.(manifold.Transporter)
	return ok && tr.ParallelTransport()
}

func (m *Scaled[T, B]) wrap(op string, err error) error {
	return fmt.Errorf("%s.%s: %w", m.Name(), op, err)
}

// CheckPointOnManifold defers to the wrapped manifold; points are unchanged.
func (m *Scaled[T, B]) CheckPointOnManifold(x *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	return m.base.CheckPointOnManifold(x, tol)
}

// CheckVectorOnTangent defers to the wrapped manifold.
func (m *Scaled[T, B]) CheckVectorOnTangent(x, u *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	return m.base.CheckVectorOnTangent(x, u, tol)
}

// Projx projects onto the wrapped manifold.
func (m *Scaled[T, B]) Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.base.Projx(x)
}

// Proju projects onto the wrapped tangent space.
func (m *Scaled[T, B]) Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.base.Proju(x, u)
}

// Egrad2rgrad divides the wrapped gradient by s².
func (m *Scaled[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	g, err := m.base.Egrad2rgrad(x, u)
	if err != nil {
		return nil, err
	}
	s := m.scale.Value()
	return g.Div(s.Square()), nil
}

// Retr is the wrapped retraction.
func (m *Scaled[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return m.base.Retr(x, u, opts...)
}

// Expmap is the wrapped exponential map.
func (m *Scaled[T, B]) Expmap(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return m.base.Expmap(x, u, opts...)
}

// Logmap is the wrapped logarithm.
func (m *Scaled[T, B]) Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.base.Logmap(x, y)
}

// Transp is the wrapped transport.
func (m *Scaled[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.base.Transp(x, y, v)
}

// RetrTransp retracts and transports with the wrapped manifold.
func (m *Scaled[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	return m.base.RetrTransp(x, u, v, opts...)
}

// Inner returns s²·g(u, v).
func (m *Scaled[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	inner, err := m.base.Inner(x, u, v, keepDim)
	if err != nil {
		return nil, err
	}
	return m.scale.Value().Square().Mul(inner), nil
}

// Norm returns s·‖u‖.
func (m *Scaled[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	n, err := m.base.Norm(x, u, keepDim)
	if err != nil {
		return nil, err
	}
	return m.scale.Value().Mul(n), nil
}

// Dist returns s·d(x, y).
func (m *Scaled[T, B]) Dist(x, y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	d, err := m.base.Dist(x, y, keepDim)
	if err != nil {
		return nil, err
	}
	return m.scale.Value().Mul(d), nil
}

// Origin returns the wrapped origin.
func (m *Scaled[T, B]) Origin(shape tensor.Shape) (*tensor.Tensor[T, B], error) {
	return m.base.Origin(shape)
}

// RandomNormal samples with the tangent spread divided by s, so samples
// have standard deviation opts.Std in the scaled metric.
func (m *Scaled[T, B]) RandomNormal(shape tensor.Shape, opts manifold.SampleOptions[T, B]) (*tensor.Tensor[T, B], error) {
	opts = opts.Resolve()
	opts.Std /= m.scale.Float()
	return m.base.RandomNormal(shape, opts)
}

func (m *Scaled[T, B]) originMaps(op string) (manifold.OriginMaps[T, B], error) {
	om, ok := m.base.(manifold.OriginMaps[T, B])
	if !ok {
		return nil, manifold.NotImplemented(m.Name(), op)
	}
	return om, nil
}

// Expmap0 is the wrapped Expmap0, or ErrNotImplemented.
func (m *Scaled[T, B]) Expmap0(u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	om, err := m.originMaps("Expmap0")
	if err != nil {
		return nil, err
	}
	return om.Expmap0(u, opts...)
}

// Logmap0 is the wrapped Logmap0.
func (m *Scaled[T, B]) Logmap0(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	om, err := m.originMaps("Logmap0")
	if err != nil {
		return nil, err
	}
	return om.Logmap0(y)
}

// Logmap0Back is the wrapped Logmap0Back.
func (m *Scaled[T, B]) Logmap0Back(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	om, err := m.originMaps("Logmap0Back")
	if err != nil {
		return nil, err
	}
	return om.Logmap0Back(y)
}

// Dist0 returns s·d(origin, y).
func (m *Scaled[T, B]) Dist0(y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	om, err := m.originMaps("Dist0")
	if err != nil {
		return nil, err
	}
	d, err := om.Dist0(y, keepDim)
	if err != nil {
		return nil, err
	}
	return m.scale.Value().Mul(d), nil
}

// Transp0 is the wrapped Transp0.
func (m *Scaled[T, B]) Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	om, err := m.originMaps("Transp0")
	if err != nil {
		return nil, err
	}
	return om.Transp0(y, u)
}

// Transp0Back is the wrapped Transp0Back.
func (m *Scaled[T, B]) Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	om, err := m.originMaps("Transp0Back")
	if err != nil {
		return nil, err
	}
	return om.Transp0Back(y, u)
}

// GeodesicUnit converts arc length t and a direction of unit scaled norm
// to the wrapped manifold: base.GeodesicUnit(t/s, x, s·u).
func (m *Scaled[T, B]) GeodesicUnit(t, x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	g, ok := m.base.(manifold.Geodesic[T, B])
	if !ok {
		return nil, manifold.NotImplemented(m.Name(), "GeodesicUnit")
	}
	if t == nil {
		return nil, m.wrap("GeodesicUnit", fmt.Errorf("%w: nil t", manifold.ErrShape))
	}
	s := m.scale.Value()
	return g.GeodesicUnit(t.Div(s), x, s.Mul(u), opts...)
}

var (
	_ manifold.Manifold[float64, tensor.Backend]      = (*Scaled[float64, tensor.Backend])(nil)
	_ manifold.OriginMaps[float64, tensor.Backend]    = (*Scaled[float64, tensor.Backend])(nil)
	_ manifold.Geodesic[float64, tensor.Backend]      = (*Scaled[float64, tensor.Backend])(nil)
	_ manifold.Parameterized[float64, tensor.Backend] = (*Scaled[float64, tensor.Backend])(nil)
	_ manifold.Transporter                            = (*Scaled[float64, tensor.Backend])(nil)
)
