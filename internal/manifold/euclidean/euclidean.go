// Package euclidean implements flat space R^{d₁×…×d_n} as a manifold, for
// use as a product factor and as the zero-curvature limit of the curved
// geometries.
package euclidean

import (
	"fmt"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/numerics"
	"github.com/born-ml/riemann/internal/tensor"
)

// Config configures a Euclidean space.
type Config struct {
	// Ndim is the number of trailing point axes. Zero means 1.
	Ndim int
	// Shape fixes the trailing point axes. When set, Ndim defaults to
	// len(Shape) and must agree with it.
	Shape tensor.Shape
}

// Euclidean is flat space with identity maps.
type Euclidean[T tensor.Float, B tensor.Backend] struct {
	manifold.Base[T, B]
}

// New creates a Euclidean space.
func New[T tensor.Float, B tensor.Backend](backend B, cfg Config) (*Euclidean[T, B], error) {
	if cfg.Ndim == 0 {
		cfg.Ndim = max(len(cfg.Shape), 1)
	}
	if cfg.Ndim < 0 {
		return nil, fmt.Errorf("Euclidean: %w: ndim %d", manifold.ErrInvalidParam, cfg.Ndim)
	}
	var point func(tensor.Shape) error
	if cfg.Shape != nil {
		if len(cfg.Shape) != cfg.Ndim || cfg.Shape.Validate() != nil {
			return nil, fmt.Errorf("Euclidean: %w: shape %v with ndim %d", manifold.ErrInvalidParam, cfg.Shape, cfg.Ndim)
		}
		want := cfg.Shape.Clone()
		point = func(s tensor.Shape) error {
			if !s.Equal(want) {
				return fmt.Errorf("need point axes %v, got %v", want, s)
			}
			return nil
		}
	}
	return &Euclidean[T, B]{Base: manifold.NewBase[T]("Euclidean", cfg.Ndim, backend, point)}, nil
}

func (m *Euclidean[T, B]) sum(x *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	for i := 1; i <= m.Ndim(); i++ {
		x = x.Sum(-i, true)
	}
	return manifold.SqueezeKeep(x, m.Ndim(), keepDim)
}

func (m *Euclidean[T, B]) prepare(op string, ts ...*tensor.Tensor[T, B]) error {
	_, err := m.Broadcast(op, ts...)
	return err
}

// Reversible reports true.
func (m *Euclidean[T, B]) Reversible() bool { return true }

// ParallelTransport reports true: the identity is the parallel transport
// of flat space.
func (m *Euclidean[T, B]) ParallelTransport() bool { return true }

// CheckPointOnManifold accepts every finite point of the right shape.
func (m *Euclidean[T, B]) CheckPointOnManifold(x *tensor.Tensor[T, B], _ manifold.Tolerance) manifold.Check {
	if err := m.prepare("CheckPointOnManifold", x); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	return manifold.Pass(0)
}

// CheckVectorOnTangent accepts every vector of the right shape.
func (m *Euclidean[T, B]) CheckVectorOnTangent(x, u *tensor.Tensor[T, B], _ manifold.Tolerance) manifold.Check {
	if err := m.prepare("CheckVectorOnTangent", x, u); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	return manifold.Pass(0)
}

func (m *Euclidean[T, B]) identity(op string, out *tensor.Tensor[T, B], ts ...*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare(op, ts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Projx returns x.
func (m *Euclidean[T, B]) Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.identity("Projx", x, x)
}

// Proju returns u.
func (m *Euclidean[T, B]) Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.identity("Proju", u, x, u)
}

// Egrad2rgrad returns u.
func (m *Euclidean[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.identity("Egrad2rgrad", u, x, u)
}

// Retr returns x + u.
func (m *Euclidean[T, B]) Retr(x, u *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Retr", x, u); err != nil {
		return nil, err
	}
	return x.Add(u), nil
}

// Expmap returns x + u.
func (m *Euclidean[T, B]) Expmap(x, u *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Expmap", x, u); err != nil {
		return nil, err
	}
	return x.Add(u), nil
}

// Logmap returns y - x.
func (m *Euclidean[T, B]) Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Logmap", x, y); err != nil {
		return nil, err
	}
	return y.Sub(x), nil
}

// Transp returns v.
func (m *Euclidean[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.identity("Transp", v, x, y, v)
}

// RetrTransp returns x + u and v.
func (m *Euclidean[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	if err := m.prepare("RetrTransp", x, u, v); err != nil {
		return nil, nil, err
	}
	return x.Add(u), v, nil
}

// Inner returns the sum of u·v over the point axes.
func (m *Euclidean[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if v == nil {
		v = u
	}
	if err := m.prepare("Inner", x, u, v); err != nil {
		return nil, err
	}
	return m.sum(u.Mul(v), keepDim), nil
}

// Norm returns the Euclidean length of u.
func (m *Euclidean[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Norm", x, u); err != nil {
		return nil, err
	}
	return m.length(u, keepDim), nil
}

func (m *Euclidean[T, B]) length(u *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	minNorm := numerics.For[T]().MinNorm
	return m.sum(u.Square(), keepDim).ClampMin(T(minNorm * minNorm)).Sqrt()
}

// Dist returns ‖x - y‖.
func (m *Euclidean[T, B]) Dist(x, y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Dist", x, y); err != nil {
		return nil, err
	}
	return m.length(x.Sub(y), keepDim), nil
}

// Origin returns zeros of the given shape.
func (m *Euclidean[T, B]) Origin(shape tensor.Shape) (*tensor.Tensor[T, B], error) {
	if err := m.CheckShape(shape); err != nil {
		return nil, err
	}
	return tensor.Zeros[T](shape, m.Backend()), nil
}

// RandomNormal samples mean + ε with ε ~ N(0, std²).
func (m *Euclidean[T, B]) RandomNormal(shape tensor.Shape, opts manifold.SampleOptions[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.CheckShape(shape); err != nil {
		return nil, err
	}
	opts = opts.Resolve()
	x := tensor.Randn[T](shape, opts.Rand, m.Backend()).MulScalar(T(opts.Std))
	if opts.Mean == nil {
		return x, nil
	}
	if err := m.prepare("RandomNormal", opts.Mean, x); err != nil {
		return nil, err
	}
	return x.Add(opts.Mean), nil
}

// Expmap0 returns u.
func (m *Euclidean[T, B]) Expmap0(u *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return m.identity("Expmap0", u, u)
}

// Logmap0 returns y.
func (m *Euclidean[T, B]) Logmap0(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.identity("Logmap0", y, y)
}

// Logmap0Back returns -y.
func (m *Euclidean[T, B]) Logmap0Back(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Logmap0Back", y); err != nil {
		return nil, err
	}
	return y.Neg(), nil
}

// Dist0 returns ‖y‖.
func (m *Euclidean[T, B]) Dist0(y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("Dist0", y); err != nil {
		return nil, err
	}
	return m.length(y, keepDim), nil
}

// Transp0 returns u.
func (m *Euclidean[T, B]) Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.identity("Transp0", u, y, u)
}

// Transp0Back returns u.
func (m *Euclidean[T, B]) Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return m.identity("Transp0Back", u, y, u)
}

// GeodesicUnit returns x + t u.
func (m *Euclidean[T, B]) GeodesicUnit(t, x, u *tensor.Tensor[T, B], _ ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if err := m.prepare("GeodesicUnit", x, u); err != nil {
		return nil, err
	}
	if err := m.BroadcastBatch("GeodesicUnit", x.Shape(), t); err != nil {
		return nil, err
	}
	return x.Add(t.Mul(u)), nil
}

var (
	_ manifold.Manifold[float64, tensor.Backend]   = (*Euclidean[float64, tensor.Backend])(nil)
	_ manifold.OriginMaps[float64, tensor.Backend] = (*Euclidean[float64, tensor.Backend])(nil)
	_ manifold.Geodesic[float64, tensor.Backend]   = (*Euclidean[float64, tensor.Backend])(nil)
	_ manifold.Transporter                         = (*Euclidean[float64, tensor.Backend])(nil)
)
