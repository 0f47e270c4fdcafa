// Package product implements the Cartesian product of manifolds.
//
// A point of the product is the concatenation of the flattened factor
// points along the last axis. Operations narrow each factor's slice,
// reshape it to the factor's point shape, dispatch to the factor and
// concatenate the results in factor order.
package product

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/tensor"
)

// Factor is one component of a product: a manifold and the shape of its
// points without batch axes.
type Factor[T tensor.Float, B tensor.Backend] struct {
	Manifold manifold.Manifold[T, B]
	Shape    tensor.Shape
}

// Product is the Cartesian product of its factors.
type Product[T tensor.Float, B tensor.Backend] struct {
	manifold.Base[T, B]
	factors []Factor[T, B]
	offsets []int // offsets[i] is the start of factor i; the last entry is the total size
}

// New creates the product of factors.
func New[T tensor.Float, B tensor.Backend](backend B, factors ...Factor[T, B]) (*Product[T, B], error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("Product: %w: no factors", manifold.ErrInvalidParam)
	}
	offsets := make([]int, len(factors)+1)
	for i, f := range factors {
		if f.Manifold == nil {
			return nil, fmt.Errorf("Product: factor %d: %w: nil manifold", i, manifold.ErrInvalidParam)
		}
		if len(f.Shape) != f.Manifold.Ndim() {
			return nil, fmt.Errorf("Product: factor %d (%s): %w: shape %v has %d axes, want %d",
				i, f.Manifold.Name(), manifold.ErrShape, f.Shape, len(f.Shape), f.Manifold.Ndim())
		}
		if err := f.Manifold.CheckShape(f.Shape); err != nil {
			return nil, fmt.Errorf("Product: factor %d: %w", i, err)
		}
		offsets[i+1] = offsets[i] + f.Shape.NumElements()
	}
	total := offsets[len(factors)]
	p := &Product[T, B]{factors: factors, offsets: offsets}
	p.Base = manifold.NewBase[T]("Product", 1, backend, func(s tensor.Shape) error {
		if s[0] != total {
			return fmt.Errorf("last axis must have %d elements, got %d", total, s[0])
		}
		return nil
	})
	return p, nil
}

// Factors returns the factors in order.
func (p *Product[T, B]) Factors() []Factor[T, B] {
	return append([]Factor[T, B](nil), p.factors...)
}

// Offsets returns the start of every factor's slice followed by the total
// size.
func (p *Product[T, B]) Offsets() []int {
	return append([]int(nil), p.offsets...)
}

// Take returns factor i of x reshaped to the factor's point shape.
func (p *Product[T, B]) Take(x *tensor.Tensor[T, B], i int) *tensor.Tensor[T, B] {
	size := p.offsets[i+1] - p.offsets[i]
	part := x.Narrow(-1, p.offsets[i], size)
	return part.Reshape(x.Shape().Batch(1).Concat(p.factors[i].Shape...))
}

// Pack flattens factor tensors and concatenates them along the last axis.
func (p *Product[T, B]) Pack(parts []*tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	flat := make([]*tensor.Tensor[T, B], len(parts))
	for i, t := range parts {
		nd := len(p.factors[i].Shape)
		size := p.offsets[i+1] - p.offsets[i]
		flat[i] = t.Reshape(t.Shape().Batch(nd).Concat(size))
	}
	return manifold.ConcatLast(flat...)
}

func (p *Product[T, B]) factorErr(i int, err error) error {
	return fmt.Errorf("Product: factor %d: %w", i, err)
}

// each runs fn for every factor concurrently and returns the results in
// factor order.
func (p *Product[T, B]) each(fn func(i int, m manifold.Manifold[T, B]) (*tensor.Tensor[T, B], error)) ([]*tensor.Tensor[T, B], error) {
	out := make([]*tensor.Tensor[T, B], len(p.factors))
	var g errgroup.Group
	for i, f := range p.factors {
		g.Go(func() error {
			r, err := fn(i, f.Manifold)
			if err != nil {
				return p.factorErr(i, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// mapPoints validates ts, splits them per factor and packs the per-factor
// results of fn.
func (p *Product[T, B]) mapPoints(op string, fn func(m manifold.Manifold[T, B], parts []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error), ts ...*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if _, err := p.Broadcast(op, ts...); err != nil {
		return nil, err
	}
	out, err := p.each(func(i int, m manifold.Manifold[T, B]) (*tensor.Tensor[T, B], error) {
		return fn(m, p.split(i, ts))
	})
	if err != nil {
		return nil, err
	}
	return p.Pack(out), nil
}

// mapScalars is mapPoints for operations returning one value per point.
func (p *Product[T, B]) mapScalars(op string, fn func(m manifold.Manifold[T, B], parts []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error), ts ...*tensor.Tensor[T, B]) ([]*tensor.Tensor[T, B], error) {
	if _, err := p.Broadcast(op, ts...); err != nil {
		return nil, err
	}
	return p.each(func(i int, m manifold.Manifold[T, B]) (*tensor.Tensor[T, B], error) {
		return fn(m, p.split(i, ts))
	})
}

func (p *Product[T, B]) split(i int, ts []*tensor.Tensor[T, B]) []*tensor.Tensor[T, B] {
	parts := make([]*tensor.Tensor[T, B], len(ts))
	for j, t := range ts {
		parts[j] = p.Take(t, i)
	}
	return parts
}

// Reversible reports whether every factor is reversible.
func (p *Product[T, B]) Reversible() bool {
	for _, f := range p.factors {
		if !f.Manifold.Reversible() {
			return false
		}
	}
	return true
}

// ParallelTransport reports whether every factor parallel-transports.
func (p *Product[T, B]) ParallelTransport() bool {
	for _, f := range p.factors {
		tr, ok := f.Manifold.(manifold.Transporter)
		if !ok || !tr.ParallelTransport() {
			return false
		}
	}
	return true
}

// Parameters collects the learnable parameters of the factors.
func (p *Product[T, B]) Parameters() []*manifold.Param[T, B] {
	var out []*manifold.Param[T, B]
	for _, f := range p.factors {
		if pm, ok := f.Manifold.(manifold.Parameterized[T, B]); ok {
			out = append(out, pm.Parameters()...)
		}
	}
	return out
}

func (p *Product[T, B]) check(op string, ts []*tensor.Tensor[T, B], fn func(m manifold.Manifold[T, B], parts []*tensor.Tensor[T, B]) manifold.Check) manifold.Check {
	if _, err := p.Broadcast(op, ts...); err != nil {
		return manifold.Fail(0, "%v", err)
	}
	worst := manifold.Pass(0)
	for i, f := range p.factors {
		c := fn(f.Manifold, p.split(i, ts))
		if !c.OK {
			return manifold.Fail(c.Residual, "factor %d (%s): %s", i, f.Manifold.Name(), c.Reason)
		}
		worst.Residual = math.Max(worst.Residual, c.Residual)
	}
	return worst
}

// CheckPointOnManifold checks every factor and reports the first failure.
func (p *Product[T, B]) CheckPointOnManifold(x *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	return p.check("CheckPointOnManifold", []*tensor.Tensor[T, B]{x}, func(m manifold.Manifold[T, B], parts []*tensor.Tensor[T, B]) manifold.Check {
		return m.CheckPointOnManifold(parts[0], tol)
	})
}

// CheckVectorOnTangent checks every factor and reports the first failure.
func (p *Product[T, B]) CheckVectorOnTangent(x, u *tensor.Tensor[T, B], tol manifold.Tolerance) manifold.Check {
	return p.check("CheckVectorOnTangent", []*tensor.Tensor[T, B]{x, u}, func(m manifold.Manifold[T, B], parts []*tensor.Tensor[T, B]) manifold.Check {
		return m.CheckVectorOnTangent(parts[0], parts[1], tol)
	})
}

// Projx projects every factor.
func (p *Product[T, B]) Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapPoints("Projx", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Projx(in[0])
	}, x)
}

// Proju projects every factor of u.
func (p *Product[T, B]) Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapPoints("Proju", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Proju(in[0], in[1])
	}, x, u)
}

// Egrad2rgrad converts every factor of u.
func (p *Product[T, B]) Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapPoints("Egrad2rgrad", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Egrad2rgrad(in[0], in[1])
	}, x, u)
}

// Retr retracts every factor.
func (p *Product[T, B]) Retr(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return p.mapPoints("Retr", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Retr(in[0], in[1], opts...)
	}, x, u)
}

// Expmap applies every factor's exponential map.
func (p *Product[T, B]) Expmap(x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return p.mapPoints("Expmap", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Expmap(in[0], in[1], opts...)
	}, x, u)
}

// Logmap applies every factor's logarithm.
func (p *Product[T, B]) Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapPoints("Logmap", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Logmap(in[0], in[1])
	}, x, y)
}

// Transp transports every factor of v.
func (p *Product[T, B]) Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapPoints("Transp", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Transp(in[0], in[1], in[2])
	}, x, y, v)
}

// RetrTransp retracts and transports every factor.
func (p *Product[T, B]) RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	if _, err := p.Broadcast("RetrTransp", x, u, v); err != nil {
		return nil, nil, err
	}
	ys := make([]*tensor.Tensor[T, B], len(p.factors))
	ws, err := p.each(func(i int, m manifold.Manifold[T, B]) (*tensor.Tensor[T, B], error) {
		in := p.split(i, []*tensor.Tensor[T, B]{x, u, v})
		y, w, err := m.RetrTransp(in[0], in[1], in[2], opts...)
		ys[i] = y
		return w, err
	})
	if err != nil {
		return nil, nil, err
	}
	return p.Pack(ys), p.Pack(ws), nil
}

// Inner sums the factor inner products.
func (p *Product[T, B]) Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	if v == nil {
		v = u
	}
	parts, err := p.mapScalars("Inner", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Inner(in[0], in[1], in[2], false)
	}, x, u, v)
	if err != nil {
		return nil, err
	}
	return keep(sum(parts), keepDim), nil
}

// Norm returns the square root of the summed squared factor norms.
func (p *Product[T, B]) Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	parts, err := p.mapScalars("Norm", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Norm(in[0], in[1], false)
	}, x, u)
	if err != nil {
		return nil, err
	}
	return keep(rootSumSquares(parts), keepDim), nil
}

// Dist returns the square root of the summed squared factor distances.
func (p *Product[T, B]) Dist(x, y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	parts, err := p.mapScalars("Dist", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return m.Dist(in[0], in[1], false)
	}, x, y)
	if err != nil {
		return nil, err
	}
	return keep(rootSumSquares(parts), keepDim), nil
}

func sum[T tensor.Float, B tensor.Backend](parts []*tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	total := parts[0]
	for _, t := range parts[1:] {
		total = total.Add(t)
	}
	return total
}

func rootSumSquares[T tensor.Float, B tensor.Backend](parts []*tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	squares := make([]*tensor.Tensor[T, B], len(parts))
	for i, t := range parts {
		squares[i] = t.Square()
	}
	return sum(squares).Sqrt()
}

func keep[T tensor.Float, B tensor.Backend](t *tensor.Tensor[T, B], keepDim bool) *tensor.Tensor[T, B] {
	if keepDim {
		return t.Unsqueeze(-1)
	}
	return t
}

// Origin concatenates the factor origins.
func (p *Product[T, B]) Origin(shape tensor.Shape) (*tensor.Tensor[T, B], error) {
	if err := p.CheckShape(shape); err != nil {
		return nil, err
	}
	batch := shape.Batch(1)
	parts := make([]*tensor.Tensor[T, B], len(p.factors))
	for i, f := range p.factors {
		o, err := f.Manifold.Origin(batch.Concat(f.Shape...))
		if err != nil {
			return nil, p.factorErr(i, err)
		}
		parts[i] = o
	}
	return p.Pack(parts), nil
}

// RandomNormal samples every factor in order from the same source. Factors
// are sampled sequentially because a *rand.Rand is not safe for concurrent
// use.
func (p *Product[T, B]) RandomNormal(shape tensor.Shape, opts manifold.SampleOptions[T, B]) (*tensor.Tensor[T, B], error) {
	if err := p.CheckShape(shape); err != nil {
		return nil, err
	}
	opts = opts.Resolve()
	if opts.Mean != nil {
		if _, err := p.Broadcast("RandomNormal", opts.Mean); err != nil {
			return nil, err
		}
	}
	batch := shape.Batch(1)
	parts := make([]*tensor.Tensor[T, B], len(p.factors))
	for i, f := range p.factors {
		fo := opts
		if opts.Mean != nil {
			fo.Mean = p.Take(opts.Mean, i)
		}
		x, err := f.Manifold.RandomNormal(batch.Concat(f.Shape...), fo)
		if err != nil {
			return nil, p.factorErr(i, err)
		}
		parts[i] = x
	}
	return p.Pack(parts), nil
}

func (p *Product[T, B]) originMaps(i int) (manifold.OriginMaps[T, B], error) {
	om, ok := p.factors[i].Manifold.(manifold.OriginMaps[T, B])
	if !ok {
		return nil, manifold.NotImplemented(p.factors[i].Manifold.Name(), "origin maps")
	}
	return om, nil
}

// Expmap0 applies every factor's Expmap0.
func (p *Product[T, B]) Expmap0(u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	return p.mapOrigin("Expmap0", func(om manifold.OriginMaps[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return om.Expmap0(in[0], opts...)
	}, u)
}

// Logmap0 applies every factor's Logmap0.
func (p *Product[T, B]) Logmap0(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapOrigin("Logmap0", func(om manifold.OriginMaps[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return om.Logmap0(in[0])
	}, y)
}

// Logmap0Back applies every factor's Logmap0Back.
func (p *Product[T, B]) Logmap0Back(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapOrigin("Logmap0Back", func(om manifold.OriginMaps[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return om.Logmap0Back(in[0])
	}, y)
}

// Transp0 applies every factor's Transp0.
func (p *Product[T, B]) Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapOrigin("Transp0", func(om manifold.OriginMaps[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return om.Transp0(in[0], in[1])
	}, y, u)
}

// Transp0Back applies every factor's Transp0Back.
func (p *Product[T, B]) Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return p.mapOrigin("Transp0Back", func(om manifold.OriginMaps[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		return om.Transp0Back(in[0], in[1])
	}, y, u)
}

// Dist0 returns the square root of the summed squared factor distances
// from the origin.
func (p *Product[T, B]) Dist0(y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error) {
	parts, err := p.mapScalars("Dist0", func(m manifold.Manifold[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
		om, ok := m.(manifold.OriginMaps[T, B])
		if !ok {
			return nil, manifold.NotImplemented(m.Name(), "origin maps")
		}
		return om.Dist0(in[0], false)
	}, y)
	if err != nil {
		return nil, err
	}
	return keep(rootSumSquares(parts), keepDim), nil
}

func (p *Product[T, B]) mapOrigin(op string, fn func(om manifold.OriginMaps[T, B], in []*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error), ts ...*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if _, err := p.Broadcast(op, ts...); err != nil {
		return nil, err
	}
	out, err := p.each(func(i int, _ manifold.Manifold[T, B]) (*tensor.Tensor[T, B], error) {
		om, err := p.originMaps(i)
		if err != nil {
			return nil, err
		}
		return fn(om, p.split(i, ts))
	})
	if err != nil {
		return nil, err
	}
	return p.Pack(out), nil
}

// GeodesicUnit follows the product geodesic with unit-speed velocity u:
// factor i moves along its own unit geodesic for time t‖uᵢ‖.
func (p *Product[T, B]) GeodesicUnit(t, x, u *tensor.Tensor[T, B], opts ...manifold.Option) (*tensor.Tensor[T, B], error) {
	if _, err := p.Broadcast("GeodesicUnit", x, u); err != nil {
		return nil, err
	}
	if err := p.BroadcastBatch("GeodesicUnit", x.Shape(), t); err != nil {
		return nil, err
	}
	tb := t
	if t.Rank() > 0 {
		if t.Dim(-1) != 1 {
			return nil, fmt.Errorf("Product.GeodesicUnit: %w: t must have a singleton last axis, got %v", manifold.ErrShape, t.Shape())
		}
		tb = t.Squeeze(-1)
	}
	out, err := p.each(func(i int, m manifold.Manifold[T, B]) (*tensor.Tensor[T, B], error) {
		g, ok := m.(manifold.Geodesic[T, B])
		if !ok {
			return nil, manifold.NotImplemented(m.Name(), "GeodesicUnit")
		}
		in := p.split(i, []*tensor.Tensor[T, B]{x, u})
		speed, err := m.Norm(in[0], in[1], false)
		if err != nil {
			return nil, err
		}
		ti := keepAxes(tb.Mul(speed), m.Ndim())
		unit := in[1].Div(keepAxes(speed, m.Ndim()))
		return g.GeodesicUnit(ti, in[0], unit, opts...)
	})
	if err != nil {
		return nil, err
	}
	return p.Pack(out), nil
}

func keepAxes[T tensor.Float, B tensor.Backend](t *tensor.Tensor[T, B], n int) *tensor.Tensor[T, B] {
	for range n {
		t = t.Unsqueeze(-1)
	}
	return t
}

var (
	_ manifold.Manifold[float64, tensor.Backend]      = (*Product[float64, tensor.Backend])(nil)
	_ manifold.Parameterized[float64, tensor.Backend] = (*Product[float64, tensor.Backend])(nil)
	_ manifold.Transporter                            = (*Product[float64, tensor.Backend])(nil)
	_ manifold.OriginMaps[float64, tensor.Backend]    = (*Product[float64, tensor.Backend])(nil)
	_ manifold.Geodesic[float64, tensor.Backend]      = (*Product[float64, tensor.Backend])(nil)
)
