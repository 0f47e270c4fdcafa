// Package diagnostics runs the defining geometric properties of a manifold
// on random samples and reports how far each one is from holding exactly.
//
// The same suite backs the package tests of every geometry and the
// `riemann check` command.
package diagnostics

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/tensor"
)

// Property names one checked identity.
type Property string

// Checked properties.
const (
	PointOnManifold   Property = "point-on-manifold"
	ProjxIdempotent   Property = "projx-idempotent"
	VectorOnTangent   Property = "vector-on-tangent"
	ExpmapLogmap      Property = "expmap-logmap"
	LogmapSelf        Property = "logmap-self"
	DistLogmapNorm    Property = "dist-logmap-norm"
	DistSymmetric     Property = "dist-symmetric"
	TranspTangent     Property = "transp-tangent"
	TranspInner       Property = "transp-inner"
	GeodesicArcLength Property = "geodesic-arc-length"
	OriginMaps        Property = "origin-maps"
)

// Result is the outcome of one property.
type Result struct {
	Property Property
	OK       bool
	// Skipped is set when the manifold does not provide an operation the
	// property needs.
	Skipped  bool
	Residual float64
	Reason   string
}

// Report collects the results of Run.
type Report struct {
	Manifold string
	DType    tensor.DataType
	Results  []Result
}

// OK reports whether no property failed.
func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the failing results.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK && !res.Skipped {
			out = append(out, res)
		}
	}
	return out
}

// Options configures Run. Zero fields take defaults.
type Options struct {
	// Samples is the batch size of every sampled tensor (default 64).
	Samples int
	// Std is the spread of sampled points and tangent vectors (default 0.5).
	Std float64
	// Segments is the number of geodesic steps in [0, 1] (default 12).
	Segments int
	// Tolerance bounds composed maps. Membership checks use the manifold's
	// own default.
	Tolerance manifold.Tolerance
	Rand      *rand.Rand
}

// DefaultTolerance returns the tolerance for composed maps in T.
func DefaultTolerance[T tensor.Float]() manifold.Tolerance {
	if tensor.DTypeOf[T]() == tensor.Float32 {
		return manifold.Tolerance{Atol: 1e-3, Rtol: 1e-3}
	}
	return manifold.Tolerance{Atol: 1e-6, Rtol: 1e-6}
}

func (o Options) resolve(dt tensor.DataType) Options {
	if o.Samples <= 0 {
		o.Samples = 64
	}
	if o.Std <= 0 {
		o.Std = 0.5
	}
	if o.Segments <= 0 {
		o.Segments = 12
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(0)) //nolint:gosec // sampling, not crypto
	}
	if o.Tolerance == (manifold.Tolerance{}) {
		if dt == tensor.Float32 {
			o.Tolerance = DefaultTolerance[float32]()
		} else {
			o.Tolerance = DefaultTolerance[float64]()
		}
	}
	return o
}

type runner[T tensor.Float, B tensor.Backend] struct {
	m     manifold.Manifold[T, B]
	opts  Options
	shape tensor.Shape
	x, y  *tensor.Tensor[T, B] // points
	u, v  *tensor.Tensor[T, B] // tangent at x
}

// Run samples points of shape point (without batch axis) on m and checks
// every applicable property.
func Run[T tensor.Float, B tensor.Backend](m manifold.Manifold[T, B], point tensor.Shape, opts Options) (Report, error) {
	opts = opts.resolve(tensor.DTypeOf[T]())
	r := &runner[T, B]{m: m, opts: opts, shape: tensor.Shape{opts.Samples}.Concat(point...)}
	if err := r.sample(); err != nil {
		return Report{}, fmt.Errorf("diagnostics: %s: %w", m.Name(), err)
	}

	checks := []struct {
		p  Property
		fn func() (manifold.Check, error)
	}{
		{PointOnManifold, r.pointOnManifold},
		{ProjxIdempotent, r.projxIdempotent},
		{VectorOnTangent, r.vectorOnTangent},
		{ExpmapLogmap, r.expmapLogmap},
		{LogmapSelf, r.logmapSelf},
		{DistLogmapNorm, r.distLogmapNorm},
		{DistSymmetric, r.distSymmetric},
		{TranspTangent, r.transpTangent},
		{TranspInner, r.transpInner},
		{GeodesicArcLength, r.geodesicArcLength},
		{OriginMaps, r.originMaps},
	}
	report := Report{Manifold: m.Name(), DType: tensor.DTypeOf[T]()}
	for _, c := range checks {
		report.Results = append(report.Results, toResult(c.p, c.fn))
	}
	return report, nil
}

var errSkip = errors.New("not applicable")

func toResult(p Property, fn func() (manifold.Check, error)) Result {
	c, err := fn()
	switch {
	case errors.Is(err, errSkip), errors.Is(err, manifold.ErrNotImplemented):
		return Result{Property: p, Skipped: true, Reason: err.Error()}
	case err != nil:
		return Result{Property: p, Reason: err.Error()}
	}
	return Result{Property: p, OK: c.OK, Residual: c.Residual, Reason: c.Reason}
}

func (r *runner[T, B]) sample() error {
	so := manifold.SampleOptions[T, B]{Std: r.opts.Std, Rand: r.opts.Rand}
	var err error
	if r.x, err = r.m.RandomNormal(r.shape, so); err != nil {
		return err
	}
	if r.y, err = r.m.RandomNormal(r.shape, so); err != nil {
		return err
	}
	if r.u, err = r.tangent(r.x); err != nil {
		return err
	}
	r.v, err = r.tangent(r.x)
	return err
}

func (r *runner[T, B]) tangent(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	noise := tensor.Randn[T](x.Shape(), r.opts.Rand, r.m.Backend()).MulScalar(T(r.opts.Std))
	return r.m.Proju(x, noise)
}

func (r *runner[T, B]) zeros(shape tensor.Shape) *tensor.Tensor[T, B] {
	return tensor.Zeros[T](shape, r.m.Backend())
}

func (r *runner[T, B]) pointOnManifold() (manifold.Check, error) {
	if c := r.m.CheckPointOnManifold(r.x, manifold.Tolerance{}); !c.OK {
		return c, nil
	}
	return r.m.CheckPointOnManifold(r.y, manifold.Tolerance{}), nil
}

func (r *runner[T, B]) projxIdempotent() (manifold.Check, error) {
	px, err := r.m.Projx(r.x)
	if err != nil {
		return manifold.Check{}, err
	}
	return manifold.CheckClose(px, r.x, r.opts.Tolerance, "Projx moved a point of the manifold"), nil
}

func (r *runner[T, B]) vectorOnTangent() (manifold.Check, error) {
	return r.m.CheckVectorOnTangent(r.x, r.u, manifold.Tolerance{}), nil
}

func (r *runner[T, B]) expmapLogmap() (manifold.Check, error) {
	w, err := r.m.Logmap(r.x, r.y)
	if err != nil {
		return manifold.Check{}, err
	}
	yh, err := r.m.Expmap(r.x, w)
	if err != nil {
		return manifold.Check{}, err
	}
	return manifold.CheckClose(yh, r.y, r.opts.Tolerance, "Expmap(x, Logmap(x, y)) differs from y"), nil
}

func (r *runner[T, B]) logmapSelf() (manifold.Check, error) {
	w, err := r.m.Logmap(r.x, r.x)
	if err != nil {
		return manifold.Check{}, err
	}
	return manifold.CheckClose(w, r.zeros(w.Shape()), r.opts.Tolerance, "Logmap(x, x) is not zero"), nil
}

func (r *runner[T, B]) distLogmapNorm() (manifold.Check, error) {
	d, err := r.m.Dist(r.x, r.y, false)
	if err != nil {
		return manifold.Check{}, err
	}
	w, err := r.m.Logmap(r.x, r.y)
	if err != nil {
		return manifold.Check{}, err
	}
	n, err := r.m.Norm(r.x, w, false)
	if err != nil {
		return manifold.Check{}, err
	}
	return manifold.CheckClose(n, d, r.opts.Tolerance, "‖Logmap(x, y)‖ differs from Dist(x, y)"), nil
}

func (r *runner[T, B]) distSymmetric() (manifold.Check, error) {
	dxy, err := r.m.Dist(r.x, r.y, false)
	if err != nil {
		return manifold.Check{}, err
	}
	dyx, err := r.m.Dist(r.y, r.x, false)
	if err != nil {
		return manifold.Check{}, err
	}
	return manifold.CheckClose(dxy, dyx, r.opts.Tolerance, "Dist is not symmetric"), nil
}

func (r *runner[T, B]) transpTangent() (manifold.Check, error) {
	z, w, err := r.m.RetrTransp(r.x, r.u, r.v)
	if err != nil {
		return manifold.Check{}, err
	}
	return r.m.CheckVectorOnTangent(z, w, r.opts.Tolerance), nil
}

func (r *runner[T, B]) transpInner() (manifold.Check, error) {
	if tr, ok := r.m.(manifold.Transporter); !ok || !tr.ParallelTransport() {
		return manifold.Check{}, fmt.Errorf("%w: transport is not isometric", errSkip)
	}
	before, err := r.m.Inner(r.x, r.u, r.v, false)
	if err != nil {
		return manifold.Check{}, err
	}
	tu, err := r.m.Transp(r.x, r.y, r.u)
	if err != nil {
		return manifold.Check{}, err
	}
	tv, err := r.m.Transp(r.x, r.y, r.v)
	if err != nil {
		return manifold.Check{}, err
	}
	after, err := r.m.Inner(r.y, tu, tv, false)
	if err != nil {
		return manifold.Check{}, err
	}
	return manifold.CheckClose(after, before, r.opts.Tolerance, "transport changed the inner product"), nil
}

func (r *runner[T, B]) geodesicArcLength() (manifold.Check, error) {
	g, ok := r.m.(manifold.Geodesic[T, B])
	if !ok {
		return manifold.Check{}, fmt.Errorf("%w: no unit geodesic", errSkip)
	}
	n, err := r.m.Norm(r.x, r.u, true)
	if err != nil {
		return manifold.Check{}, err
	}
	unit := r.u.Div(n)

	segs := r.opts.Segments
	vals := make([]T, segs+1)
	for i := range vals {
		vals[i] = T(float64(i) / float64(segs))
	}
	tshape := tensor.Shape{segs + 1}
	for range r.shape {
		tshape = tshape.Concat(1)
	}
	ts, err := tensor.FromSlice(vals, tshape, r.m.Backend())
	if err != nil {
		return manifold.Check{}, err
	}

	gamma, err := g.GeodesicUnit(ts, r.x, unit)
	if err != nil {
		return manifold.Check{}, err
	}
	d, err := r.m.Dist(gamma.Narrow(0, 0, 1), gamma, true)
	if err != nil {
		return manifold.Check{}, err
	}
	return manifold.CheckClose(d.Narrow(0, 1, segs), ts.Narrow(0, 1, segs), r.opts.Tolerance,
		"unit geodesic does not travel arc length t"), nil
}

func (r *runner[T, B]) originMaps() (manifold.Check, error) {
	om, ok := r.m.(manifold.OriginMaps[T, B])
	if !ok {
		return manifold.Check{}, fmt.Errorf("%w: no origin maps", errSkip)
	}
	o, err := r.m.Origin(r.shape)
	if err != nil {
		return manifold.Check{}, err
	}
	u0, err := r.tangent(o)
	if err != nil {
		return manifold.Check{}, err
	}

	pairs := []struct {
		what       string
		fast, full func() (*tensor.Tensor[T, B], error)
	}{
		{"Expmap0", func() (*tensor.Tensor[T, B], error) { return om.Expmap0(u0) },
			func() (*tensor.Tensor[T, B], error) { return r.m.Expmap(o, u0) }},
		{"Logmap0", func() (*tensor.Tensor[T, B], error) { return om.Logmap0(r.y) },
			func() (*tensor.Tensor[T, B], error) { return r.m.Logmap(o, r.y) }},
		{"Logmap0Back", func() (*tensor.Tensor[T, B], error) { return om.Logmap0Back(r.y) },
			func() (*tensor.Tensor[T, B], error) { return r.m.Logmap(r.y, o) }},
		{"Dist0", func() (*tensor.Tensor[T, B], error) { return om.Dist0(r.y, false) },
			func() (*tensor.Tensor[T, B], error) { return r.m.Dist(o, r.y, false) }},
		{"Transp0", func() (*tensor.Tensor[T, B], error) { return om.Transp0(r.y, u0) },
			func() (*tensor.Tensor[T, B], error) { return r.m.Transp(o, r.y, u0) }},
	}
	worst := manifold.Pass(0)
	for _, p := range pairs {
		fast, err := p.fast()
		if err != nil {
			return manifold.Check{}, err
		}
		full, err := p.full()
		if err != nil {
			return manifold.Check{}, err
		}
		c := manifold.CheckClose(fast, full, r.opts.Tolerance, p.what+" differs from the general map at the origin")
		if !c.OK {
			return c, nil
		}
		worst.Residual = max(worst.Residual, c.Residual)
	}
	return worst, nil
}
