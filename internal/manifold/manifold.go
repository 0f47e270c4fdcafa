// Package manifold defines the contract shared by every Riemannian manifold
// in this module, together with the validation, parameter and option types
// the concrete geometries build on.
//
// Points and tangent vectors are plain tensors in the ambient chart with an
// arbitrary batch prefix. Manifold objects never mutate their inputs and are
// safe for concurrent use.
package manifold

import (
	"math/rand"

	"github.com/born-ml/riemann/internal/tensor"
)

// Manifold is the operation set an optimiser needs to move on a curved space.
//
// Every method validates shapes before computing and returns an error
// wrapping ErrShape on mismatch. Tangent vectors are relative to the given
// base point; no method checks membership unless its name says so.
type Manifold[T tensor.Float, B tensor.Backend] interface {
	// Name identifies the geometry and its flavour, e.g. "LorentzExact".
	Name() string

	// Ndim is the number of trailing axes that form one point.
	Ndim() int

	// Reversible reports whether Retr and Transp invert exactly along the
	// reverse direction.
	Reversible() bool

	// Backend returns the backend the manifold allocates results on.
	Backend() B

	// CheckShape reports whether shape can hold points of this manifold.
	CheckShape(shape tensor.Shape) error

	CheckPointOnManifold(x *tensor.Tensor[T, B], tol Tolerance) Check
	CheckVectorOnTangent(x, u *tensor.Tensor[T, B], tol Tolerance) Check

	// Projx maps an ambient point to the nearest point on the manifold.
	Projx(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
	// Proju projects an ambient vector onto the tangent space at x.
	Proju(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
	// Egrad2rgrad converts a Euclidean gradient at x into the Riemannian one.
	Egrad2rgrad(x, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)

	Retr(x, u *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error)
	Expmap(x, u *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error)
	Logmap(x, y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)

	// Transp moves v from the tangent space at x to the one at y.
	Transp(x, y, v *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
	// RetrTransp retracts x along u and transports v to the new point.
	RetrTransp(x, u, v *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error)

	// Inner is the metric at x. A nil v means v = u.
	Inner(x, u, v *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error)
	Norm(x, u *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error)
	Dist(x, y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error)

	// Origin returns the canonical base point broadcast to shape.
	Origin(shape tensor.Shape) (*tensor.Tensor[T, B], error)
	// RandomNormal samples points around opts.Mean.
	RandomNormal(shape tensor.Shape, opts SampleOptions[T, B]) (*tensor.Tensor[T, B], error)
}

// OriginMaps is implemented by manifolds with closed-form maps anchored at
// the origin.
type OriginMaps[T tensor.Float, B tensor.Backend] interface {
	Expmap0(u *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error)
	Logmap0(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
	// Logmap0Back returns the logarithm of the origin at y.
	Logmap0Back(y *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
	Dist0(y *tensor.Tensor[T, B], keepDim bool) (*tensor.Tensor[T, B], error)
	// Transp0 moves u from the origin to y; Transp0Back moves it back.
	Transp0(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
	Transp0Back(y, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
}

// Geodesic is implemented by manifolds that evaluate unit-speed geodesics.
type Geodesic[T tensor.Float, B tensor.Backend] interface {
	// GeodesicUnit returns the point at arc length t along the geodesic
	// leaving x with unit direction u.
	GeodesicUnit(t, x, u *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error)
}

// Transporter is implemented by manifolds that report whether Transp is
// parallel transport and therefore preserves the metric.
type Transporter interface {
	ParallelTransport() bool
}

// Parameterized is implemented by manifolds that own learnable parameters.
type Parameterized[T tensor.Float, B tensor.Backend] interface {
	Parameters() []*Param[T, B]
}

// Options configures the map operations.
type Options struct {
	// Project re-projects the result of a map onto the manifold.
	Project bool
}

// Option modifies Options.
type Option func(*Options)

// WithProject sets whether map results are re-projected. Defaults to true.
func WithProject(project bool) Option {
	return func(o *Options) { o.Project = project }
}

// ResolveOptions applies opts over the defaults.
func ResolveOptions(opts ...Option) Options {
	o := Options{Project: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SampleOptions configures RandomNormal.
type SampleOptions[T tensor.Float, B tensor.Backend] struct {
	// Mean is the point the samples concentrate around; nil means the origin.
	Mean *tensor.Tensor[T, B]
	// Std is the standard deviation of the tangent noise; 0 means 1.
	Std float64
	// Rand is the randomness source; nil means a source seeded with 0.
	Rand *rand.Rand
}

// Resolve fills in defaults.
func (o SampleOptions[T, B]) Resolve() SampleOptions[T, B] {
	if o.Std == 0 {
		o.Std = 1
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(0)) //nolint:gosec // sampling, not crypto
	}
	return o
}
