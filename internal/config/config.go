// Package config loads geometry descriptions from YAML and builds the
// manifolds they describe.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/manifold/euclidean"
	"github.com/born-ml/riemann/internal/manifold/lorentz"
	"github.com/born-ml/riemann/internal/manifold/poincare"
	"github.com/born-ml/riemann/internal/manifold/product"
	"github.com/born-ml/riemann/internal/manifold/scaled"
	"github.com/born-ml/riemann/internal/manifold/sphere"
	"github.com/born-ml/riemann/internal/manifold/stiefel"
	"github.com/born-ml/riemann/internal/tensor"
)

// Factor kinds.
const (
	KindLorentz          = "lorentz"
	KindLorentzExact     = "lorentz-exact"
	KindPoincare         = "poincare"
	KindPoincareExact    = "poincare-exact"
	KindSphere           = "sphere"
	KindSphereExact      = "sphere-exact"
	KindStiefel          = "stiefel"
	KindStiefelExact     = "stiefel-exact"
	KindStiefelCanonical = "stiefel-canonical"
	KindEuclidean        = "euclidean"
)

// ErrConfig is wrapped by every validation error of a geometry file.
var ErrConfig = errors.New("invalid geometry")

// Factor describes one component of a geometry.
type Factor struct {
	Kind string `yaml:"kind"`
	// K is the curvature parameter of the curved kinds: K for the
	// hyperboloid and the sphere, c for the Poincaré ball. Zero means 1.
	K         float64 `yaml:"k,omitempty"`
	Learnable bool    `yaml:"learnable,omitempty"`
	Shape     []int   `yaml:"shape"`
}

// Geometry describes a manifold: one factor, or a product of several,
// optionally with a rescaled metric.
type Geometry struct {
	Name    string   `yaml:"name"`
	Factors []Factor `yaml:"factors"`
	// Scale wraps the result in a Scaled manifold when non-zero.
	Scale          float64 `yaml:"scale,omitempty"`
	LearnableScale bool    `yaml:"learnable_scale,omitempty"`
}

// Default returns a small mixed-curvature geometry.
func Default() *Geometry {
	return &Geometry{
		Name: "default",
		Factors: []Factor{
			{Kind: KindLorentzExact, K: 1, Shape: []int{4}},
			{Kind: KindSphereExact, K: 1, Shape: []int{3}},
			{Kind: KindEuclidean, Shape: []int{2}},
		},
	}
}

// Load reads and validates a geometry file.
func Load(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a geometry. Unknown keys are rejected.
func Parse(data []byte) (*Geometry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	g := &Geometry{}
	if err := dec.Decode(g); err != nil {
		return nil, fmt.Errorf("failed to parse geometry: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Marshal encodes g as YAML.
func (g *Geometry) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geometry: %w", err)
	}
	return data, nil
}

// Validate checks kinds, shapes and parameters without building anything.
func (g *Geometry) Validate() error {
	if len(g.Factors) == 0 {
		return fmt.Errorf("%w: no factors", ErrConfig)
	}
	if g.Scale < 0 {
		return fmt.Errorf("%w: scale %v must be positive", ErrConfig, g.Scale)
	}
	for i, f := range g.Factors {
		if err := f.validate(); err != nil {
			return fmt.Errorf("%w: factor %d (%s): %w", ErrConfig, i, f.Kind, err)
		}
	}
	return nil
}

func (f Factor) validate() error {
	if len(f.Shape) == 0 {
		return errors.New("missing shape")
	}
	for _, d := range f.Shape {
		if d <= 0 {
			return fmt.Errorf("shape %v has a non-positive axis", f.Shape)
		}
	}
	if f.K < 0 {
		return fmt.Errorf("k = %v must be positive", f.K)
	}
	switch f.Kind {
	case KindLorentz, KindLorentzExact, KindPoincare, KindPoincareExact, KindSphere, KindSphereExact:
		if len(f.Shape) != 1 {
			return fmt.Errorf("shape %v must have one axis", f.Shape)
		}
	case KindStiefel, KindStiefelExact, KindStiefelCanonical:
		if len(f.Shape) != 2 {
			return fmt.Errorf("shape %v must have two axes", f.Shape)
		}
		if f.K != 0 {
			return errors.New("stiefel factors take no curvature")
		}
	case KindEuclidean:
		if f.K != 0 {
			return errors.New("euclidean factors take no curvature")
		}
	default:
		return fmt.Errorf("unknown kind %q", f.Kind)
	}
	return nil
}

// PointShape returns the shape of one point: the factor shape for a single
// factor, otherwise the total size of all factors.
func (g *Geometry) PointShape() tensor.Shape {
	if len(g.Factors) == 1 {
		return tensor.Shape(g.Factors[0].Shape).Clone()
	}
	total := 0
	for _, f := range g.Factors {
		total += tensor.Shape(f.Shape).NumElements()
	}
	return tensor.Shape{total}
}

// Build validates g and constructs its manifold on backend.
func Build[T tensor.Float, B tensor.Backend](g *Geometry, backend B) (manifold.Manifold[T, B], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	var m manifold.Manifold[T, B]
	if len(g.Factors) == 1 {
		f, err := buildFactor[T](g.Factors[0], backend)
		if err != nil {
			return nil, fmt.Errorf("factor 0 (%s): %w", g.Factors[0].Kind, err)
		}
		m = f
	} else {
		factors := make([]product.Factor[T, B], len(g.Factors))
		for i, fc := range g.Factors {
			f, err := buildFactor[T](fc, backend)
			if err != nil {
				return nil, fmt.Errorf("factor %d (%s): %w", i, fc.Kind, err)
			}
			factors[i] = product.Factor[T, B]{Manifold: f, Shape: tensor.Shape(fc.Shape).Clone()}
		}
		p, err := product.New(backend, factors...)
		if err != nil {
			return nil, err
		}
		m = p
	}

	if g.Scale != 0 {
		s, err := scaled.New(m, scaled.Config{Scale: g.Scale, Learnable: g.LearnableScale})
		if err != nil {
			return nil, err
		}
		m = s
	}
	if err := m.CheckShape(g.PointShape()); err != nil {
		return nil, err
	}
	return m, nil
}

func buildFactor[T tensor.Float, B tensor.Backend](f Factor, backend B) (manifold.Manifold[T, B], error) {
	switch f.Kind {
	case KindLorentz:
		return lorentz.New[T](backend, lorentz.Config{K: f.K, Learnable: f.Learnable, Dim: f.Shape[0]})
	case KindLorentzExact:
		return lorentz.NewExact[T](backend, lorentz.Config{K: f.K, Learnable: f.Learnable, Dim: f.Shape[0]})
	case KindPoincare:
		return poincare.New[T](backend, poincare.Config{C: f.K, Learnable: f.Learnable, Dim: f.Shape[0]})
	case KindPoincareExact:
		return poincare.NewExact[T](backend, poincare.Config{C: f.K, Learnable: f.Learnable, Dim: f.Shape[0]})
	case KindSphere:
		return sphere.New[T](backend, sphere.Config{K: f.K, Learnable: f.Learnable, Dim: f.Shape[0]})
	case KindSphereExact:
		return sphere.NewExact[T](backend, sphere.Config{K: f.K, Learnable: f.Learnable, Dim: f.Shape[0]})
	case KindStiefel:
		return stiefel.New[T](backend, stiefel.Config{N: f.Shape[0], P: f.Shape[1]})
	case KindStiefelExact:
		return stiefel.NewExact[T](backend, stiefel.Config{N: f.Shape[0], P: f.Shape[1]})
	case KindStiefelCanonical:
		return stiefel.NewCanonical[T](backend, stiefel.Config{N: f.Shape[0], P: f.Shape[1]})
	case KindEuclidean:
		return euclidean.New[T](backend, euclidean.Config{Shape: tensor.Shape(f.Shape).Clone()})
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrConfig, f.Kind)
}
