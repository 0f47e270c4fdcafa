// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package manifold

import (
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/tensor"
)

// Manifold is the operation set an optimiser needs to move on a curved space.
type Manifold[T tensor.Float, B tensor.Backend] = manifold.Manifold[T, B]

// OriginMaps is implemented by manifolds with closed-form maps anchored at
// the origin.
type OriginMaps[T tensor.Float, B tensor.Backend] = manifold.OriginMaps[T, B]

// Geodesic is implemented by manifolds that evaluate unit-speed geodesics.
type Geodesic[T tensor.Float, B tensor.Backend] = manifold.Geodesic[T, B]

// Transporter reports whether Transp is parallel transport.
type Transporter = manifold.Transporter

// Parameterized is implemented by manifolds that own learnable parameters.
type Parameterized[T tensor.Float, B tensor.Backend] = manifold.Parameterized[T, B]

// Param is a shared handle to a curvature or scale.
type Param[T tensor.Float, B tensor.Backend] = manifold.Param[T, B]

// Tolerance bounds |a - b| ≤ Atol + Rtol·|b| in membership checks.
type Tolerance = manifold.Tolerance

// Check is the outcome of a membership test.
type Check = manifold.Check

// ValidationError is returned by the Assert helpers when a check fails.
type ValidationError = manifold.ValidationError

// Options configures the map operations.
type Options = manifold.Options

// Option modifies Options.
type Option = manifold.Option

// SampleOptions configures RandomNormal.
type SampleOptions[T tensor.Float, B tensor.Backend] = manifold.SampleOptions[T, B]

// Sentinel errors.
var (
	ErrShape          = manifold.ErrShape
	ErrNotOnManifold  = manifold.ErrNotOnManifold
	ErrNotOnTangent   = manifold.ErrNotOnTangent
	ErrNotImplemented = manifold.ErrNotImplemented
	ErrInvalidParam   = manifold.ErrInvalidParam
)

// WithProject sets whether map results are re-projected. Defaults to true.
func WithProject(project bool) Option {
	return manifold.WithProject(project)
}

// DefaultTolerance returns the membership tolerance for T.
func DefaultTolerance[T tensor.Float]() Tolerance {
	return manifold.DefaultTolerance[T]()
}

// AssertPointOnManifold returns a *ValidationError unless x lies on m.
func AssertPointOnManifold[T tensor.Float, B tensor.Backend](m Manifold[T, B], x *tensor.Tensor[T, B], tol Tolerance) error {
	return manifold.AssertPointOnManifold(m, x, tol)
}

// AssertVectorOnTangent returns a *ValidationError unless u is tangent at x.
func AssertVectorOnTangent[T tensor.Float, B tensor.Backend](m Manifold[T, B], x, u *tensor.Tensor[T, B], tol Tolerance) error {
	return manifold.AssertVectorOnTangent(m, x, u, tol)
}
