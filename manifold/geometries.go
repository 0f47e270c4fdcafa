// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package manifold

import (
	"github.com/born-ml/riemann/internal/manifold/euclidean"
	"github.com/born-ml/riemann/internal/manifold/lorentz"
	"github.com/born-ml/riemann/internal/manifold/poincare"
	"github.com/born-ml/riemann/internal/manifold/product"
	"github.com/born-ml/riemann/internal/manifold/scaled"
	"github.com/born-ml/riemann/internal/manifold/sphere"
	"github.com/born-ml/riemann/internal/manifold/stiefel"
	"github.com/born-ml/riemann/tensor"
)

// Hyperboloid model of hyperbolic space.
type (
	LorentzConfig                                  = lorentz.Config
	Lorentz[T tensor.Float, B tensor.Backend]      = lorentz.Lorentz[T, B]
	LorentzExact[T tensor.Float, B tensor.Backend] = lorentz.LorentzExact[T, B]
)

// NewLorentz creates a hyperboloid that retracts by projection.
func NewLorentz[T tensor.Float, B tensor.Backend](backend B, cfg LorentzConfig) (*Lorentz[T, B], error) {
	return lorentz.New[T](backend, cfg)
}

// NewLorentzExact creates a hyperboloid that follows geodesics.
func NewLorentzExact[T tensor.Float, B tensor.Backend](backend B, cfg LorentzConfig) (*LorentzExact[T, B], error) {
	return lorentz.NewExact[T](backend, cfg)
}

// Poincaré ball model of hyperbolic space.
type (
	PoincareConfig                                      = poincare.Config
	PoincareBall[T tensor.Float, B tensor.Backend]      = poincare.Ball[T, B]
	PoincareBallExact[T tensor.Float, B tensor.Backend] = poincare.BallExact[T, B]
)

// NewPoincareBall creates a Poincaré ball that retracts by projection.
func NewPoincareBall[T tensor.Float, B tensor.Backend](backend B, cfg PoincareConfig) (*PoincareBall[T, B], error) {
	return poincare.New[T](backend, cfg)
}

// NewPoincareBallExact creates a Poincaré ball that follows geodesics.
func NewPoincareBallExact[T tensor.Float, B tensor.Backend](backend B, cfg PoincareConfig) (*PoincareBallExact[T, B], error) {
	return poincare.NewExact[T](backend, cfg)
}

// Sphere of radius 1/√K.
type (
	SphereConfig                                  = sphere.Config
	Sphere[T tensor.Float, B tensor.Backend]      = sphere.Sphere[T, B]
	SphereExact[T tensor.Float, B tensor.Backend] = sphere.SphereExact[T, B]
)

// NewSphere creates a sphere that retracts by projection.
func NewSphere[T tensor.Float, B tensor.Backend](backend B, cfg SphereConfig) (*Sphere[T, B], error) {
	return sphere.New[T](backend, cfg)
}

// NewSphereExact creates a sphere that follows great circles.
func NewSphereExact[T tensor.Float, B tensor.Backend](backend B, cfg SphereConfig) (*SphereExact[T, B], error) {
	return sphere.NewExact[T](backend, cfg)
}

// Stiefel manifold of n×p matrices with orthonormal columns.
type (
	StiefelConfig                                           = stiefel.Config
	EuclideanStiefel[T tensor.Float, B tensor.Backend]      = stiefel.EuclideanStiefel[T, B]
	EuclideanStiefelExact[T tensor.Float, B tensor.Backend] = stiefel.EuclideanStiefelExact[T, B]
	CanonicalStiefel[T tensor.Float, B tensor.Backend]      = stiefel.CanonicalStiefel[T, B]
)

// NewEuclideanStiefel creates a Stiefel manifold with the embedded metric
// and the QR retraction.
func NewEuclideanStiefel[T tensor.Float, B tensor.Backend](backend B, cfg StiefelConfig) (*EuclideanStiefel[T, B], error) {
	return stiefel.New[T](backend, cfg)
}

// NewEuclideanStiefelExact creates a Stiefel manifold with the embedded
// metric that retracts along geodesics.
func NewEuclideanStiefelExact[T tensor.Float, B tensor.Backend](backend B, cfg StiefelConfig) (*EuclideanStiefelExact[T, B], error) {
	return stiefel.NewExact[T](backend, cfg)
}

// NewCanonicalStiefel creates a Stiefel manifold with the canonical metric
// and the Cayley retraction.
func NewCanonicalStiefel[T tensor.Float, B tensor.Backend](backend B, cfg StiefelConfig) (*CanonicalStiefel[T, B], error) {
	return stiefel.NewCanonical[T](backend, cfg)
}

// Flat space.
type (
	EuclideanConfig                             = euclidean.Config
	Euclidean[T tensor.Float, B tensor.Backend] = euclidean.Euclidean[T, B]
)

// NewEuclidean creates a flat space whose points span cfg.Ndim axes.
func NewEuclidean[T tensor.Float, B tensor.Backend](backend B, cfg EuclideanConfig) (*Euclidean[T, B], error) {
	return euclidean.New[T](backend, cfg)
}

// Products and rescalings.
type (
	Factor[T tensor.Float, B tensor.Backend]  = product.Factor[T, B]
	Product[T tensor.Float, B tensor.Backend] = product.Product[T, B]
	ScaledConfig                              = scaled.Config
	Scaled[T tensor.Float, B tensor.Backend]  = scaled.Scaled[T, B]
)

// NewProduct creates the product of factors. Points are the flattened
// factor points concatenated along the last axis.
func NewProduct[T tensor.Float, B tensor.Backend](backend B, factors ...Factor[T, B]) (*Product[T, B], error) {
	return product.New(backend, factors...)
}

// NewScaled wraps base with its metric multiplied by cfg.Scale².
func NewScaled[T tensor.Float, B tensor.Backend](base Manifold[T, B], cfg ScaledConfig) (*Scaled[T, B], error) {
	return scaled.New(base, cfg)
}
