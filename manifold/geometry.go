// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package manifold

import (
	"github.com/born-ml/riemann/internal/config"
	"github.com/born-ml/riemann/internal/diagnostics"
	"github.com/born-ml/riemann/tensor"
)

// Geometry describes a manifold in YAML: one factor or a product, with an
// optional metric scale.
type (
	Geometry       = config.Geometry
	GeometryFactor = config.Factor
)

// ErrGeometry is wrapped by validation errors of geometry descriptions.
var ErrGeometry = config.ErrConfig

// LoadGeometry reads and validates a geometry file.
func LoadGeometry(path string) (*Geometry, error) {
	return config.Load(path)
}

// ParseGeometry decodes and validates a YAML geometry.
func ParseGeometry(data []byte) (*Geometry, error) {
	return config.Parse(data)
}

// Build constructs the manifold g describes.
func Build[T tensor.Float, B tensor.Backend](g *Geometry, backend B) (Manifold[T, B], error) {
	return config.Build[T](g, backend)
}

// Diagnostics types.
type (
	Report            = diagnostics.Report
	Result            = diagnostics.Result
	Property          = diagnostics.Property
	DiagnosticOptions = diagnostics.Options
)

// Diagnose checks the defining identities of m on random points of shape
// point (one point, without batch axes).
func Diagnose[T tensor.Float, B tensor.Backend](m Manifold[T, B], point tensor.Shape, opts DiagnosticOptions) (Report, error) {
	return diagnostics.Run(m, point, opts)
}
