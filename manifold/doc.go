// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package manifold provides Riemannian manifolds for optimisation on
// curved spaces: hyperbolic space as the hyperboloid (Lorentz) and the
// Poincaré ball, the sphere, the Stiefel manifold of orthonormal frames,
// flat Euclidean space, and products and rescalings of those.
//
// # Overview
//
// Every manifold implements Manifold: projections onto the manifold and its
// tangent spaces, the Riemannian gradient, retraction, exponential and
// logarithmic maps, transport, the metric and the distance. Operations work
// on tensors whose trailing Ndim axes form one point and whose leading axes
// are a batch; operands broadcast against each other.
//
// Geometries come in two flavours. The plain constructors retract by
// projection, which is cheaper; the Exact constructors follow geodesics.
//
// # Basic Usage
//
//	backend := cpu.New()
//	hyp, _ := manifold.NewLorentzExact[float64](backend, manifold.LorentzConfig{K: 1})
//	x, _ := hyp.RandomNormal(tensor.Shape{32, 5}, manifold.SampleOptions[float64, *cpu.Backend]{})
//
//	// One Riemannian gradient step.
//	rgrad, _ := hyp.Egrad2rgrad(x, egrad)
//	x, _ = hyp.Retr(x, rgrad.MulScalar(-0.1))
//
// # Curvature
//
// Curvatures and scales are Param handles. Mark them Learnable and run on an
// autodiff backend to differentiate through them.
//
// # Diagnostics
//
// Diagnose samples points and tangent vectors and checks the identities
// every geometry must satisfy. LoadGeometry and Build construct manifolds
// from YAML descriptions; the riemann command runs Diagnose on them.
package manifold
