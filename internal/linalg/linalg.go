// Package linalg runs dense linear algebra over batches of matrices stored
// in RawTensors, one gonum factorisation per matrix in the batch.
package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/riemann/internal/parallel"
	"github.com/born-ml/riemann/internal/tensor"
)

// batch describes a stack of r×c matrices in row-major float64 storage.
type batch struct {
	vals  []float64
	n     int
	r, c  int
	shape tensor.Shape
}

func load(x *tensor.RawTensor, op string) batch {
	shape := x.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("%s: need at least 2 dimensions, got %v", op, shape))
	}
	r, c := shape[len(shape)-2], shape[len(shape)-1]
	return batch{vals: x.Values(), n: x.NumElements() / (r * c), r: r, c: c, shape: shape}
}

func (b batch) at(i int) *mat.Dense {
	size := b.r * b.c
	return mat.NewDense(b.r, b.c, b.vals[i*size:(i+1)*size])
}

// store copies m into slot i of a flat output holding r×c matrices.
func store(dst []float64, i int, m mat.Matrix) {
	r, c := m.Dims()
	base := i * r * c
	for j := 0; j < r; j++ {
		for k := 0; k < c; k++ {
			dst[base+j*c+k] = m.At(j, k)
		}
	}
}

func sameBatch(op string, a, b batch) {
	if a.n != b.n || !a.shape.Batch(2).Equal(b.shape.Batch(2)) {
		panic(fmt.Sprintf("%s: batch shapes differ: %v vs %v", op, a.shape, b.shape))
	}
}

// MatMul computes a @ b over the last two axes.
func MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	ab, bb := load(a, "matmul"), load(b, "matmul")
	sameBatch("matmul", ab, bb)
	if ab.c != bb.r {
		panic(fmt.Sprintf("matmul: inner dimensions differ: %v @ %v", ab.shape, bb.shape))
	}
	out := make([]float64, ab.n*ab.r*bb.c)
	parallel.For(ab.n, func(i int) {
		var m mat.Dense
		m.Mul(ab.at(i), bb.at(i))
		store(out, i, &m)
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, ab.shape.Batch(2).Concat(ab.r, bb.c), a.DType(), a.Device())
}

// Solve returns X with A X = B for square A.
func Solve(a, b *tensor.RawTensor) *tensor.RawTensor {
	ab, bb := load(a, "solve"), load(b, "solve")
	sameBatch("solve", ab, bb)
	if ab.r != ab.c || ab.r != bb.r {
		panic(fmt.Sprintf("solve: need square A matching B rows, got %v and %v", ab.shape, bb.shape))
	}
	out := make([]float64, bb.n*bb.r*bb.c)
	parallel.For(ab.n, func(i int) {
		var x mat.Dense
		solveOrPanic(&x, ab.at(i), bb.at(i))
		store(out, i, &x)
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, bb.shape, b.DType(), b.Device())
}

// Expm returns the matrix exponential of every square matrix.
func Expm(a *tensor.RawTensor) *tensor.RawTensor {
	ab := load(a, "expm")
	if ab.r != ab.c {
		panic(fmt.Sprintf("expm: need square matrices, got %v", ab.shape))
	}
	out := make([]float64, len(ab.vals))
	parallel.For(ab.n, func(i int) {
		var e mat.Dense
		e.Exp(ab.at(i))
		store(out, i, &e)
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, ab.shape, a.DType(), a.Device())
}

// QR returns the n×p orthonormal factor of the reduced QR decomposition of
// every n×p matrix (n ≥ p), with column signs chosen so diag(R) ≥ 0.
func QR(a *tensor.RawTensor) *tensor.RawTensor {
	ab := load(a, "qr")
	if ab.r < ab.c {
		panic(fmt.Sprintf("qr: need rows >= cols, got %v", ab.shape))
	}
	out := make([]float64, len(ab.vals))
	parallel.For(ab.n, func(i int) {
		q, _ := qrPositive(ab.at(i))
		store(out, i, q)
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, ab.shape, a.DType(), a.Device())
}

// qrPositive returns the reduced factors Q (n×p) and R (p×p) with diag(R) ≥ 0.
func qrPositive(a *mat.Dense) (*mat.Dense, *mat.Dense) {
	n, p := a.Dims()
	var f mat.QR
	f.Factorize(a)
	var qFull, rFull mat.Dense
	f.QTo(&qFull)
	f.RTo(&rFull)

	q := mat.DenseCopyOf(qFull.Slice(0, n, 0, p))
	r := mat.DenseCopyOf(rFull.Slice(0, p, 0, p))
	for j := 0; j < p; j++ {
		if r.At(j, j) >= 0 {
			continue
		}
		for i := 0; i < n; i++ {
			q.Set(i, j, -q.At(i, j))
		}
		for k := 0; k < p; k++ {
			r.Set(j, k, -r.At(j, k))
		}
	}
	return q, r
}

// Polar returns the orthonormal polar factor U Vᵀ of every n×p matrix.
func Polar(a *tensor.RawTensor) *tensor.RawTensor {
	ab := load(a, "polar")
	out := make([]float64, len(ab.vals))
	parallel.For(ab.n, func(i int) {
		u, _, v := thinSVD(ab.at(i))
		var q mat.Dense
		q.Mul(u, v.T())
		store(out, i, &q)
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, ab.shape, a.DType(), a.Device())
}

func thinSVD(a *mat.Dense) (u *mat.Dense, s []float64, v *mat.Dense) {
	var f mat.SVD
	if !f.Factorize(a, mat.SVDThin) {
		panic("polar: svd did not converge")
	}
	u, v = new(mat.Dense), new(mat.Dense)
	f.UTo(u)
	f.VTo(v)
	return u, f.Values(nil), v
}
