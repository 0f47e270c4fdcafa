package linalg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/riemann/internal/parallel"
	"github.com/born-ml/riemann/internal/tensor"
)

// Vector-Jacobian products of the batched factorisations. Each takes the
// forward inputs and the gradient of the output and returns input gradients
// with the dtype of the forward input.

// SolveVJP returns (gradA, gradB) for X = A⁻¹B.
func SolveVJP(a, x, grad *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor) {
	ab, xb, gb := load(a, "solve vjp"), load(x, "solve vjp"), load(grad, "solve vjp")
	gA := make([]float64, len(ab.vals))
	gB := make([]float64, len(xb.vals))
	parallel.For(ab.n, func(i int) {
		// gB = A⁻ᵀ G, gA = -gB Xᵀ
		var gbi mat.Dense
		solveOrPanic(&gbi, ab.at(i).T(), gb.at(i))
		var gai, neg mat.Dense
		gai.Mul(&gbi, xb.at(i).T())
		neg.Scale(-1, &gai)
		store(gA, i, &neg)
		store(gB, i, &gbi)
	}, parallel.MatrixConfig())
	return tensor.FromValues(gA, ab.shape, a.DType(), a.Device()),
		tensor.FromValues(gB, xb.shape, x.DType(), x.Device())
}

// ExpmVJP returns the gradient of expm at A: the Fréchet derivative of expm
// at Aᵀ in direction G, read off the upper-right block of
// expm([[Aᵀ, G], [0, Aᵀ]]).
func ExpmVJP(a, grad *tensor.RawTensor) *tensor.RawTensor {
	ab, gb := load(a, "expm vjp"), load(grad, "expm vjp")
	n := ab.r
	out := make([]float64, len(ab.vals))
	parallel.For(ab.n, func(i int) {
		block := mat.NewDense(2*n, 2*n, nil)
		at := ab.at(i).T()
		g := gb.at(i)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				block.Set(r, c, at.At(r, c))
				block.Set(n+r, n+c, at.At(r, c))
				block.Set(r, n+c, g.At(r, c))
			}
		}
		var e mat.Dense
		e.Exp(block)
		store(out, i, e.Slice(0, n, n, 2*n))
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, ab.shape, a.DType(), a.Device())
}

// QRVJP returns the gradient of the positive-diagonal Q factor at A:
//
//	gA = Q·tril(QᵀG - GᵀQ)·R⁻ᵀ + (G - Q·QᵀG)·R⁻ᵀ
func QRVJP(a, grad *tensor.RawTensor) *tensor.RawTensor {
	ab, gb := load(a, "qr vjp"), load(grad, "qr vjp")
	p := ab.c
	out := make([]float64, len(ab.vals))
	parallel.For(ab.n, func(i int) {
		q, r := qrPositive(ab.at(i))
		g := gb.at(i)

		var qtg mat.Dense
		qtg.Mul(q.T(), g)
		low := mat.NewDense(p, p, nil)
		for j := 0; j < p; j++ {
			for k := 0; k <= j; k++ {
				low.Set(j, k, qtg.At(j, k)-qtg.At(k, j))
			}
		}

		var inner, qqtg, rest, sum mat.Dense
		inner.Mul(q, low)
		qqtg.Mul(q, &qtg)
		rest.Sub(g, &qqtg)
		sum.Add(&inner, &rest)

		// sum·R⁻ᵀ = (R⁻¹·sumᵀ)ᵀ
		var sol mat.Dense
		solveOrPanic(&sol, r, sum.T())
		store(out, i, sol.T())
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, ab.shape, a.DType(), a.Device())
}

// PolarVJP returns the gradient of the polar factor Q = UVᵀ at A = UΣVᵀ:
//
//	gA = (I - UUᵀ)·G·VΣ⁻¹Vᵀ + U·H·Vᵀ,  H_ij = (K_ij - K_ji)/(σ_i + σ_j),  K = UᵀGV
func PolarVJP(a, grad *tensor.RawTensor) *tensor.RawTensor {
	ab, gb := load(a, "polar vjp"), load(grad, "polar vjp")
	out := make([]float64, len(ab.vals))
	parallel.For(ab.n, func(i int) {
		u, s, v := thinSVD(ab.at(i))
		g := gb.at(i)
		k := len(s)

		var utg, kmat mat.Dense
		utg.Mul(u.T(), g)
		kmat.Mul(&utg, v)
		h := mat.NewDense(k, k, nil)
		for r := 0; r < k; r++ {
			for c := 0; c < k; c++ {
				h.Set(r, c, (kmat.At(r, c)-kmat.At(c, r))/(s[r]+s[c]))
			}
		}

		// (G - U·UᵀG)·V·Σ⁻¹·Vᵀ
		var uutg, perp, gv mat.Dense
		uutg.Mul(u, &utg)
		perp.Sub(g, &uutg)
		gv.Mul(&perp, v)
		rows, _ := gv.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < k; c++ {
				gv.Set(r, c, gv.At(r, c)/s[c])
			}
		}
		var first mat.Dense
		first.Mul(&gv, v.T())

		var uh, second mat.Dense
		uh.Mul(u, h)
		second.Mul(&uh, v.T())

		var total mat.Dense
		total.Add(&first, &second)
		store(out, i, &total)
	}, parallel.MatrixConfig())
	return tensor.FromValues(out, ab.shape, a.DType(), a.Device())
}

func solveOrPanic(dst *mat.Dense, a, b mat.Matrix) {
	if err := dst.Solve(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			panic(fmt.Sprintf("linalg: %v", err))
		}
	}
}
