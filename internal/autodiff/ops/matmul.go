package ops

import "github.com/born-ml/riemann/internal/tensor"

// MatMulOp represents output = a @ b over the last two axes.
//
// Backward: grad_a = grad @ bᵀ, grad_b = aᵀ @ grad.
type MatMulOp struct{ base }

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{newBase(output, a, b)}
}

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.MatMul(outputGrad, backend.MatTranspose(b)),
		backend.MatMul(backend.MatTranspose(a), outputGrad),
	}
}
