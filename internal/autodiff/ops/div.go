package ops

import "github.com/born-ml/riemann/internal/tensor"

// DivOp represents output = a / b.
//
// Backward: grad_a = grad / b, grad_b = -grad * output / b.
type DivOp struct{ base }

// NewDivOp creates a new DivOp.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{newBase(output, a, b)}
}

// Backward computes input gradients for division.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Div(outputGrad, b)
	gradB := backend.Neg(backend.Mul(gradA, op.output))
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, a.Shape()),
		reduceBroadcast(gradB, b.Shape()),
	}
}
