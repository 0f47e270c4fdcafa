package ops

import (
	"github.com/born-ml/riemann/internal/linalg"
	"github.com/born-ml/riemann/internal/tensor"
)

// ExpmOp represents output = expm(x).
type ExpmOp struct{ base }

// NewExpmOp creates a new ExpmOp.
func NewExpmOp(x, output *tensor.RawTensor) *ExpmOp {
	return &ExpmOp{newBase(output, x)}
}

// Backward applies the adjoint Fréchet derivative of expm.
func (op *ExpmOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{linalg.ExpmVJP(op.inputs[0], outputGrad)}
}
