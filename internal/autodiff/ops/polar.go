package ops

import (
	"github.com/born-ml/riemann/internal/linalg"
	"github.com/born-ml/riemann/internal/tensor"
)

// PolarOp represents output = the orthonormal polar factor of x.
type PolarOp struct{ base }

// NewPolarOp creates a new PolarOp.
func NewPolarOp(x, output *tensor.RawTensor) *PolarOp {
	return &PolarOp{newBase(output, x)}
}

// Backward differentiates the polar factor.
func (op *PolarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{linalg.PolarVJP(op.inputs[0], outputGrad)}
}
