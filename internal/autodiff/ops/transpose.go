package ops

import "github.com/born-ml/riemann/internal/tensor"

// TransposeOp represents a swap of the last two axes.
type TransposeOp struct{ base }

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(x, output *tensor.RawTensor) *TransposeOp {
	return &TransposeOp{newBase(output, x)}
}

// Backward transposes the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MatTranspose(outputGrad)}
}
