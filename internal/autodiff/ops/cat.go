package ops

import "github.com/born-ml/riemann/internal/tensor"

// CatOp represents the concatenation of its inputs along dim.
type CatOp struct {
	base
	dim int
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{base: newBase(output, inputs...), dim: dim}
}

// Backward splits the gradient back into the input pieces.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		length := in.Shape()[op.dim]
		grads[i] = backend.Narrow(outputGrad, op.dim, offset, length)
		offset += length
	}
	return grads
}
