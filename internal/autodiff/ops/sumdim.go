package ops

import "github.com/born-ml/riemann/internal/tensor"

// SumDimOp represents output = sum(x, dim).
//
// Backward: the gradient is broadcast back over the reduced dimension.
type SumDimOp struct {
	base
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{base: newBase(output, x), dim: dim, keepDim: keepDim}
}

// Backward broadcasts the output gradient to the input shape.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.inputs[0].Shape()
	grad := outputGrad
	if !op.keepDim {
		kept := inShape.Clone()
		kept[op.dim] = 1
		grad = backend.Reshape(grad, kept)
	}
	return []*tensor.RawTensor{backend.Expand(grad, inShape)}
}
