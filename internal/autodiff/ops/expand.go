package ops

import "github.com/born-ml/riemann/internal/tensor"

// ExpandOp represents a broadcast of x to a larger shape.
type ExpandOp struct{ base }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{newBase(output, x)}
}

// Backward sums the gradient over the broadcast dimensions.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.inputs[0].Shape())}
}
