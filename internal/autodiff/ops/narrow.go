package ops

import "github.com/born-ml/riemann/internal/tensor"

// NarrowOp represents output = x[..., start:start+length, ...] along dim.
type NarrowOp struct {
	base
	dim, start int
}

// NewNarrowOp creates a new NarrowOp.
func NewNarrowOp(x, output *tensor.RawTensor, dim, start int) *NarrowOp {
	return &NarrowOp{base: newBase(output, x), dim: dim, start: start}
}

// Backward scatters the gradient into a zero tensor of the input shape.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{tensor.ScatterNarrowRaw(outputGrad, op.inputs[0].Shape(), op.dim, op.start)}
}
