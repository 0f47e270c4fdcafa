package ops

import "github.com/born-ml/riemann/internal/tensor"

// ClampOp represents output = min(max(x, lo), hi).
//
// The gradient passes where lo ≤ x ≤ hi and is zero where the clamp is active.
type ClampOp struct {
	base
	lo, hi float64
}

// NewClampOp creates a new ClampOp.
func NewClampOp(x, output *tensor.RawTensor, lo, hi float64) *ClampOp {
	return &ClampOp{base: newBase(output, x), lo: lo, hi: hi}
}

// Backward masks the gradient outside [lo, hi].
func (op *ClampOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := mapValues(op.inputs[0], func(v float64) float64 {
		if v < op.lo || v > op.hi {
			return 0
		}
		return 1
	})
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}
