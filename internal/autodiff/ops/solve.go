package ops

import (
	"github.com/born-ml/riemann/internal/linalg"
	"github.com/born-ml/riemann/internal/tensor"
)

// SolveOp represents output = a⁻¹ b.
type SolveOp struct{ base }

// NewSolveOp creates a new SolveOp.
func NewSolveOp(a, b, output *tensor.RawTensor) *SolveOp {
	return &SolveOp{newBase(output, a, b)}
}

// Backward returns grad_b = a⁻ᵀ grad and grad_a = -grad_b outputᵀ.
func (op *SolveOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	gradA, gradB := linalg.SolveVJP(op.inputs[0], op.output, outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}
