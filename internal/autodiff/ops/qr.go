package ops

import (
	"github.com/born-ml/riemann/internal/linalg"
	"github.com/born-ml/riemann/internal/tensor"
)

// QROp represents output = Q of the positive-diagonal QR decomposition of x.
type QROp struct{ base }

// NewQROp creates a new QROp.
func NewQROp(x, output *tensor.RawTensor) *QROp {
	return &QROp{newBase(output, x)}
}

// Backward differentiates the Q factor.
func (op *QROp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{linalg.QRVJP(op.inputs[0], outputGrad)}
}
