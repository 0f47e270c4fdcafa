package cpu

import (
	"fmt"

	"github.com/born-ml/riemann/internal/tensor"
)

// SumDim sums x along dim.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	d, err := x.Shape().Axis(dim)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}
	return tensor.SumDimRaw(x, d, keepDim)
}
