package cpu

import (
	"fmt"

	"github.com/born-ml/riemann/internal/tensor"
)

// Reshape returns x viewed with a new shape of the same size.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, err := x.WithShape(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return out
}

// Expand broadcasts x to shape.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return tensor.ExpandRaw(x, shape)
}

// Narrow slices [start, start+length) along dim.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	return tensor.NarrowRaw(x, dim, start, length)
}

// Cat concatenates xs along dim.
func (cpu *CPUBackend) Cat(xs []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return tensor.ConcatRaw(xs, dim)
}

// MatTranspose swaps the last two axes.
func (cpu *CPUBackend) MatTranspose(x *tensor.RawTensor) *tensor.RawTensor {
	return tensor.TransposeLast2Raw(x)
}
