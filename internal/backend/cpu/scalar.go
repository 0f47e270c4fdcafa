package cpu

import "github.com/born-ml/riemann/internal/tensor"

// AddScalar computes x + scalar.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("add scalar", x, func(v float64) float64 { return v + scalar })
}

// MulScalar computes x * scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("mul scalar", x, func(v float64) float64 { return v * scalar })
}
