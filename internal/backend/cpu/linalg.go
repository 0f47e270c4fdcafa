package cpu

import (
	"github.com/born-ml/riemann/internal/linalg"
	"github.com/born-ml/riemann/internal/tensor"
)

// MatMul computes the batched matrix product.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return linalg.MatMul(a, b)
}

// Solve solves A X = B for every matrix pair in the batch.
func (cpu *CPUBackend) Solve(a, b *tensor.RawTensor) *tensor.RawTensor {
	return linalg.Solve(a, b)
}

// Expm computes batched matrix exponentials.
func (cpu *CPUBackend) Expm(x *tensor.RawTensor) *tensor.RawTensor {
	return linalg.Expm(x)
}

// QR returns the positive-diagonal orthonormal QR factor.
func (cpu *CPUBackend) QR(x *tensor.RawTensor) *tensor.RawTensor {
	return linalg.QR(x)
}

// Polar returns the orthonormal polar factor.
func (cpu *CPUBackend) Polar(x *tensor.RawTensor) *tensor.RawTensor {
	return linalg.Polar(x)
}
