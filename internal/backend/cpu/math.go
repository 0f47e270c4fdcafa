package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/riemann/internal/tensor"
)

// Element-wise math. Float32 inputs are evaluated in float64 and rounded
// once on store. Out-of-domain inputs produce NaN, as in package math.

func (cpu *CPUBackend) unary(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	switch x.DType() {
	case tensor.Float32:
		unaryKernel(result.AsFloat32(), x.AsFloat32(), f, cpu.par)
	case tensor.Float64:
		unaryKernel(result.AsFloat64(), x.AsFloat64(), f, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", name, x.DType()))
	}
	return result
}

// Neg computes -x.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("neg", x, func(v float64) float64 { return -v })
}

// Exp computes e^x.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, math.Exp)
}

// Log computes ln(x).
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("log", x, math.Log)
}

// Sqrt computes √x.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sqrt", x, math.Sqrt)
}

// Abs computes |x|.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("abs", x, math.Abs)
}

// Sign computes the sign of x (0 for 0).
func (cpu *CPUBackend) Sign(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sign", x, func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		default:
			return 0
		}
	})
}

// Cos computes cos(x).
func (cpu *CPUBackend) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("cos", x, math.Cos)
}

// Sin computes sin(x).
func (cpu *CPUBackend) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sin", x, math.Sin)
}

// Cosh computes cosh(x).
func (cpu *CPUBackend) Cosh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("cosh", x, math.Cosh)
}

// Sinh computes sinh(x).
func (cpu *CPUBackend) Sinh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sinh", x, math.Sinh)
}

// Tanh computes tanh(x).
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, math.Tanh)
}

// Acos computes arccos(x).
func (cpu *CPUBackend) Acos(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("acos", x, math.Acos)
}

// Acosh computes arcosh(x).
func (cpu *CPUBackend) Acosh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("acosh", x, math.Acosh)
}

// Atanh computes artanh(x).
func (cpu *CPUBackend) Atanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("atanh", x, math.Atanh)
}

// Asinh computes arsinh(x).
func (cpu *CPUBackend) Asinh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("asinh", x, math.Asinh)
}

// Clamp limits x to [lo, hi].
func (cpu *CPUBackend) Clamp(x *tensor.RawTensor, lo, hi float64) *tensor.RawTensor {
	if lo > hi {
		panic(fmt.Sprintf("clamp: empty range [%g, %g]", lo, hi))
	}
	return cpu.unary("clamp", x, func(v float64) float64 {
		return math.Min(math.Max(v, lo), hi)
	})
}
