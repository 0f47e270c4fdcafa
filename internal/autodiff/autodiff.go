// Package autodiff implements reverse-mode automatic differentiation using the
// decorator pattern.
//
// AutodiffBackend wraps any tensor.Backend and records every operation on a
// GradientTape while recording is enabled:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float64{2}, tensor.Shape{1}, backend)
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, backend) // grads[x.Raw()] == 4
package autodiff

import (
	"github.com/born-ml/riemann/internal/autodiff/ops"
	"github.com/born-ml/riemann/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

func (b *AutodiffBackend[B]) record(op ops.Operation) {
	b.tape.Record(op)
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	if b.tape.IsRecording() {
		b.record(ops.NewAddOp(x, y, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	if b.tape.IsRecording() {
		b.record(ops.NewSubOp(x, y, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	if b.tape.IsRecording() {
		b.record(ops.NewMulOp(x, y, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(x, y)
	if b.tape.IsRecording() {
		b.record(ops.NewDivOp(x, y, result))
	}
	return result
}

// AddScalar adds a constant and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	if b.tape.IsRecording() {
		b.record(ops.NewAddScalarOp(x, result))
	}
	return result
}

// MulScalar multiplies by a constant and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	if b.tape.IsRecording() {
		b.record(ops.NewMulScalarOp(x, result, scalar))
	}
	return result
}

func (b *AutodiffBackend[B]) unary(fn ops.Func, x *tensor.RawTensor, forward func(*tensor.RawTensor) *tensor.RawTensor) *tensor.RawTensor {
	result := forward(x)
	if b.tape.IsRecording() {
		b.record(ops.NewUnaryOp(fn, x, result))
	}
	return result
}

// Neg records -x.
func (b *AutodiffBackend[B]) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Neg, x, b.inner.Neg)
}

// Exp records e^x.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Exp, x, b.inner.Exp)
}

// Log records ln(x).
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Log, x, b.inner.Log)
}

// Sqrt records √x.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Sqrt, x, b.inner.Sqrt)
}

// Abs records |x|.
func (b *AutodiffBackend[B]) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Abs, x, b.inner.Abs)
}

// Sign records sign(x), which has no gradient.
func (b *AutodiffBackend[B]) Sign(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Sign, x, b.inner.Sign)
}

// Cos records cos(x).
func (b *AutodiffBackend[B]) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Cos, x, b.inner.Cos)
}

// Sin records sin(x).
func (b *AutodiffBackend[B]) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Sin, x, b.inner.Sin)
}

// Cosh records cosh(x).
func (b *AutodiffBackend[B]) Cosh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Cosh, x, b.inner.Cosh)
}

// Sinh records sinh(x).
func (b *AutodiffBackend[B]) Sinh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Sinh, x, b.inner.Sinh)
}

// Tanh records tanh(x).
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Tanh, x, b.inner.Tanh)
}

// Acos records arccos(x).
func (b *AutodiffBackend[B]) Acos(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Acos, x, b.inner.Acos)
}

// Acosh records arcosh(x).
func (b *AutodiffBackend[B]) Acosh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Acosh, x, b.inner.Acosh)
}

// Atanh records artanh(x).
func (b *AutodiffBackend[B]) Atanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Atanh, x, b.inner.Atanh)
}

// Asinh records arsinh(x).
func (b *AutodiffBackend[B]) Asinh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(ops.Asinh, x, b.inner.Asinh)
}

// Clamp records min(max(x, lo), hi).
func (b *AutodiffBackend[B]) Clamp(x *tensor.RawTensor, lo, hi float64) *tensor.RawTensor {
	result := b.inner.Clamp(x, lo, hi)
	if b.tape.IsRecording() {
		b.record(ops.NewClampOp(x, result, lo, hi))
	}
	return result
}

// SumDim records a sum along dim.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.SumDim(x, dim, keepDim)
	if b.tape.IsRecording() {
		d, _ := x.Shape().Axis(dim)
		b.record(ops.NewSumDimOp(x, result, d, keepDim))
	}
	return result
}

// Reshape records a reshape.
func (b *AutodiffBackend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(x, shape)
	if b.tape.IsRecording() {
		b.record(ops.NewReshapeOp(x, result))
	}
	return result
}

// Expand records a broadcast.
func (b *AutodiffBackend[B]) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Expand(x, shape)
	if b.tape.IsRecording() {
		b.record(ops.NewExpandOp(x, result))
	}
	return result
}

// Narrow records a slice along dim.
func (b *AutodiffBackend[B]) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	result := b.inner.Narrow(x, dim, start, length)
	if b.tape.IsRecording() {
		b.record(ops.NewNarrowOp(x, result, dim, start))
	}
	return result
}

// Cat records a concatenation.
func (b *AutodiffBackend[B]) Cat(xs []*tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Cat(xs, dim)
	if b.tape.IsRecording() {
		b.record(ops.NewCatOp(append([]*tensor.RawTensor(nil), xs...), result, dim))
	}
	return result
}

// MatMul records a batched matrix product.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(x, y)
	if b.tape.IsRecording() {
		b.record(ops.NewMatMulOp(x, y, result))
	}
	return result
}

// MatTranspose records a transpose of the last two axes.
func (b *AutodiffBackend[B]) MatTranspose(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatTranspose(x)
	if b.tape.IsRecording() {
		b.record(ops.NewTransposeOp(x, result))
	}
	return result
}

// Solve records a batched linear solve.
func (b *AutodiffBackend[B]) Solve(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Solve(x, y)
	if b.tape.IsRecording() {
		b.record(ops.NewSolveOp(x, y, result))
	}
	return result
}

// Expm records a batched matrix exponential.
func (b *AutodiffBackend[B]) Expm(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Expm(x)
	if b.tape.IsRecording() {
		b.record(ops.NewExpmOp(x, result))
	}
	return result
}

// QR records the orthonormal QR factor.
func (b *AutodiffBackend[B]) QR(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.QR(x)
	if b.tape.IsRecording() {
		b.record(ops.NewQROp(x, result))
	}
	return result
}

// Polar records the orthonormal polar factor.
func (b *AutodiffBackend[B]) Polar(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Polar(x)
	if b.tape.IsRecording() {
		b.record(ops.NewPolarOp(x, result))
	}
	return result
}
