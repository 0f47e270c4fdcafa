package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/riemann/internal/tensor"
)

// Func identifies an element-wise unary function.
type Func int

// Differentiable unary functions.
const (
	Neg Func = iota
	Exp
	Log
	Sqrt
	Abs
	Sign
	Cos
	Sin
	Cosh
	Sinh
	Tanh
	Acos
	Acosh
	Atanh
	Asinh
)

var funcNames = [...]string{"neg", "exp", "log", "sqrt", "abs", "sign", "cos", "sin",
	"cosh", "sinh", "tanh", "acos", "acosh", "atanh", "asinh"}

// String returns the function name.
func (f Func) String() string {
	if int(f) < len(funcNames) {
		return funcNames[f]
	}
	return fmt.Sprintf("Func(%d)", int(f))
}

// derivatives holds f'(x) for every Func. Sign is piecewise constant.
var derivatives = map[Func]func(float64) float64{
	Neg:   func(float64) float64 { return -1 },
	Exp:   math.Exp,
	Log:   func(x float64) float64 { return 1 / x },
	Sqrt:  func(x float64) float64 { return 0.5 / math.Sqrt(x) },
	Abs:   sign,
	Sign:  func(float64) float64 { return 0 },
	Cos:   func(x float64) float64 { return -math.Sin(x) },
	Sin:   math.Cos,
	Cosh:  math.Sinh,
	Sinh:  math.Cosh,
	Tanh:  func(x float64) float64 { t := math.Tanh(x); return 1 - t*t },
	Acos:  func(x float64) float64 { return -1 / math.Sqrt(1-x*x) },
	Acosh: func(x float64) float64 { return 1 / math.Sqrt(x*x-1) },
	Atanh: func(x float64) float64 { return 1 / (1 - x*x) },
	Asinh: func(x float64) float64 { return 1 / math.Sqrt(x*x+1) },
}

// UnaryOp represents output = f(x) for an element-wise f.
//
// Backward: grad_x = grad * f'(x).
type UnaryOp struct {
	base
	fn Func
}

// NewUnaryOp creates a new UnaryOp.
func NewUnaryOp(fn Func, x, output *tensor.RawTensor) *UnaryOp {
	return &UnaryOp{base: newBase(output, x), fn: fn}
}

// Func returns the recorded function.
func (op *UnaryOp) Func() Func {
	return op.fn
}

// Backward computes grad * f'(x).
func (op *UnaryOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.fn {
	case Sign:
		return []*tensor.RawTensor{nil}
	case Neg:
		return []*tensor.RawTensor{backend.Neg(outputGrad)}
	}
	local := mapValues(op.inputs[0], derivatives[op.fn])
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}
