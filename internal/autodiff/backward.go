package autodiff

import (
	"fmt"

	"github.com/born-ml/riemann/internal/tensor"
)

// BackwardCapable is implemented by backends that own a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of t, seeding it with ones.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Ones[float64](tensor.Shape{2}, backend)
//	y := x.Mul(x).SumAll()
//	grads := autodiff.Backward(y, backend)
//	gx := grads[x.Raw()] // 2x
func Backward[T tensor.Float, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	seed := tensor.Ones[T](t.Shape(), backend)
	return tape.Backward(t.Raw(), seed.Raw(), backend)
}

// Grad returns the gradient of x from a Backward result as a tensor, or an
// error if x did not contribute to the output.
func Grad[T tensor.Float, B tensor.Backend](grads map[*tensor.RawTensor]*tensor.RawTensor, x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	g, ok := grads[x.Raw()]
	if !ok {
		return nil, fmt.Errorf("grad: tensor %v did not contribute to the output", x.Shape())
	}
	return tensor.New[T](g, x.Backend()), nil
}
