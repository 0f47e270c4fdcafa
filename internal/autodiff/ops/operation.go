// Package ops defines the differentiable operations recorded by the
// autodiff tape.
//
// Each operation keeps its inputs and output from the forward pass and
// computes input gradients during the backward pass. Gradients of inputs
// that were broadcast in the forward pass are summed back to the input
// shape.
package ops

import "github.com/born-ml/riemann/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// The slice is aligned with Inputs; a nil entry means no gradient flows
	// to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// base carries the bookkeeping shared by every operation.
type base struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

func newBase(output *tensor.RawTensor, inputs ...*tensor.RawTensor) base {
	return base{inputs: inputs, output: output}
}

// Inputs returns the input tensors.
func (b base) Inputs() []*tensor.RawTensor {
	return b.inputs
}

// Output returns the output tensor.
func (b base) Output() *tensor.RawTensor {
	return b.output
}
