package tensor

import (
	"fmt"
	"strings"
)

// Tensor is a generic tensor with element type T and backend B.
//
// Tensors are immutable: every operation allocates its result through the
// backend, which lets an autodiff backend record the computation.
//
//	backend := cpu.New()
//	x := tensor.Ones[float64](Shape{3, 4}, backend)
//	y := x.Mul(x).Sum(-1, false)
type Tensor[T Float, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New creates a Tensor from a RawTensor and backend.
func New[T Float, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	if raw.DType() != DTypeOf[T]() {
		panic(fmt.Sprintf("tensor: raw dtype %s does not match %s", raw.DType(), DTypeOf[T]()))
	}
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice[T Float, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, DTypeOf[T](), b.Device())
	if err != nil {
		return nil, err
	}
	copy(Data[T](raw), data)
	return New[T, B](raw, b), nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// Rank returns the number of dimensions.
func (t *Tensor[T, B]) Rank() int {
	return len(t.raw.Shape())
}

// Dim returns the size of dimension dim (negative counts from the end).
func (t *Tensor[T, B]) Dim(dim int) int {
	return t.Shape()[t.axis(dim)]
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns the elements without copying. Callers must not modify it.
func (t *Tensor[T, B]) Data() []T {
	return Data[T](t.raw)
}

// Item returns the value of a single-element tensor.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("item: tensor of shape %v has %d elements", t.Shape(), t.NumElements()))
	}
	return t.Data()[0]
}

// At returns the element at the given multi-index.
func (t *Tensor[T, B]) At(idx ...int) T {
	shape := t.Shape()
	if len(idx) != len(shape) {
		panic(fmt.Sprintf("at: %d indices for shape %v", len(idx), shape))
	}
	flat := 0
	for i, s := range t.raw.Strides() {
		if idx[i] < 0 || idx[i] >= shape[i] {
			panic(fmt.Sprintf("at: index %v out of range for shape %v", idx, shape))
		}
		flat += idx[i] * s
	}
	return t.Data()[flat]
}

// Clone returns a deep copy that is detached from any recorded history.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return New[T, B](t.raw.Clone(), t.backend)
}

// String returns a compact description of the tensor.
func (t *Tensor[T, B]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor%v(%s)", []int(t.Shape()), t.DType())
	if t.NumElements() <= 8 {
		fmt.Fprintf(&sb, "%v", t.Data())
	}
	return sb.String()
}

func (t *Tensor[T, B]) axis(dim int) int {
	d, err := t.Shape().Axis(dim)
	if err != nil {
		panic(err)
	}
	return d
}

func (t *Tensor[T, B]) wrap(raw *RawTensor) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: t.backend}
}
