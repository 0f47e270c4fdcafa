package manifold

import (
	"fmt"
	"sync"

	"github.com/born-ml/riemann/internal/tensor"
)

// Param is a shared handle to a manifold parameter such as a curvature or
// a scale.
//
// Reads take a snapshot of the current tensor. Set replaces the tensor and
// never writes into the old one, so snapshots taken by in-flight operations
// stay valid. With an autodiff backend, gradients of results flow to the
// snapshot tensor.
type Param[T tensor.Float, B tensor.Backend] struct {
	mu        sync.RWMutex
	name      string
	value     *tensor.Tensor[T, B]
	learnable bool
}

// NewParam creates a parameter handle.
func NewParam[T tensor.Float, B tensor.Backend](name string, value *tensor.Tensor[T, B], learnable bool) *Param[T, B] {
	return &Param[T, B]{name: name, value: value, learnable: learnable}
}

// ScalarParam creates a 0-d parameter holding v.
func ScalarParam[T tensor.Float, B tensor.Backend](name string, v float64, learnable bool, b B) *Param[T, B] {
	return NewParam(name, tensor.Scalar(T(v), b), learnable)
}

// Name returns the parameter name.
func (p *Param[T, B]) Name() string {
	return p.name
}

// Value returns the current tensor.
func (p *Param[T, B]) Value() *tensor.Tensor[T, B] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set replaces the current tensor.
func (p *Param[T, B]) Set(v *tensor.Tensor[T, B]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
}

// Learnable reports whether optimisers should update the parameter.
func (p *Param[T, B]) Learnable() bool {
	return p.learnable
}

// Clone returns an independent handle holding a copy of the current tensor.
func (p *Param[T, B]) Clone() *Param[T, B] {
	return NewParam(p.name, p.Value().Clone(), p.learnable)
}

// Float returns the first element, for logging and diagnostics.
func (p *Param[T, B]) Float() float64 {
	return float64(p.Value().Data()[0])
}

// RequirePositive returns ErrInvalidParam unless every element is > 0.
func (p *Param[T, B]) RequirePositive() error {
	for _, v := range p.Value().Data() {
		if !(v > 0) {
			return fmt.Errorf("%s = %v: %w: must be positive", p.name, v, ErrInvalidParam)
		}
	}
	return nil
}
