package manifold

import (
	"fmt"

	"github.com/born-ml/riemann/internal/tensor"
)

// Base carries the identity and shape rules common to every manifold.
// Concrete manifolds embed it.
type Base[T tensor.Float, B tensor.Backend] struct {
	name    string
	ndim    int
	backend B
	// point validates the trailing ndim axes of a point shape.
	point func(tensor.Shape) error
}

// NewBase creates a Base. point may be nil when any trailing extent is valid.
func NewBase[T tensor.Float, B tensor.Backend](name string, ndim int, backend B, point func(tensor.Shape) error) Base[T, B] {
	return Base[T, B]{name: name, ndim: ndim, backend: backend, point: point}
}

// Width returns a point validator for manifolds with a single point axis.
// The extent must be at least minimum and, when dim is non-zero, equal to
// dim. A dim that can never be satisfied is an ErrInvalidParam.
func Width(minimum, dim int) (func(tensor.Shape) error, error) {
	if dim < 0 || (dim > 0 && dim < minimum) {
		return nil, fmt.Errorf("dim = %d: %w: need 0 or at least %d", dim, ErrInvalidParam, minimum)
	}
	return func(s tensor.Shape) error {
		switch {
		case dim > 0 && s[0] != dim:
			return fmt.Errorf("need %d coordinates, got %d", dim, s[0])
		case s[0] < minimum:
			return fmt.Errorf("need at least %d coordinates, got %d", minimum, s[0])
		}
		return nil
	}, nil
}

// Name returns the manifold name.
func (b Base[T, B]) Name() string { return b.name }

// Ndim returns the number of trailing point axes.
func (b Base[T, B]) Ndim() int { return b.ndim }

// Backend returns the backend.
func (b Base[T, B]) Backend() B { return b.backend }

// CheckShape reports whether shape can hold points.
func (b Base[T, B]) CheckShape(shape tensor.Shape) error {
	if len(shape) < b.ndim {
		return fmt.Errorf("%s: %w: need at least %d axes, got %v", b.name, ErrShape, b.ndim, shape)
	}
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("%s: %w: %w", b.name, ErrShape, err)
	}
	if b.point != nil {
		if err := b.point(shape[len(shape)-b.ndim:]); err != nil {
			return fmt.Errorf("%s: %w: %w", b.name, ErrShape, err)
		}
	}
	return nil
}

// Broadcast validates the operands of op: each must be a valid point shape,
// all must share the trailing point axes, and their batch prefixes must
// broadcast. It returns the broadcast shape.
func (b Base[T, B]) Broadcast(op string, ts ...*tensor.Tensor[T, B]) (tensor.Shape, error) {
	var out tensor.Shape
	var tail tensor.Shape
	for _, t := range ts {
		if t == nil {
			return nil, fmt.Errorf("%s.%s: %w: nil tensor", b.name, op, ErrShape)
		}
		shape := t.Shape()
		if err := b.CheckShape(shape); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tt := shape[len(shape)-b.ndim:]
		if tail == nil {
			tail, out = tt, shape
			continue
		}
		if !tt.Equal(tail) {
			return nil, fmt.Errorf("%s.%s: %w: point axes %v vs %v", b.name, op, ErrShape, tail, tt)
		}
		s, _, err := tensor.BroadcastShapes(out, shape)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w: %w", b.name, op, ErrShape, err)
		}
		out = s
	}
	return out, nil
}

// BroadcastBatch validates that t (a per-point scalar, e.g. a curvature or a
// time) broadcasts against the batch of a point shape extended with
// keepDim-style singleton axes. t may add leading batch axes.
func (b Base[T, B]) BroadcastBatch(op string, point tensor.Shape, t *tensor.Tensor[T, B]) error {
	if t == nil {
		return nil
	}
	target := point.Batch(b.ndim)
	for i := 0; i < b.ndim; i++ {
		target = target.Concat(1)
	}
	if _, _, err := tensor.BroadcastShapes(target, t.Shape()); err != nil {
		return fmt.Errorf("%s.%s: %w: %w", b.name, op, ErrShape, err)
	}
	return nil
}

// SqueezeKeep drops the trailing singleton axes a keepDim reduction left,
// unless keepDim is set.
func SqueezeKeep[T tensor.Float, B tensor.Backend](t *tensor.Tensor[T, B], ndim int, keepDim bool) *tensor.Tensor[T, B] {
	if keepDim {
		return t
	}
	for i := 0; i < ndim; i++ {
		t = t.Squeeze(-1)
	}
	return t
}

// ConcatLast concatenates ts along the last axis after broadcasting their
// batch prefixes.
func ConcatLast[T tensor.Float, B tensor.Backend](ts ...*tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	batch := tensor.Shape{}
	for _, t := range ts {
		s, _, err := tensor.BroadcastShapes(batch, t.Shape().Batch(1))
		if err != nil {
			panic(fmt.Sprintf("concat: %v", err))
		}
		batch = s
	}
	out := make([]*tensor.Tensor[T, B], len(ts))
	for i, t := range ts {
		out[i] = t.Expand(batch.Concat(t.Dim(-1)))
	}
	return tensor.Cat(out, -1)
}
