package manifold

import (
	"errors"
	"fmt"
)

// Sentinel errors. Operations wrap them with context.
var (
	ErrShape          = errors.New("manifold: shape mismatch")
	ErrNotOnManifold  = errors.New("manifold: point is not on the manifold")
	ErrNotOnTangent   = errors.New("manifold: vector is not in the tangent space")
	ErrNotImplemented = errors.New("manifold: operation not implemented")
	ErrInvalidParam   = errors.New("manifold: invalid parameter")
)

// ValidationError is returned by the Assert helpers when a check fails.
type ValidationError struct {
	Kind     error  // ErrNotOnManifold or ErrNotOnTangent
	Manifold string // Name of the manifold that ran the check
	Reason   string
	Residual float64 // Largest absolute deviation found
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s (residual %.3g)", e.Kind, e.Manifold, e.Reason, e.Residual)
}

// Unwrap returns the sentinel kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// NotImplemented returns ErrNotImplemented wrapped with the manifold and
// operation names.
func NotImplemented(manifold, op string) error {
	return fmt.Errorf("%s.%s: %w", manifold, op, ErrNotImplemented)
}
