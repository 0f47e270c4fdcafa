package autodiff

import (
	"sync"

	"github.com/born-ml/riemann/internal/autodiff/ops"
	"github.com/born-ml/riemann/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic
// differentiation.
//
// The tape is safe for concurrent use: operations recorded from several
// goroutines interleave, but every operation is appended after its inputs
// were produced, so the reverse order stays a valid topological order.
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(output, outputGrad, backend)
type GradientTape struct {
	mu         sync.Mutex
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.mu.Lock()
	t.recording = true
	t.mu.Unlock()
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.mu.Lock()
	t.recording = false
	t.mu.Unlock()
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording
}

// Record adds an operation to the tape if the tape is recording.
func (t *GradientTape) Record(op ops.Operation) {
	t.mu.Lock()
	if t.recording {
		t.operations = append(t.operations, op)
	}
	t.mu.Unlock()
}

// Clear removes all recorded operations. Recording state is preserved.
func (t *GradientTape) Clear() {
	t.mu.Lock()
	t.operations = t.operations[:0]
	t.mu.Unlock()
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.operations)
}

// Backward computes gradients of output for every tensor that contributed to
// it, seeding output with outputGrad and walking the tape in reverse.
//
// Recording is suspended for the duration of the backward pass. Returns a
// map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	t.mu.Lock()
	operations := append([]ops.Operation(nil), t.operations...)
	wasRecording := t.recording
	t.recording = false
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.recording = wasRecording
		t.mu.Unlock()
	}()

	grads := map[*tensor.RawTensor]*tensor.RawTensor{output: outputGrad}
	for i := len(operations) - 1; i >= 0; i-- {
		op := operations[i]
		opGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		accumulateGrads(op, op.Backward(opGrad, backend), grads, backend)
	}
	return grads
}

// accumulateGrads adds each input gradient into grads.
func accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.RawTensor,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) {
	for j, input := range op.Inputs() {
		if j >= len(inputGrads) || inputGrads[j] == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = backend.Add(existing, inputGrads[j])
		} else {
			grads[input] = inputGrads[j]
		}
	}
}
