package autodiff_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/autodiff"
	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestAutodiffBackend_Metadata(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.NotNil(t, backend.Inner())
}

func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	assert.False(t, tape.IsRecording())
	tape.StartRecording()
	assert.True(t, tape.IsRecording())
	tape.StopRecording()
	assert.False(t, tape.IsRecording())
}

func TestTape_Clear(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	a, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	a.Add(a)
	assert.Equal(t, 1, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording(), "Clear preserves the recording state")
}

func TestTape_NotRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := tensor.Ones[float64](tensor.Shape{3}, backend)
	a.Mul(a).Exp()
	assert.Equal(t, 0, backend.Tape().NumOps())
}

func TestBackward_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float64{1, -2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	y := x.Mul(x).SumAll()

	grads := autodiff.Backward(y, backend)
	gx, err := autodiff.Grad(grads, x)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -4, 6}, gx.Data())
}

func TestBackward_Broadcast(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a := tensor.Ones[float64](tensor.Shape{3, 1}, backend)
	b := tensor.Full[float64](tensor.Shape{3, 4}, 2, backend)
	k := tensor.Scalar[float64](3, backend)
	y := a.Add(b).Mul(k).SumAll()

	grads := autodiff.Backward(y, backend)
	ga, err := autodiff.Grad(grads, a)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 1}, ga.Shape())
	assert.Equal(t, []float64{12, 12, 12}, ga.Data())

	gk, err := autodiff.Grad(grads, k)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, gk.Shape())
	assert.InDelta(t, 36.0, gk.Item(), 1e-12)
}

func TestBackward_OutputNotLastOperation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.Full[float64](tensor.Shape{2}, 3, backend)
	y := x.MulScalar(2).SumAll()
	x.Exp() // unrelated work recorded after y

	grads := autodiff.Backward(y, backend)
	gx, err := autodiff.Grad(grads, x)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2}, gx.Data())
}

func TestGrad_Unused(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.Ones[float64](tensor.Shape{2}, backend)
	unused := tensor.Ones[float64](tensor.Shape{2}, backend)
	y := x.SumAll()

	grads := autodiff.Backward(y, backend)
	_, err := autodiff.Grad(grads, unused)
	assert.Error(t, err)
}

func TestBackward_Clamp(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float64{-2, 0.5, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	y := x.Clamp(-1, 1).SumAll()

	gx, err := autodiff.Grad(autodiff.Backward(y, backend), x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, gx.Data())
}

func TestBackward_SignHasNoGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.Full[float64](tensor.Shape{2}, 0.5, backend)
	y := x.Sign().Mul(x).SumAll()

	gx, err := autodiff.Grad(autodiff.Backward(y, backend), x)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, gx.Data())
}

func TestBackward_ShapeOps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	head := x.Narrow(-1, 0, 1).MulScalar(10)
	tail := x.Narrow(-1, 1, 2)
	joined := tensor.Cat([]*tensor.Tensor[float64, adBackend]{head, tail}, -1)
	y := joined.Reshape(tensor.Shape{6}).Sum(0, false)

	gx, err := autodiff.Grad(autodiff.Backward(y, backend), x)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 1, 1, 10, 1, 1}, gx.Data())
}

func TestBackward_MatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float64{5, 6, 7, 8}, tensor.Shape{1, 2, 2}, backend)
	require.NoError(t, err)
	y := a.MatMul(b).SumAll()

	grads := autodiff.Backward(y, backend)
	ga, err := autodiff.Grad(grads, a)
	require.NoError(t, err)
	// d/dA sum(A B) = 1 Bᵀ
	assert.Equal(t, []float64{11, 15, 11, 15}, ga.Data())

	gb, err := autodiff.Grad(grads, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 2}, gb.Shape())
	assert.Equal(t, []float64{4, 4, 6, 6}, gb.Data())
}

func TestTape_ConcurrentRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float64{0.1, 0.2, 0.3, 0.4}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	parts := make([]*tensor.Tensor[float64, adBackend], 4)
	var wg sync.WaitGroup
	for i := range parts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := x.Narrow(0, i, 1)
			for j := 0; j < 20; j++ {
				p = p.MulScalar(1.01)
			}
			parts[i] = p
		}(i)
	}
	wg.Wait()

	y := tensor.Cat(parts, 0).SumAll()
	gx, err := autodiff.Grad(autodiff.Backward(y, backend), x)
	require.NoError(t, err)
	want := 1.0
	for j := 0; j < 20; j++ {
		want *= 1.01
	}
	assert.InDeltaSlice(t, []float64{want, want, want, want}, gx.Data(), 1e-12)
}
