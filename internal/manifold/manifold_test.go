package manifold_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/backend/cpu"
	"github.com/born-ml/riemann/internal/manifold"
	"github.com/born-ml/riemann/internal/tensor"
)

func TestResolveOptions(t *testing.T) {
	assert.True(t, manifold.ResolveOptions().Project)
	assert.False(t, manifold.ResolveOptions(manifold.WithProject(false)).Project)
	assert.True(t, manifold.ResolveOptions(manifold.WithProject(false), manifold.WithProject(true)).Project)
}

func TestSampleOptions_Resolve(t *testing.T) {
	o := manifold.SampleOptions[float64, *cpu.CPUBackend]{}.Resolve()
	assert.Equal(t, 1.0, o.Std)
	assert.NotNil(t, o.Rand)
	assert.Nil(t, o.Mean)

	o = manifold.SampleOptions[float64, *cpu.CPUBackend]{Std: 0.25}.Resolve()
	assert.Equal(t, 0.25, o.Std)
}

func TestTolerance(t *testing.T) {
	assert.Equal(t, manifold.DefaultTolerance[float32](), manifold.ResolveTolerance[float32](manifold.Tolerance{}))
	custom := manifold.Tolerance{Atol: 1}
	assert.Equal(t, custom, manifold.ResolveTolerance[float64](custom))
	assert.Greater(t, manifold.DefaultTolerance[float32]().Atol, manifold.DefaultTolerance[float64]().Atol)
}

func TestAllclose(t *testing.T) {
	backend := cpu.New()
	a, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float64{1, 2.5}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	ok, residual := manifold.Allclose(a, b, manifold.Tolerance{Atol: 0.1})
	assert.False(t, ok)
	assert.InDelta(t, 2.0, residual, 1e-12) // 3 against the broadcast 1

	ok, _ = manifold.Allclose(a, a, manifold.Tolerance{})
	assert.True(t, ok)

	c := tensor.Zeros[float64](tensor.Shape{3}, backend)
	ok, residual = manifold.Allclose(a, c, manifold.Tolerance{})
	assert.False(t, ok)
	assert.True(t, math.IsInf(residual, 1))

	check := manifold.CheckClose(a, b, manifold.Tolerance{Atol: 0.1}, "values")
	assert.False(t, check.OK)
	assert.Equal(t, "values", check.Reason)
}

func TestAllclose_Relative(t *testing.T) {
	backend := cpu.New()
	a := tensor.Full[float64](tensor.Shape{3}, 1000.5, backend)
	b := tensor.Full[float64](tensor.Shape{3}, 1000, backend)
	ok, _ := manifold.Allclose(a, b, manifold.Tolerance{Atol: 0, Rtol: 1e-3})
	assert.True(t, ok)
	ok, _ = manifold.Allclose(a, b, manifold.Tolerance{Atol: 0.1, Rtol: 1e-4})
	assert.False(t, ok)
}

func TestValidationError(t *testing.T) {
	err := error(&manifold.ValidationError{
		Kind:     manifold.ErrNotOnManifold,
		Manifold: "Sphere",
		Reason:   "norm differs",
		Residual: 0.5,
	})
	assert.ErrorIs(t, err, manifold.ErrNotOnManifold)
	assert.False(t, errors.Is(err, manifold.ErrNotOnTangent))
	assert.Contains(t, err.Error(), "Sphere")
	assert.Contains(t, err.Error(), "norm differs")

	nerr := manifold.NotImplemented("Stiefel", "Logmap")
	assert.ErrorIs(t, nerr, manifold.ErrNotImplemented)
	assert.Contains(t, nerr.Error(), "Stiefel.Logmap")
}

func TestParam(t *testing.T) {
	backend := cpu.New()
	p := manifold.ScalarParam[float64]("k", 2, true, backend)
	assert.Equal(t, "k", p.Name())
	assert.True(t, p.Learnable())
	assert.Equal(t, 2.0, p.Float())
	require.NoError(t, p.RequirePositive())

	old := p.Value()
	p.Set(tensor.Scalar(3.0, backend))
	assert.Equal(t, 2.0, old.Item(), "Set must not write into snapshots")
	assert.Equal(t, 3.0, p.Float())

	c := p.Clone()
	c.Set(tensor.Scalar(5.0, backend))
	assert.Equal(t, 3.0, p.Float())
	assert.Equal(t, 5.0, c.Float())

	p.Set(tensor.Scalar(0.0, backend))
	assert.ErrorIs(t, p.RequirePositive(), manifold.ErrInvalidParam)
	p.Set(tensor.Scalar(math.NaN(), backend))
	assert.ErrorIs(t, p.RequirePositive(), manifold.ErrInvalidParam)
}

func TestParam_Concurrent(t *testing.T) {
	backend := cpu.New()
	p := manifold.ScalarParam[float64]("k", 1, false, backend)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v float64) {
			defer wg.Done()
			p.Set(tensor.Scalar(v, backend))
		}(float64(i + 1))
		go func() {
			defer wg.Done()
			assert.Positive(t, p.Value().Item())
		}()
	}
	wg.Wait()
}

func TestBase(t *testing.T) {
	backend := cpu.New()
	base := manifold.NewBase[float64]("Test", 2, backend, func(s tensor.Shape) error {
		if s[0] < s[1] {
			return errors.New("need n >= p")
		}
		return nil
	})
	assert.Equal(t, "Test", base.Name())
	assert.Equal(t, 2, base.Ndim())

	require.NoError(t, base.CheckShape(tensor.Shape{4, 3, 2}))
	assert.ErrorIs(t, base.CheckShape(tensor.Shape{3}), manifold.ErrShape)
	assert.ErrorIs(t, base.CheckShape(tensor.Shape{2, 3}), manifold.ErrShape)

	x := tensor.Zeros[float64](tensor.Shape{4, 3, 2}, backend)
	y := tensor.Zeros[float64](tensor.Shape{1, 3, 2}, backend)
	shape, err := base.Broadcast("Op", x, y)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 3, 2}, shape)

	z := tensor.Zeros[float64](tensor.Shape{4, 3, 1}, backend)
	_, err = base.Broadcast("Op", x, z)
	assert.ErrorIs(t, err, manifold.ErrShape)

	k := tensor.Zeros[float64](tensor.Shape{4, 1, 1}, backend)
	require.NoError(t, base.BroadcastBatch("Op", shape, k))
	bad := tensor.Zeros[float64](tensor.Shape{5, 1, 1}, backend)
	assert.ErrorIs(t, base.BroadcastBatch("Op", shape, bad), manifold.ErrShape)
}

func TestConcatLastAndSqueeze(t *testing.T) {
	backend := cpu.New()
	a := tensor.Ones[float64](tensor.Shape{1}, backend)
	b := tensor.Zeros[float64](tensor.Shape{2, 2}, backend)
	c := manifold.ConcatLast(a, b)
	assert.Equal(t, tensor.Shape{2, 3}, c.Shape())
	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0}, c.Data())

	s := tensor.Zeros[float64](tensor.Shape{5, 1, 1}, backend)
	assert.Equal(t, tensor.Shape{5}, manifold.SqueezeKeep(s, 2, false).Shape())
	assert.Equal(t, tensor.Shape{5, 1, 1}, manifold.SqueezeKeep(s, 2, true).Shape())
}
