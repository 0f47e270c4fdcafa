package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/riemann/internal/config"
	"github.com/born-ml/riemann/internal/diagnostics"
	"github.com/born-ml/riemann/internal/tensor"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "riemann "+version+"\n", out)
}

func TestInit(t *testing.T) {
	out, err := execute(t, "init")
	require.NoError(t, err)
	g, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), g)

	path := filepath.Join(t.TempDir(), "geometry.yaml")
	_, err = execute(t, "init", path)
	require.NoError(t, err)
	_, err = config.Load(path)
	assert.NoError(t, err)
}

func TestCheckDefault(t *testing.T) {
	out, err := execute(t, "check", "--samples", "16", "--seed", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "manifold=Product")
	assert.Contains(t, out, "property=point-on-manifold")
	assert.Contains(t, out, "msg=done")
	assert.NotContains(t, out, "level=error")
}

func TestCheckConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geometry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: stiefel
factors:
  - kind: stiefel-canonical
    shape: [4, 2]
`), 0o600))

	out, err := execute(t, "check", "--config", path, "--dtype", "float32", "--samples", "8", "--verbose")
	require.NoError(t, err, out)
	assert.Contains(t, out, "manifold=CanonicalStiefel")
	assert.Contains(t, out, "dtype=float32")
	assert.Contains(t, out, "msg=skipped")
}

func TestCheckErrors(t *testing.T) {
	_, err := execute(t, "check", "--dtype", "float16")
	assert.ErrorContains(t, err, "float16")

	_, err = execute(t, "check", "--samples", "0")
	assert.ErrorContains(t, err, "--samples")

	_, err = execute(t, "check", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read geometry")

	_, err = execute(t, "check", "extra")
	assert.Error(t, err)
}

func TestLogReport(t *testing.T) {
	var out bytes.Buffer
	report := diagnostics.Report{
		Manifold: "Sphere",
		DType:    tensor.Float64,
		Results: []diagnostics.Result{
			{Property: diagnostics.PointOnManifold, OK: true, Residual: 1e-16},
			{Property: diagnostics.TranspInner, Skipped: true, Reason: "not parallel"},
			{Property: diagnostics.GeodesicArcLength, Residual: 0.25, Reason: "arc length drifts"},
		},
	}
	logReport(newLogger(&out, false), &config.Geometry{Name: "unit"}, report)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3, "skipped properties are logged at debug level")
	assert.Contains(t, string(lines[0]), "level=info")
	assert.Contains(t, string(lines[1]), "level=error")
	assert.Contains(t, string(lines[1]), "property=geodesic-arc-length")
	assert.Contains(t, string(lines[1]), "residual=0.25")
	assert.Contains(t, string(lines[2]), "failed=1")
}
