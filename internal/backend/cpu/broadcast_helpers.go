package cpu

import (
	"github.com/born-ml/riemann/internal/parallel"
	"github.com/born-ml/riemann/internal/tensor"
)

// binaryKernel writes f(a, b) into dst, broadcasting a and b to outShape.
func binaryKernel[T tensor.Float](
	dst, a, b []T,
	aShape, bShape, outShape tensor.Shape,
	f func(x, y float64) float64,
	cfg parallel.Config,
) {
	if aShape.Equal(bShape) {
		parallel.Range(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = T(f(float64(a[i]), float64(b[i])))
			}
		}, cfg)
		return
	}

	// Scalar right-hand side, the common case of a curvature parameter.
	if len(b) == 1 && aShape.Equal(outShape) {
		bv := float64(b[0])
		parallel.Range(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = T(f(float64(a[i]), bv))
			}
		}, cfg)
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := tensor.BroadcastStrides(aShape, outShape)
	bStrides := tensor.BroadcastStrides(bShape, outShape)
	parallel.Range(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			ai := tensor.BroadcastIndex(i, outStrides, aStrides)
			bi := tensor.BroadcastIndex(i, outStrides, bStrides)
			dst[i] = T(f(float64(a[ai]), float64(b[bi])))
		}
	}, cfg)
}

// unaryKernel writes f(src) into dst.
func unaryKernel[T tensor.Float](dst, src []T, f func(float64) float64, cfg parallel.Config) {
	parallel.Range(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = T(f(float64(src[i])))
		}
	}, cfg)
}
