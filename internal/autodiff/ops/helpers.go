package ops

import "github.com/born-ml/riemann/internal/tensor"

// reduceBroadcast reduces a gradient to the shape of the input it flows to.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape) *tensor.RawTensor {
	return tensor.SumToShape(grad, target)
}

// mapValues applies f element-wise on the host, preserving dtype and shape.
func mapValues(x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	vals := x.Values()
	for i, v := range vals {
		vals[i] = f(v)
	}
	return tensor.FromValues(vals, x.Shape(), x.DType(), x.Device())
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
