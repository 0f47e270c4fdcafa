package tensor

import "fmt"

// Backend-independent kernels over contiguous row-major storage. Copies are
// done on bytes, so these work for every dtype; only reductions are typed.

// splitAt returns (product of dims before dim, product of dims after dim).
func splitAt(shape Shape, dim int) (outer, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, inner
}

// BroadcastStrides returns the strides of in when viewed with shape out:
// padded and size-1 dimensions get stride 0.
func BroadcastStrides(in, out Shape) []int {
	strides := make([]int, len(out))
	orig := in.ComputeStrides()
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			continue
		}
		strides[i] = orig[j]
	}
	return strides
}

// BroadcastIndex maps a flat output index to the flat input index.
func BroadcastIndex(idx int, outStrides, inStrides []int) int {
	flat := 0
	for i, s := range outStrides {
		coord := idx / s
		idx %= s
		flat += coord * inStrides[i]
	}
	return flat
}

// ExpandRaw materialises x broadcast to shape.
func ExpandRaw(x *RawTensor, shape Shape) *RawTensor {
	if x.shape.Equal(shape) {
		return x.Clone()
	}
	bs, _, err := BroadcastShapes(x.shape, shape)
	if err != nil || !bs.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.shape, shape))
	}
	out := MustRaw(shape, x.dtype, x.device)
	size := x.dtype.Size()
	outStrides := shape.ComputeStrides()
	inStrides := BroadcastStrides(x.shape, shape)
	n := shape.NumElements()
	for i := 0; i < n; i++ {
		src := BroadcastIndex(i, outStrides, inStrides) * size
		copy(out.data[i*size:(i+1)*size], x.data[src:src+size])
	}
	return out
}

// NarrowRaw returns elements [start, start+length) of x along dim.
func NarrowRaw(x *RawTensor, dim, start, length int) *RawTensor {
	if dim < 0 || dim >= len(x.shape) || start < 0 || length <= 0 || start+length > x.shape[dim] {
		panic(fmt.Sprintf("narrow: invalid range [%d, %d) on dim %d of %v", start, start+length, dim, x.shape))
	}
	shape := x.shape.Clone()
	shape[dim] = length
	out := MustRaw(shape, x.dtype, x.device)

	outer, inner := splitAt(x.shape, dim)
	size := x.dtype.Size()
	block := length * inner * size
	srcRow := x.shape[dim] * inner * size
	for o := 0; o < outer; o++ {
		src := o*srcRow + start*inner*size
		copy(out.data[o*block:(o+1)*block], x.data[src:src+block])
	}
	return out
}

// ScatterNarrowRaw is the adjoint of NarrowRaw: a zero tensor of shape full
// with x written at [start, start+len) along dim.
func ScatterNarrowRaw(x *RawTensor, full Shape, dim, start int) *RawTensor {
	out := MustRaw(full, x.dtype, x.device)
	outer, inner := splitAt(full, dim)
	size := x.dtype.Size()
	length := x.shape[dim]
	block := length * inner * size
	dstRow := full[dim] * inner * size
	for o := 0; o < outer; o++ {
		dst := o*dstRow + start*inner*size
		copy(out.data[dst:dst+block], x.data[o*block:(o+1)*block])
	}
	return out
}

// ConcatRaw joins xs along dim. All other dimensions must agree.
func ConcatRaw(xs []*RawTensor, dim int) *RawTensor {
	if len(xs) == 0 {
		panic("cat: no tensors")
	}
	first := xs[0]
	shape := first.shape.Clone()
	shape[dim] = 0
	for _, x := range xs {
		if len(x.shape) != len(first.shape) || x.dtype != first.dtype {
			panic(fmt.Sprintf("cat: incompatible tensors %v (%s) and %v (%s)", first.shape, first.dtype, x.shape, x.dtype))
		}
		for i := range x.shape {
			if i != dim && x.shape[i] != first.shape[i] {
				panic(fmt.Sprintf("cat: shape %v does not match %v outside dim %d", x.shape, first.shape, dim))
			}
		}
		shape[dim] += x.shape[dim]
	}

	out := MustRaw(shape, first.dtype, first.device)
	outer, inner := splitAt(shape, dim)
	size := first.dtype.Size()
	dstRow := shape[dim] * inner * size
	offset := 0
	for _, x := range xs {
		block := x.shape[dim] * inner * size
		for o := 0; o < outer; o++ {
			dst := o*dstRow + offset
			copy(out.data[dst:dst+block], x.data[o*block:(o+1)*block])
		}
		offset += block
	}
	return out
}

// TransposeLast2Raw swaps the last two axes.
func TransposeLast2Raw(x *RawTensor) *RawTensor {
	nd := len(x.shape)
	if nd < 2 {
		panic(fmt.Sprintf("transpose: need at least 2 dimensions, got %v", x.shape))
	}
	m, n := x.shape[nd-2], x.shape[nd-1]
	shape := x.shape.Clone()
	shape[nd-2], shape[nd-1] = n, m
	out := MustRaw(shape, x.dtype, x.device)

	size := x.dtype.Size()
	batch := x.NumElements() / (m * n)
	for b := 0; b < batch; b++ {
		base := b * m * n
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				src := (base + i*n + j) * size
				dst := (base + j*m + i) * size
				copy(out.data[dst:dst+size], x.data[src:src+size])
			}
		}
	}
	return out
}

// SumDimRaw sums x along dim, accumulating in float64.
func SumDimRaw(x *RawTensor, dim int, keepDim bool) *RawTensor {
	shape := x.shape.Clone()
	shape[dim] = 1
	if !keepDim {
		shape = append(shape[:dim:dim], shape[dim+1:]...)
	}
	out := MustRaw(shape, x.dtype, x.device)

	outer, inner := splitAt(x.shape, dim)
	length := x.shape[dim]
	src := x.Values()
	dst := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for k := 0; k < length; k++ {
			row := (o*length + k) * inner
			for i := 0; i < inner; i++ {
				dst[o*inner+i] += src[row+i]
			}
		}
	}
	out.SetValues(dst)
	return out
}

// SumToShape reduces a broadcast result back to target by summing the
// broadcast axes. It is the adjoint of ExpandRaw.
func SumToShape(x *RawTensor, target Shape) *RawTensor {
	if x.shape.Equal(target) {
		return x
	}
	result := x
	for len(result.shape) > len(target) {
		result = SumDimRaw(result, 0, false)
	}
	for i := range target {
		if target[i] == 1 && result.shape[i] != 1 {
			result = SumDimRaw(result, i, true)
		}
	}
	if !result.shape.Equal(target) {
		panic(fmt.Sprintf("sum to shape: cannot reduce %v to %v", x.shape, target))
	}
	return result
}
