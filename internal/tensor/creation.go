package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T Float, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, DTypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T Float, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with value.
func Full[T Float, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Scalar creates a zero-dimensional tensor holding v.
func Scalar[T Float, B Backend](v T, b B) *Tensor[T, B] {
	return Full[T, B](Shape{}, v, b)
}

// Eye creates an n×m matrix with ones on the main diagonal.
func Eye[T Float, B Backend](n, m int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, m}, b)
	data := t.Data()
	for i := 0; i < min(n, m); i++ {
		data[i*m+i] = 1
	}
	return t
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn[T Float, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(rng.NormFloat64())
	}
	return t
}

// Rand creates a tensor of uniform samples in [lo, hi) drawn from rng.
func Rand[T Float, B Backend](shape Shape, lo, hi float64, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(lo + (hi-lo)*rng.Float64())
	}
	return t
}
