package tensor

// Backend defines the interface that all compute backends must implement.
//
// Shape mismatches panic inside a backend; callers that accept user input
// validate shapes first and return errors instead.
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor

	// Element-wise math.
	Neg(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Abs(x *RawTensor) *RawTensor
	Sign(x *RawTensor) *RawTensor
	Cos(x *RawTensor) *RawTensor
	Sin(x *RawTensor) *RawTensor
	Cosh(x *RawTensor) *RawTensor
	Sinh(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Acos(x *RawTensor) *RawTensor
	Acosh(x *RawTensor) *RawTensor
	Atanh(x *RawTensor) *RawTensor
	Asinh(x *RawTensor) *RawTensor

	// Clamp limits every element to [lo, hi]; infinite bounds are one-sided.
	Clamp(x *RawTensor, lo, hi float64) *RawTensor

	// Reductions and shape manipulation.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor
	Narrow(x *RawTensor, dim, start, length int) *RawTensor
	Cat(xs []*RawTensor, dim int) *RawTensor

	// Batched linear algebra over the last two axes. Batch dimensions of
	// both operands must already agree.
	MatMul(a, b *RawTensor) *RawTensor
	MatTranspose(x *RawTensor) *RawTensor
	Solve(a, b *RawTensor) *RawTensor
	Expm(x *RawTensor) *RawTensor
	QR(x *RawTensor) *RawTensor
	Polar(x *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
