package tensor

// Backend is the device-specific compute interface. Implementations panic
// on shape or dtype violations; validation belongs to the layers above.
type Backend interface {
	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar variants. The scalar is converted to the tensor dtype.
	AddScalar(a *RawTensor, scalar any) *RawTensor
	MulScalar(a *RawTensor, scalar any) *RawTensor

	// MatMul multiplies two 2-D tensors.
	MatMul(a, b *RawTensor) *RawTensor

	// Conv1D applies a cross-correlation over [batch, inC, width] input
	// with a [outC, inC, kernel] kernel.
	Conv1D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv1DInputBackward(outputGrad, kernel *RawTensor, stride, padding, inputWidth int) *RawTensor
	Conv1DKernelBackward(outputGrad, input *RawTensor, stride, padding, kernelWidth int) *RawTensor

	// Shape manipulation.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes []int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Math and reductions.
	Abs(x *RawTensor) *RawTensor
	Sum(x *RawTensor) *RawTensor
	Mean(x *RawTensor) *RawTensor

	// Name identifies the backend (device model, feature level).
	Name() string
	Device() Device
}
