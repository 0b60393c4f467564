package ops

import "github.com/AzanPy/rna-seq-factornet/internal/tensor"

// Conv1DOp records out = Conv1D(input, kernel). The backward pass
// delegates to the backend's dedicated gradient kernels.
type Conv1DOp struct {
	Input, Kernel, Out *tensor.RawTensor
	Stride, Padding    int
}

func (op *Conv1DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputWidth := op.Input.Shape()[2]
	kernelWidth := op.Kernel.Shape()[2]
	return []*tensor.RawTensor{
		backend.Conv1DInputBackward(outputGrad, op.Kernel, op.Stride, op.Padding, inputWidth),
		backend.Conv1DKernelBackward(outputGrad, op.Input, op.Stride, op.Padding, kernelWidth),
	}
}

func (op *Conv1DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.Input, op.Kernel} }
func (op *Conv1DOp) Output() *tensor.RawTensor   { return op.Out }
