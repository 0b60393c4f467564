package ops

import "github.com/AzanPy/rna-seq-factornet/internal/tensor"

// ReshapeOp records out = reshape(x). The gradient is reshaped back to
// the input shape.
type ReshapeOp struct {
	X, Out *tensor.RawTensor
}

func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.X.Shape())}
}

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *ReshapeOp) Output() *tensor.RawTensor   { return op.Out }

// TransposeOp records out = transpose(x, axes). The gradient is
// transposed by the inverse permutation.
type TransposeOp struct {
	X, Out *tensor.RawTensor
	Axes   []int
}

func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.Axes))
	for i, ax := range op.Axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse)}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *TransposeOp) Output() *tensor.RawTensor   { return op.Out }
