package ops

import "github.com/AzanPy/rna-seq-factornet/internal/tensor"

// MatMulOp records C = A @ B for 2-D tensors.
// dL/dA = grad @ Bᵀ, dL/dB = Aᵀ @ grad.
type MatMulOp struct {
	A, B, Out *tensor.RawTensor
}

func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	swap := []int{1, 0}
	gradA := backend.MatMul(outputGrad, backend.Transpose(op.B, swap))
	gradB := backend.MatMul(backend.Transpose(op.A, swap), outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}

func (op *MatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.A, op.B} }
func (op *MatMulOp) Output() *tensor.RawTensor   { return op.Out }
