package ops

import "github.com/AzanPy/rna-seq-factornet/internal/tensor"

// AddOp records c = a + b. Gradient flows unchanged to both inputs,
// reduced over broadcast dimensions.
type AddOp struct {
	A, B, Out *tensor.RawTensor
}

func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.A.Shape(), backend),
		reduceBroadcast(outputGrad, op.B.Shape(), backend),
	}
}

func (op *AddOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.A, op.B} }
func (op *AddOp) Output() *tensor.RawTensor   { return op.Out }

// SubOp records c = a - b.
type SubOp struct {
	A, B, Out *tensor.RawTensor
}

func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.A.Shape(), backend),
		reduceBroadcast(negate(outputGrad), op.B.Shape(), backend),
	}
}

func (op *SubOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.A, op.B} }
func (op *SubOp) Output() *tensor.RawTensor   { return op.Out }

// MulOp records c = a * b. d(a*b)/da = b, d(a*b)/db = a.
type MulOp struct {
	A, B, Out *tensor.RawTensor
}

func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(outputGrad.Clone(), op.B), op.A.Shape(), backend),
		reduceBroadcast(backend.Mul(outputGrad.Clone(), op.A), op.B.Shape(), backend),
	}
}

func (op *MulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.A, op.B} }
func (op *MulOp) Output() *tensor.RawTensor   { return op.Out }

// DivOp records c = a / b. d(a/b)/da = 1/b, d(a/b)/db = -a/b².
type DivOp struct {
	A, B, Out *tensor.RawTensor
}

func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.Div(outputGrad.Clone(), op.B)

	// grad * out / b = grad * a / b²
	gradB := backend.Mul(outputGrad.Clone(), op.Out)
	gradB = backend.Div(gradB, op.B)
	gradB = negate(gradB)

	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.A.Shape(), backend),
		reduceBroadcast(gradB, op.B.Shape(), backend),
	}
}

func (op *DivOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.A, op.B} }
func (op *DivOp) Output() *tensor.RawTensor   { return op.Out }
