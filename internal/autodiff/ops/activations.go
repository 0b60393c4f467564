package ops

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// ReLUOp records out = max(x, 0). The gradient passes through where the
// input was positive.
type ReLUOp struct {
	X, Out *tensor.RawTensor
}

func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := newGradLike(outputGrad, "relu backward")
	switch op.X.DType() {
	case tensor.Float32:
		reluMask(grad.AsFloat32(), outputGrad.AsFloat32(), op.X.AsFloat32())
	case tensor.Float64:
		reluMask(grad.AsFloat64(), outputGrad.AsFloat64(), op.X.AsFloat64())
	default:
		panic(fmt.Sprintf("relu backward: unsupported dtype %s", op.X.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *ReLUOp) Output() *tensor.RawTensor   { return op.Out }

func reluMask[T ~float32 | ~float64](grad, outputGrad, x []T) {
	for i, v := range x {
		if v > 0 {
			grad[i] = outputGrad[i]
		}
	}
}

// SigmoidOp records out = σ(x). dσ/dx = out * (1 - out), computed from
// the saved output.
type SigmoidOp struct {
	X, Out *tensor.RawTensor
}

func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := newGradLike(outputGrad, "sigmoid backward")
	switch op.Out.DType() {
	case tensor.Float32:
		out := op.Out.AsFloat32()
		g, og := grad.AsFloat32(), outputGrad.AsFloat32()
		for i, o := range out {
			g[i] = og[i] * o * (1 - o)
		}
	case tensor.Float64:
		out := op.Out.AsFloat64()
		g, og := grad.AsFloat64(), outputGrad.AsFloat64()
		for i, o := range out {
			g[i] = og[i] * o * (1 - o)
		}
	default:
		panic(fmt.Sprintf("sigmoid backward: unsupported dtype %s", op.Out.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *SigmoidOp) Output() *tensor.RawTensor   { return op.Out }

// TanhOp records out = tanh(x). dtanh/dx = 1 - out².
type TanhOp struct {
	X, Out *tensor.RawTensor
}

func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := newGradLike(outputGrad, "tanh backward")
	switch op.Out.DType() {
	case tensor.Float32:
		out := op.Out.AsFloat32()
		g, og := grad.AsFloat32(), outputGrad.AsFloat32()
		for i, o := range out {
			g[i] = og[i] * (1 - o*o)
		}
	case tensor.Float64:
		out := op.Out.AsFloat64()
		g, og := grad.AsFloat64(), outputGrad.AsFloat64()
		for i, o := range out {
			g[i] = og[i] * (1 - o*o)
		}
	default:
		panic(fmt.Sprintf("tanh backward: unsupported dtype %s", op.Out.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *TanhOp) Output() *tensor.RawTensor   { return op.Out }

func newGradLike(grad *tensor.RawTensor, opName string) *tensor.RawTensor {
	result, err := tensor.NewRaw(grad.Shape(), grad.DType(), grad.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: allocating gradient: %v", opName, err))
	}
	return result
}
