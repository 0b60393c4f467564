package ops

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// MeanOp records out = mean(x) over all elements. The gradient spreads
// the scalar output gradient uniformly, scaled by 1/N.
type MeanOp struct {
	X, Out *tensor.RawTensor
}

func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad, err := tensor.NewRaw(op.X.Shape(), op.X.DType(), op.X.Device())
	if err != nil {
		panic(fmt.Sprintf("mean backward: allocating gradient: %v", err))
	}
	n := op.X.NumElements()

	switch op.X.DType() {
	case tensor.Float32:
		g := outputGrad.AsFloat32()[0] / float32(n)
		data := grad.AsFloat32()
		for i := range data {
			data[i] = g
		}
	case tensor.Float64:
		g := outputGrad.AsFloat64()[0] / float64(n)
		data := grad.AsFloat64()
		for i := range data {
			data[i] = g
		}
	default:
		panic(fmt.Sprintf("mean backward: unsupported dtype %s", op.X.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *MeanOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *MeanOp) Output() *tensor.RawTensor   { return op.Out }
