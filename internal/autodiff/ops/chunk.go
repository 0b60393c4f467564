package ops

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// ChunkOp records outs = chunk(x, n, dim). The combined backward is the
// concatenation of the per-chunk gradients.
type ChunkOp struct {
	X    *tensor.RawTensor
	Outs []*tensor.RawTensor
	Dim  int
}

func (op *ChunkOp) Backward(_ *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	panic("chunk: use BackwardMulti")
}

func (op *ChunkOp) BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(outputGrads))
	for i, g := range outputGrads {
		if g == nil {
			// Unused chunk contributes zero gradient.
			g = newGradLike(op.Outs[i], "chunk backward")
		}
		grads[i] = g
	}
	return []*tensor.RawTensor{backend.Cat(grads, op.Dim)}
}

func (op *ChunkOp) Inputs() []*tensor.RawTensor  { return []*tensor.RawTensor{op.X} }
func (op *ChunkOp) Output() *tensor.RawTensor    { return op.Outs[0] }
func (op *ChunkOp) Outputs() []*tensor.RawTensor { return op.Outs }

// CatOp records out = cat(xs, dim). The gradient is sliced back into
// the shapes of the inputs.
type CatOp struct {
	Xs  []*tensor.RawTensor
	Out *tensor.RawTensor
	Dim int
}

func (op *CatOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	outShape := op.Out.Shape()
	dim := op.Dim

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	innerBytes := op.Out.DType().Size()
	for d := dim + 1; d < len(outShape); d++ {
		innerBytes *= outShape[d]
	}
	total := outShape[dim]

	src := outputGrad.Data()
	grads := make([]*tensor.RawTensor, len(op.Xs))
	offset := 0
	for i, x := range op.Xs {
		size := x.Shape()[dim]
		grad, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
		if err != nil {
			panic(fmt.Sprintf("cat backward: allocating gradient: %v", err))
		}
		dst := grad.Data()
		for o := 0; o < outer; o++ {
			srcOff := (o*total + offset) * innerBytes
			dstOff := o * size * innerBytes
			copy(dst[dstOff:dstOff+size*innerBytes], src[srcOff:srcOff+size*innerBytes])
		}
		grads[i] = grad
		offset += size
	}
	return grads
}

func (op *CatOp) Inputs() []*tensor.RawTensor { return op.Xs }
func (op *CatOp) Output() *tensor.RawTensor   { return op.Out }
