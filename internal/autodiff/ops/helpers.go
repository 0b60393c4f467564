package ops

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// reduceBroadcast sums a gradient down to targetShape, undoing the
// broadcasting of the forward pass. Matching shapes return a clone so
// later in-place ops cannot alias the shared gradient.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Broadcasting aligns from the right: leading extra dimensions of
	// the gradient were created by the broadcast and are summed away.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumDim(result, 0, false)
	}

	shape := result.Shape()
	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && shape[d] > 1 {
			result = sumDim(result, d, true)
			shape = result.Shape()
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// sumDim sums along one dimension, keeping it as size 1 when keepDim.
func sumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumDim: invalid dimension %d for shape %v", dim, shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, size := range shape {
		switch {
		case d != dim:
			outShape = append(outShape, size)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumDim: allocating result: %v", err))
	}

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	dimSize := shape[dim]
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	switch t.DType() {
	case tensor.Float32:
		sumDimLoop(result.AsFloat32(), t.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		sumDimLoop(result.AsFloat64(), t.AsFloat64(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("sumDim: unsupported dtype %s", t.DType()))
	}
	return result
}

func sumDimLoop[T ~float32 | ~float64](out, in []T, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for d := 0; d < dimSize; d++ {
			base := (o*dimSize + d) * inner
			outBase := o * inner
			for i := 0; i < inner; i++ {
				out[outBase+i] += in[base+i]
			}
		}
	}
}

// negate returns -grad in a fresh buffer.
func negate(grad *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(grad.Shape(), grad.DType(), grad.Device())
	if err != nil {
		panic(fmt.Sprintf("negate: allocating result: %v", err))
	}
	switch grad.DType() {
	case tensor.Float32:
		out, in := result.AsFloat32(), grad.AsFloat32()
		for i, v := range in {
			out[i] = -v
		}
	case tensor.Float64:
		out, in := result.AsFloat64(), grad.AsFloat64()
		for i, v := range in {
			out[i] = -v
		}
	default:
		panic(fmt.Sprintf("negate: unsupported dtype %s", grad.DType()))
	}
	return result
}
