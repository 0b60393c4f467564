package cpu

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Reshape returns a copy of x with a new shape. The element count must
// be preserved.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if shape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v", x.Shape(), shape))
	}
	result := newResult(shape, x.DType(), cpu.device, "reshape")
	copy(result.Data(), x.Data()[:x.ByteSize()])
	return result
}

// Transpose permutes dimensions by axes. axes must be a permutation of
// [0, ndim).
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes []int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %d-dimensional tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v", axes))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result := newResult(outShape, x.DType(), cpu.device, "transpose")
	inStrides := x.Strides()
	outStrides := outShape.ComputeStrides()
	elemSize := x.DType().Size()
	src, dst := x.Data(), result.Data()

	n := x.NumElements()
	for outIdx := 0; outIdx < n; outIdx++ {
		rem := outIdx
		inIdx := 0
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			inIdx += coord * inStrides[axes[d]]
		}
		copy(dst[outIdx*elemSize:(outIdx+1)*elemSize], src[inIdx*elemSize:(inIdx+1)*elemSize])
	}
	return result
}

// Chunk splits x into n equal parts along dim. The dimension size must
// divide evenly.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("chunk: dimension %d out of range for shape %v", dim, shape))
	}
	if n < 1 || shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: cannot split dimension of size %d into %d parts", shape[dim], n))
	}

	chunkSize := shape[dim] / n
	outShape := shape.Clone()
	outShape[dim] = chunkSize

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	innerBytes := x.DType().Size()
	for d := dim + 1; d < len(shape); d++ {
		innerBytes *= shape[d]
	}

	src := x.Data()
	chunks := make([]*tensor.RawTensor, n)
	for c := 0; c < n; c++ {
		out := newResult(outShape, x.DType(), cpu.device, "chunk")
		dst := out.Data()
		for o := 0; o < outer; o++ {
			srcOff := (o*shape[dim] + c*chunkSize) * innerBytes
			dstOff := o * chunkSize * innerBytes
			copy(dst[dstOff:dstOff+chunkSize*innerBytes], src[srcOff:srcOff+chunkSize*innerBytes])
		}
		chunks[c] = out
	}
	return chunks
}

// Cat concatenates tensors along dim. All inputs must agree on every
// other dimension.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}
	first := tensors[0]
	shape := first.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cat: dimension %d out of range for shape %v", dim, shape))
	}

	total := 0
	for _, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != len(shape) {
			panic(fmt.Sprintf("cat: rank mismatch: %v vs %v", shape, tShape))
		}
		for d := range shape {
			if d != dim && tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: shape mismatch on dimension %d: %v vs %v", d, shape, tShape))
			}
		}
		total += tShape[dim]
	}

	outShape := shape.Clone()
	outShape[dim] = total
	result := newResult(outShape, first.DType(), cpu.device, "cat")

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	innerBytes := first.DType().Size()
	for d := dim + 1; d < len(shape); d++ {
		innerBytes *= shape[d]
	}

	dst := result.Data()
	offset := 0
	for _, t := range tensors {
		size := t.Shape()[dim]
		src := t.Data()
		for o := 0; o < outer; o++ {
			srcOff := o * size * innerBytes
			dstOff := (o*total + offset) * innerBytes
			copy(dst[dstOff:dstOff+size*innerBytes], src[srcOff:srcOff+size*innerBytes])
		}
		offset += size
	}
	return result
}
