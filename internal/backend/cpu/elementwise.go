package cpu

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// binaryOp selects the arithmetic applied by the element-wise kernels.
type binaryOp int

const (
	addOp binaryOp = iota
	subOp
	mulOp
	divOp
)

type float interface {
	~float32 | ~float64
}

func applyOp[T float](op binaryOp, x, y T) T {
	switch op {
	case addOp:
		return x + y
	case subOp:
		return x - y
	case mulOp:
		return x * y
	case divOp:
		return x / y
	default:
		panic("unknown binary op")
	}
}

// applyInplace writes op(a, b) into a. Caller guarantees matching shapes
// and a unique buffer on a.
func applyInplace(a, b *tensor.RawTensor, op binaryOp) {
	switch a.DType() {
	case tensor.Float32:
		inplaceLoop(a.AsFloat32(), b.AsFloat32(), op)
	case tensor.Float64:
		inplaceLoop(a.AsFloat64(), b.AsFloat64(), op)
	default:
		panic(fmt.Sprintf("binary op: unsupported dtype %s", a.DType()))
	}
}

// applyContiguous writes op(a, b) into out for same-shape operands.
func applyContiguous(out, a, b *tensor.RawTensor, op binaryOp) {
	switch a.DType() {
	case tensor.Float32:
		contiguousLoop(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), op)
	case tensor.Float64:
		contiguousLoop(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), op)
	default:
		panic(fmt.Sprintf("binary op: unsupported dtype %s", a.DType()))
	}
}

// applyBroadcast writes op(a, b) into out using stride-0 broadcasting.
func applyBroadcast(out, a, b *tensor.RawTensor, outShape tensor.Shape, op binaryOp) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)

	switch a.DType() {
	case tensor.Float32:
		broadcastLoop(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outStrides, aStrides, bStrides, op)
	case tensor.Float64:
		broadcastLoop(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outStrides, aStrides, bStrides, op)
	default:
		panic(fmt.Sprintf("binary op: unsupported dtype %s", a.DType()))
	}
}

func inplaceLoop[T float](a, b []T, op binaryOp) {
	for i := range a {
		a[i] = applyOp(op, a[i], b[i])
	}
}

func contiguousLoop[T float](out, a, b []T, op binaryOp) {
	for i := range out {
		out[i] = applyOp(op, a[i], b[i])
	}
}

func broadcastLoop[T float](out, a, b []T, outStrides, aStrides, bStrides []int, op binaryOp) {
	for i := range out {
		out[i] = applyOp(op, a[sourceIndex(i, outStrides, aStrides)], b[sourceIndex(i, outStrides, bStrides)])
	}
}

// broadcastStrides maps inShape onto outShape, assigning stride 0 to
// broadcast (size-1 or missing) dimensions.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		if inIdx < 0 || inShape[inIdx] == 1 {
			strides[i] = 0
		} else {
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// sourceIndex converts a flat output index into the flat index of a
// broadcast source.
func sourceIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}

func absSlice[T float](out, in []T) {
	for i, v := range in {
		if v < 0 {
			v = -v
		}
		out[i] = v
	}
}

func sumSlice[T float](in []T) T {
	var acc T
	for _, v := range in {
		acc += v
	}
	return acc
}
