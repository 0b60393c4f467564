// Package autodiff adds reverse-mode automatic differentiation on top of
// any tensor.Backend via the decorator pattern. Forward computation is
// delegated to the wrapped backend; a GradientTape records each
// operation so gradients can be pushed back to parameters and inputs.
package autodiff

import (
	"fmt"
	"math"

	"github.com/AzanPy/rna-seq-factornet/internal/autodiff/ops"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// AutodiffBackend decorates a Backend with gradient tracking.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps a backend with a fresh gradient tape.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{inner: backend, tape: NewGradientTape()}
}

// Tape exposes the gradient tape for recording control.
func (b *AutodiffBackend[B]) Tape() *GradientTape { return b.tape }

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B { return b.inner }

func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add records c = a + other. Buffers are pinned so the inner backend
// cannot reuse them in place while the tape may still need them.
func (b *AutodiffBackend[B]) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer other.ForceNonUnique()()
	result := b.inner.Add(a, other)
	b.tape.Record(&ops.AddOp{A: a, B: other, Out: result})
	return result
}

// Sub records c = a - other.
func (b *AutodiffBackend[B]) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer other.ForceNonUnique()()
	result := b.inner.Sub(a, other)
	b.tape.Record(&ops.SubOp{A: a, B: other, Out: result})
	return result
}

// Mul records the element-wise product.
func (b *AutodiffBackend[B]) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer other.ForceNonUnique()()
	result := b.inner.Mul(a, other)
	b.tape.Record(&ops.MulOp{A: a, B: other, Out: result})
	return result
}

// Div records the element-wise quotient.
func (b *AutodiffBackend[B]) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer other.ForceNonUnique()()
	result := b.inner.Div(a, other)
	b.tape.Record(&ops.DivOp{A: a, B: other, Out: result})
	return result
}

// AddScalar is not differentiated; the buffer is still pinned so taped
// tensors are never overwritten.
func (b *AutodiffBackend[B]) AddScalar(a *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	return b.inner.AddScalar(a, scalar)
}

// MulScalar is not differentiated.
func (b *AutodiffBackend[B]) MulScalar(a *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	return b.inner.MulScalar(a, scalar)
}

// MatMul records C = A @ B.
func (b *AutodiffBackend[B]) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer other.ForceNonUnique()()
	result := b.inner.MatMul(a, other)
	b.tape.Record(&ops.MatMulOp{A: a, B: other, Out: result})
	return result
}

// Conv1D records a 1-D convolution.
func (b *AutodiffBackend[B]) Conv1D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()
	result := b.inner.Conv1D(input, kernel, stride, padding)
	b.tape.Record(&ops.Conv1DOp{Input: input, Kernel: kernel, Out: result, Stride: stride, Padding: padding})
	return result
}

// Conv1DInputBackward delegates to the inner backend; gradient kernels
// are themselves not differentiated.
func (b *AutodiffBackend[B]) Conv1DInputBackward(outputGrad, kernel *tensor.RawTensor, stride, padding, inputWidth int) *tensor.RawTensor {
	return b.inner.Conv1DInputBackward(outputGrad, kernel, stride, padding, inputWidth)
}

// Conv1DKernelBackward delegates to the inner backend.
func (b *AutodiffBackend[B]) Conv1DKernelBackward(outputGrad, input *tensor.RawTensor, stride, padding, kernelWidth int) *tensor.RawTensor {
	return b.inner.Conv1DKernelBackward(outputGrad, input, stride, padding, kernelWidth)
}

// Reshape records a shape change.
func (b *AutodiffBackend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Reshape(x, shape)
	b.tape.Record(&ops.ReshapeOp{X: x, Out: result})
	return result
}

// Transpose records an axes permutation.
func (b *AutodiffBackend[B]) Transpose(x *tensor.RawTensor, axes []int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Transpose(x, axes)
	b.tape.Record(&ops.TransposeOp{X: x, Out: result, Axes: append([]int(nil), axes...)})
	return result
}

// Chunk records an n-way split along dim.
func (b *AutodiffBackend[B]) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	defer x.ForceNonUnique()()
	results := b.inner.Chunk(x, n, dim)
	b.tape.Record(&ops.ChunkOp{X: x, Outs: results, Dim: dim})
	return results
}

// Cat records a concatenation along dim.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	for _, t := range tensors {
		defer t.ForceNonUnique()()
	}
	result := b.inner.Cat(tensors, dim)
	b.tape.Record(&ops.CatOp{Xs: append([]*tensor.RawTensor(nil), tensors...), Out: result, Dim: dim})
	return result
}

// Abs is not differentiated; attribution uses it outside the tape.
func (b *AutodiffBackend[B]) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.inner.Abs(x)
}

// Sum is not differentiated.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.inner.Sum(x)
}

// Mean records a full-mean reduction. This keeps the whole MSE loss on
// the tape so the backward pass reaches parameters and inputs.
func (b *AutodiffBackend[B]) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := b.inner.Mean(x)
	b.tape.Record(&ops.MeanOp{X: x, Out: result})
	return result
}

// ReLU records max(x, 0). Computed here rather than in the backend so
// plain backends stay arithmetic-only.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := unaryElementwise(x, "relu",
		func(v float32) float32 {
			if v > 0 {
				return v
			}
			return 0
		},
		func(v float64) float64 {
			if v > 0 {
				return v
			}
			return 0
		})
	b.tape.Record(&ops.ReLUOp{X: x, Out: result})
	return result
}

// Sigmoid records 1 / (1 + exp(-x)).
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := unaryElementwise(x, "sigmoid",
		func(v float32) float32 { return float32(1.0 / (1.0 + math.Exp(-float64(v)))) },
		func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) })
	b.tape.Record(&ops.SigmoidOp{X: x, Out: result})
	return result
}

// Tanh records tanh(x).
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	result := unaryElementwise(x, "tanh",
		func(v float32) float32 { return float32(math.Tanh(float64(v))) },
		func(v float64) float64 { return math.Tanh(v) })
	b.tape.Record(&ops.TanhOp{X: x, Out: result})
	return result
}

func unaryElementwise(x *tensor.RawTensor, name string, f32 func(float32) float32, f64 func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: allocating result: %v", name, err))
	}
	switch x.DType() {
	case tensor.Float32:
		out, in := result.AsFloat32(), x.AsFloat32()
		for i, v := range in {
			out[i] = f32(v)
		}
	case tensor.Float64:
		out, in := result.AsFloat64(), x.AsFloat64()
		for i, v := range in {
			out[i] = f64(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return result
}
