package cpu

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// AddScalar returns a + scalar.
func (cpu *CPUBackend) AddScalar(a *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("add_scalar", a, scalar, addOp)
}

// MulScalar returns a * scalar.
func (cpu *CPUBackend) MulScalar(a *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mul_scalar", a, scalar, mulOp)
}

func (cpu *CPUBackend) scalarOp(name string, a *tensor.RawTensor, scalar any, op binaryOp) *tensor.RawTensor {
	s := scalarToFloat64(name, scalar)

	if a.IsUnique() {
		switch a.DType() {
		case tensor.Float32:
			scalarInplaceLoop(a.AsFloat32(), float32(s), op)
		case tensor.Float64:
			scalarInplaceLoop(a.AsFloat64(), s, op)
		default:
			panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
		}
		return a
	}

	result := newResult(a.Shape(), a.DType(), cpu.device, name)
	switch a.DType() {
	case tensor.Float32:
		scalarLoop(result.AsFloat32(), a.AsFloat32(), float32(s), op)
	case tensor.Float64:
		scalarLoop(result.AsFloat64(), a.AsFloat64(), s, op)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return result
}

func scalarInplaceLoop[T float](a []T, s T, op binaryOp) {
	for i := range a {
		a[i] = applyOp(op, a[i], s)
	}
}

func scalarLoop[T float](out, a []T, s T, op binaryOp) {
	for i := range a {
		out[i] = applyOp(op, a[i], s)
	}
}

// scalarToFloat64 normalizes the accepted scalar types.
func scalarToFloat64(name string, scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
