// Package cpu implements the CPU compute backend.
package cpu

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/AzanPy/rna-seq-factornet/internal/parallel"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU. Operations panic
// on shape or dtype violations.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// Name reports the CPU brand and vector feature level.
func (cpu *CPUBackend) Name() string {
	level := "scalar"
	switch {
	case cpuid.CPU.Supports(cpuid.AVX2):
		level = "AVX2"
	case cpuid.CPU.Supports(cpuid.AVX):
		level = "AVX"
	case cpuid.CPU.Supports(cpuid.SSE4):
		level = "SSE4"
	case cpuid.CPU.Supports(cpuid.ASIMD):
		level = "NEON"
	}
	return fmt.Sprintf("CPU (%s, %s)", cpuid.CPU.BrandName, level)
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, addOp)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, subOp)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, mulOp)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, divOp)
}

// binary dispatches an element-wise binary op. Same-shape operands take a
// contiguous path, reusing a's buffer in place when it is unique.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, op binaryOp) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, identical, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if identical {
		if a.IsUnique() {
			applyInplace(a, b, op)
			return a
		}
		result := newResult(outShape, a.DType(), cpu.device, name)
		applyContiguous(result, a, b, op)
		return result
	}

	result := newResult(outShape, a.DType(), cpu.device, name)
	applyBroadcast(result, a, b, outShape, op)
	return result
}

// Abs returns element-wise absolute values.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	result := newResult(x.Shape(), x.DType(), cpu.device, "abs")
	switch x.DType() {
	case tensor.Float32:
		absSlice(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		absSlice(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("abs: unsupported dtype %s", x.DType()))
	}
	return result
}

// Sum reduces all elements to a single-element tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := newResult(tensor.Shape{1}, x.DType(), cpu.device, "sum")
	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumSlice(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumSlice(x.AsFloat64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}
	return result
}

// Mean reduces all elements to their mean as a single-element tensor.
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.Sum(x)
	n := x.NumElements()
	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] /= float32(n)
	case tensor.Float64:
		result.AsFloat64()[0] /= float64(n)
	}
	return result
}

func newResult(shape tensor.Shape, dtype tensor.DataType, device tensor.Device, op string) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: allocating result: %v", op, err))
	}
	return result
}
