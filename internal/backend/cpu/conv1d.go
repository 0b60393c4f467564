package cpu

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/parallel"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Conv1D applies a cross-correlation over a [batch, inC, width] input
// with a [outC, inC, kernel] kernel. Output width is
// (width + 2*padding - kernel)/stride + 1.
func (cpu *CPUBackend) Conv1D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 3 || len(kShape) != 3 {
		panic(fmt.Sprintf("conv1d: expected 3-D input and kernel, got %v and %v", inShape, kShape))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("conv1d: channel mismatch: input %v, kernel %v", inShape, kShape))
	}
	if stride < 1 {
		panic(fmt.Sprintf("conv1d: invalid stride %d", stride))
	}

	batch, inC, width := inShape[0], inShape[1], inShape[2]
	outC, kw := kShape[0], kShape[2]
	outW := (width+2*padding-kw)/stride + 1
	if outW < 1 {
		panic(fmt.Sprintf("conv1d: kernel %d does not fit input width %d with padding %d", kw, width, padding))
	}

	result := newResult(tensor.Shape{batch, outC, outW}, input.DType(), cpu.device, "conv1d")
	switch input.DType() {
	case tensor.Float32:
		conv1dForward(result.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			batch, inC, width, outC, kw, outW, stride, padding, cpu.parallel)
	case tensor.Float64:
		conv1dForward(result.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			batch, inC, width, outC, kw, outW, stride, padding, cpu.parallel)
	default:
		panic(fmt.Sprintf("conv1d: unsupported dtype %s", input.DType()))
	}
	return result
}

func conv1dForward[T float](out, in, kern []T,
	batch, inC, width, outC, kw, outW, stride, padding int, cfg parallel.Config,
) {
	parallel.ForBatch(batch, outC, func(n, oc int) {
		outPlane := out[(n*outC+oc)*outW : (n*outC+oc+1)*outW]
		for ic := 0; ic < inC; ic++ {
			inPlane := in[(n*inC+ic)*width : (n*inC+ic+1)*width]
			kernRow := kern[(oc*inC+ic)*kw : (oc*inC+ic+1)*kw]
			if stride == 1 && padding == 0 {
				// Fast path: every kernel tap stays in bounds.
				for ow := 0; ow < outW; ow++ {
					var acc T
					window := inPlane[ow : ow+kw]
					for k, kv := range kernRow {
						acc += window[k] * kv
					}
					outPlane[ow] += acc
				}
				continue
			}
			for ow := 0; ow < outW; ow++ {
				var acc T
				base := ow*stride - padding
				for k, kv := range kernRow {
					iw := base + k
					if iw >= 0 && iw < width {
						acc += inPlane[iw] * kv
					}
				}
				outPlane[ow] += acc
			}
		}
	}, cfg)
}
