package cpu

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/parallel"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Conv1DInputBackward computes the gradient of a Conv1D with respect to
// its input. outputGrad is [batch, outC, outW], the result is
// [batch, inC, inputWidth].
func (cpu *CPUBackend) Conv1DInputBackward(outputGrad, kernel *tensor.RawTensor,
	stride, padding, inputWidth int,
) *tensor.RawTensor {
	gShape, kShape := outputGrad.Shape(), kernel.Shape()
	batch, outC, outW := gShape[0], gShape[1], gShape[2]
	inC, kw := kShape[1], kShape[2]
	if kShape[0] != outC {
		panic(fmt.Sprintf("conv1d input backward: kernel %v does not match grad %v", kShape, gShape))
	}

	result := newResult(tensor.Shape{batch, inC, inputWidth}, outputGrad.DType(), cpu.device, "conv1d_input_backward")
	switch outputGrad.DType() {
	case tensor.Float32:
		conv1dInputBackward(result.AsFloat32(), outputGrad.AsFloat32(), kernel.AsFloat32(),
			batch, inC, inputWidth, outC, kw, outW, stride, padding, cpu.parallel)
	case tensor.Float64:
		conv1dInputBackward(result.AsFloat64(), outputGrad.AsFloat64(), kernel.AsFloat64(),
			batch, inC, inputWidth, outC, kw, outW, stride, padding, cpu.parallel)
	default:
		panic(fmt.Sprintf("conv1d input backward: unsupported dtype %s", outputGrad.DType()))
	}
	return result
}

func conv1dInputBackward[T float](gradIn, gradOut, kern []T,
	batch, inC, width, outC, kw, outW, stride, padding int, cfg parallel.Config,
) {
	parallel.ForBatch(batch, inC, func(n, ic int) {
		gradInPlane := gradIn[(n*inC+ic)*width : (n*inC+ic+1)*width]
		for oc := 0; oc < outC; oc++ {
			gradOutPlane := gradOut[(n*outC+oc)*outW : (n*outC+oc+1)*outW]
			kernRow := kern[(oc*inC+ic)*kw : (oc*inC+ic+1)*kw]
			for ow, gv := range gradOutPlane {
				if gv == 0 {
					continue
				}
				base := ow*stride - padding
				for k, kv := range kernRow {
					iw := base + k
					if iw >= 0 && iw < width {
						gradInPlane[iw] += gv * kv
					}
				}
			}
		}
	}, cfg)
}

// Conv1DKernelBackward computes the gradient of a Conv1D with respect to
// its kernel. The result is [outC, inC, kernelWidth].
func (cpu *CPUBackend) Conv1DKernelBackward(outputGrad, input *tensor.RawTensor,
	stride, padding, kernelWidth int,
) *tensor.RawTensor {
	gShape, inShape := outputGrad.Shape(), input.Shape()
	batch, outC, outW := gShape[0], gShape[1], gShape[2]
	inC, width := inShape[1], inShape[2]
	if inShape[0] != batch {
		panic(fmt.Sprintf("conv1d kernel backward: input %v does not match grad %v", inShape, gShape))
	}

	result := newResult(tensor.Shape{outC, inC, kernelWidth}, outputGrad.DType(), cpu.device, "conv1d_kernel_backward")
	switch outputGrad.DType() {
	case tensor.Float32:
		conv1dKernelBackward(result.AsFloat32(), outputGrad.AsFloat32(), input.AsFloat32(),
			batch, inC, width, outC, kernelWidth, outW, stride, padding, cpu.parallel)
	case tensor.Float64:
		conv1dKernelBackward(result.AsFloat64(), outputGrad.AsFloat64(), input.AsFloat64(),
			batch, inC, width, outC, kernelWidth, outW, stride, padding, cpu.parallel)
	default:
		panic(fmt.Sprintf("conv1d kernel backward: unsupported dtype %s", outputGrad.DType()))
	}
	return result
}

func conv1dKernelBackward[T float](gradKern, gradOut, in []T,
	batch, inC, width, outC, kw, outW, stride, padding int, cfg parallel.Config,
) {
	// Tasks split over kernel output channels so writes never collide.
	parallel.ForBatch(outC, inC, func(oc, ic int) {
		gradKernRow := gradKern[(oc*inC+ic)*kw : (oc*inC+ic+1)*kw]
		for n := 0; n < batch; n++ {
			gradOutPlane := gradOut[(n*outC+oc)*outW : (n*outC+oc+1)*outW]
			inPlane := in[(n*inC+ic)*width : (n*inC+ic+1)*width]
			for ow, gv := range gradOutPlane {
				if gv == 0 {
					continue
				}
				base := ow*stride - padding
				for k := 0; k < kw; k++ {
					iw := base + k
					if iw >= 0 && iw < width {
						gradKernRow[k] += gv * inPlane[iw]
					}
				}
			}
		}
	}, cfg)
}
