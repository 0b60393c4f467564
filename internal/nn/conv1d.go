package nn

import (
	"fmt"
	"math/rand"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Conv1D applies a 1-D convolution over [batch, inChannels, width]
// input. The kernel is [outChannels, inChannels, kernelSize].
type Conv1D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewConv1D creates a Conv1D layer with seeded Xavier initialization.
func NewConv1D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, rng *rand.Rand, backend B) *Conv1D[B] {
	fanIn := inChannels * kernelSize
	fanOut := outChannels * kernelSize
	weight := Xavier(fanIn, fanOut, tensor.Shape{outChannels, inChannels, kernelSize}, rng, backend)
	bias := Zeros(tensor.Shape{outChannels}, backend)
	return &Conv1D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
		backend:     backend,
	}
}

// Forward maps [batch, inChannels, width] to [batch, outChannels, outWidth].
func (c *Conv1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("Conv1D.Forward: expected 3-D input [batch, channels, width], got %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("Conv1D.Forward: expected %d input channels, got %d", c.inChannels, shape[1]))
	}

	raw := c.backend.Conv1D(input.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding)
	output := mustWrap(raw, c.backend)

	// Bias broadcasts over batch and width.
	bias := c.bias.Tensor().Reshape(tensor.Shape{1, c.outChannels, 1})
	return output.Add(bias)
}

// Parameters returns weight and bias.
func (c *Conv1D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}

// OutWidth returns the output width for a given input width.
func (c *Conv1D[B]) OutWidth(inputWidth int) int {
	return (inputWidth+2*c.padding-c.kernelSize)/c.stride + 1
}

// StateDict exports parameters by name.
func (c *Conv1D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": c.weight.Tensor().Raw(),
		"bias":   c.bias.Tensor().Raw(),
	}
}

// LoadStateDict copies parameter data from a state dictionary.
func (c *Conv1D[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(c.weight, state, "weight"); err != nil {
		return err
	}
	return loadParam(c.bias, state, "bias")
}
