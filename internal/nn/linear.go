package nn

import (
	"fmt"
	"math/rand"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ Wᵀ + b.
// Weights are [outFeatures, inFeatures] with Xavier initialization,
// biases start at zero.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewLinear creates a Linear layer with seeded initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng, backend)
	bias := Zeros(tensor.Shape{outFeatures}, backend)
	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
		backend:     backend,
	}
}

// Forward maps [batch, inFeatures] to [batch, outFeatures].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2-D input [batch, features], got %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected %d input features, got %d", l.inFeatures, shape[1]))
	}

	output := input.MatMul(l.weight.Tensor().T())
	bias := l.bias.Tensor().Reshape(tensor.Shape{1, l.outFeatures})
	return output.Add(bias)
}

// Parameters returns weight and bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// StateDict exports parameters by name.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict copies parameter data from a state dictionary.
func (l *Linear[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(l.weight, state, "weight"); err != nil {
		return err
	}
	return loadParam(l.bias, state, "bias")
}

// loadParam copies one named tensor into a parameter, checking shape
// and dtype.
func loadParam[B tensor.Backend](p *Parameter[B], state map[string]*tensor.RawTensor, key string) error {
	raw, ok := state[key]
	if !ok {
		return fmt.Errorf("missing %q in state dict", key)
	}
	if !raw.Shape().Equal(p.Tensor().Shape()) {
		return fmt.Errorf("%q shape mismatch: expected %v, got %v", key, p.Tensor().Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%q dtype mismatch: expected float32, got %s", key, raw.DType())
	}
	copy(p.Tensor().Data(), raw.AsFloat32())
	return nil
}
