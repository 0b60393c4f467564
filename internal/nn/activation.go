package nn

import (
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Activation backends. The plain CPU backend is arithmetic-only; the
// autodiff decorator supplies these so activations are recorded on the
// tape.
type reluBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
}

type sigmoidBackend interface {
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
}

type tanhBackend interface {
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
}

// ReLU is the rectified linear activation module.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU module.
func NewReLU[B tensor.Backend]() *ReLU[B] { return &ReLU[B]{} }

func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return applyReLU(input)
}

func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// Sigmoid is the logistic activation module.
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a Sigmoid module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return &Sigmoid[B]{} }

func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return applySigmoid(input)
}

func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// Tanh is the hyperbolic tangent activation module.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh module.
func NewTanh[B tensor.Backend]() *Tanh[B] { return &Tanh[B]{} }

func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return applyTanh(input)
}

func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

func applyReLU[B tensor.Backend](input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	rb, ok := any(backend).(reluBackend)
	if !ok {
		panic("backend does not implement ReLU")
	}
	return mustWrap(rb.ReLU(input.Raw()), backend)
}

func applySigmoid[B tensor.Backend](input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	sb, ok := any(backend).(sigmoidBackend)
	if !ok {
		panic("backend does not implement Sigmoid")
	}
	return mustWrap(sb.Sigmoid(input.Raw()), backend)
}

func applyTanh[B tensor.Backend](input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	tb, ok := any(backend).(tanhBackend)
	if !ok {
		panic("backend does not implement Tanh")
	}
	return mustWrap(tb.Tanh(input.Raw()), backend)
}

func mustWrap[B tensor.Backend](raw *tensor.RawTensor, backend B) *tensor.Tensor[float32, B] {
	t, err := tensor.New[float32](raw, backend)
	if err != nil {
		panic(err)
	}
	return t
}
