package nn

import (
	"fmt"
	"math/rand"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Dropout zeroes a random fraction of activations during training,
// scaling survivors by 1/(1-p) so the expected activation is unchanged.
// In evaluation mode it is the identity.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
	rng      *rand.Rand
	backend  B
}

// NewDropout creates a Dropout module. Rate must be in [0, 1).
func NewDropout[B tensor.Backend](p float32, rng *rand.Rand, backend B) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: rate %v out of range [0, 1)", p))
	}
	return &Dropout[B]{p: p, rng: rng, backend: backend}
}

// SetTraining switches between training and evaluation behavior.
func (d *Dropout[B]) SetTraining(training bool) { d.training = training }

// Forward applies the mask in training mode, identity otherwise.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	// Mask values are pre-scaled so no separate rescale op is needed.
	mask := tensor.Zeros[float32](input.Shape(), d.backend)
	keep := 1.0 / (1.0 - d.p)
	data := mask.Data()
	for i := range data {
		if d.rng.Float32() >= d.p {
			data[i] = keep
		}
	}
	return input.Mul(mask)
}

// Parameters returns nil; dropout is parameter-free.
func (d *Dropout[B]) Parameters() []*Parameter[B] { return nil }
