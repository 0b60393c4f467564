// Package nn implements the neural network building blocks used by the
// FactorNet model: Linear, Conv1D, LSTM, Dropout, activations and the
// MSE loss. Modules are generic over the compute backend.
package nn

import (
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Module is the base interface for all network components.
type Module[B tensor.Backend] interface {
	// Forward computes the module output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the trainable parameters, nested modules
	// included. Parameter-free modules return an empty slice.
	Parameters() []*Parameter[B]
}
