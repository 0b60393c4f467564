package nn

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// MSELoss computes mean squared error. The whole computation, mean
// included, goes through backend ops so the backward pass sees it.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates an MSE loss module.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward returns mean((pred - target)²) as a single-element tensor.
func (m *MSELoss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("MSELoss: shape mismatch: %v vs %v", pred.Shape(), target.Shape()))
	}
	diff := pred.Sub(target)
	return diff.Mul(diff).Mean()
}
