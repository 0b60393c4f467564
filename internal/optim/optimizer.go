// Package optim implements gradient-descent optimizers over nn
// parameters. Optimizers consume the gradient map produced by the
// autodiff tape and update parameter buffers in place.
package optim

import (
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Optimizer updates parameters from a tape gradient map.
type Optimizer interface {
	// Step applies one update using the gradients keyed by parameter
	// raw tensor. Parameters without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears internal per-step state where applicable.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}
