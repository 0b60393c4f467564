package autodiff

import (
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// BackwardCapable is a backend that owns a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	Tape() *GradientTape
}

// Backward seeds the given output with a gradient of ones and runs the
// tape backward. The usual entry point after computing a scalar loss.
func Backward[T tensor.DType, B BackwardCapable](output *tensor.Tensor[T, B]) map[*tensor.RawTensor]*tensor.RawTensor {
	backend := output.Backend()
	ones := tensor.Ones[T](output.Shape(), backend)
	return backend.Tape().Backward(ones.Raw(), backend)
}
