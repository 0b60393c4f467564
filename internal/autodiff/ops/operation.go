// Package ops implements the differentiable operations recorded on the
// gradient tape. Forward results are produced by the backend; each op
// only knows how to push an output gradient back to its inputs.
package ops

import "github.com/AzanPy/rna-seq-factornet/internal/tensor"

// Operation is one recorded node of the computation graph.
type Operation interface {
	// Backward maps the output gradient to one gradient per input, in
	// input order.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the tensors the forward pass consumed.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor the forward pass produced.
	Output() *tensor.RawTensor
}

// MultiOutputOperation is an Operation with several outputs (Chunk).
// The tape gathers gradients for every output before calling
// BackwardMulti.
type MultiOutputOperation interface {
	Operation

	Outputs() []*tensor.RawTensor
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
