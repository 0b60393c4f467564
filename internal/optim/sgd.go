package optim

import (
	"github.com/AzanPy/rna-seq-factornet/internal/nn"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum.
//
//	velocity = momentum * velocity + grad
//	param    = param - lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]][]float32
	backend    B
}

// SGDConfig configures SGD. A zero LR falls back to 0.01.
type SGDConfig struct {
	LR       float32
	Momentum float32
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]][]float32),
		backend:    backend,
	}
}

// Step applies one update. Parameters absent from the gradient map are
// skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad, ok := grads[param.Tensor().Raw()]
		if !ok {
			continue
		}
		data := param.Tensor().Data()
		gradData := grad.AsFloat32()

		if s.momentum == 0 {
			for i := range data {
				data[i] -= s.lr * gradData[i]
			}
			continue
		}

		velocity, ok := s.velocities[param]
		if !ok {
			velocity = make([]float32, len(data))
			s.velocities[param] = velocity
		}
		for i := range data {
			velocity[i] = s.momentum*velocity[i] + gradData[i]
			data[i] -= s.lr * velocity[i]
		}
	}
}

// ZeroGrad is a no-op for SGD; gradients live on the tape.
func (s *SGD[B]) ZeroGrad() {}

// GetLR returns the learning rate.
func (s *SGD[B]) GetLR() float32 { return s.lr }

// SetLR updates the learning rate, for schedules.
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }
