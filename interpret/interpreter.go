// Package interpret computes feature attribution for trained FactorNet
// models. All four methods are built on the model's exact input
// gradients, so scores always match the input shape.
package interpret

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/factornet"
)

// DefaultIGSteps is the Riemann resolution used by Compute for
// integrated gradients.
const DefaultIGSteps = 50

// Result holds attribution scores for one method. Scores has one row
// per input row, one column per feature. Predictions are the model
// outputs for the same rows.
type Result struct {
	Method      Method
	Scores      [][]float32
	Predictions []float32
}

// Interpreter runs attribution methods against a trained model.
type Interpreter struct {
	model *factornet.FactorNet
}

// New creates an Interpreter for the given model. Training state is
// checked per call, so the interpreter may be created early.
func New(model *factornet.FactorNet) *Interpreter {
	return &Interpreter{model: model}
}

// Compute dispatches on the method tag. Integrated gradients use
// DefaultIGSteps; use IntegratedGradientsSteps for a custom resolution.
func (it *Interpreter) Compute(method Method, X [][]float32) (*Result, error) {
	switch method {
	case Gradients:
		return it.gradients(X, false)
	case Saliency:
		return it.gradients(X, true)
	case IntegratedGradients:
		return it.IntegratedGradientsSteps(X, DefaultIGSteps)
	case Contribution:
		return it.contribution(X)
	default:
		return nil, &factornet.ConfigError{Field: "method", Reason: fmt.Sprintf("unknown method tag %d", int(method))}
	}
}

// CompareMethods runs every attribution method on the same input.
func (it *Interpreter) CompareMethods(X [][]float32) (map[Method]*Result, error) {
	results := make(map[Method]*Result, len(Methods()))
	for _, method := range Methods() {
		r, err := it.Compute(method, X)
		if err != nil {
			return nil, err
		}
		results[method] = r
	}
	return results, nil
}

// gradients returns the raw input gradients, rectified to absolute
// values for saliency.
func (it *Interpreter) gradients(X [][]float32, absolute bool) (*Result, error) {
	grads, err := it.model.InputGradients(X)
	if err != nil {
		return nil, err
	}
	preds, err := it.model.Predict(X)
	if err != nil {
		return nil, err
	}

	method := Gradients
	if absolute {
		method = Saliency
		for _, row := range grads {
			for i, v := range row {
				if v < 0 {
					row[i] = -v
				}
			}
		}
	}
	return &Result{Method: method, Scores: grads, Predictions: preds}, nil
}

// contribution returns gradient times input.
func (it *Interpreter) contribution(X [][]float32) (*Result, error) {
	grads, err := it.model.InputGradients(X)
	if err != nil {
		return nil, err
	}
	preds, err := it.model.Predict(X)
	if err != nil {
		return nil, err
	}

	for r, row := range grads {
		for i := range row {
			row[i] *= X[r][i]
		}
	}
	return &Result{Method: Contribution, Scores: grads, Predictions: preds}, nil
}

// IntegratedGradientsSteps computes integrated gradients from a zero
// baseline with the given number of Riemann steps:
//
//	IG(x) = (x - x0) * (1/steps) * Σ_k grad(x0 + k/steps * (x - x0))
func (it *Interpreter) IntegratedGradientsSteps(X [][]float32, steps int) (*Result, error) {
	if steps < 1 {
		return nil, &factornet.ConfigError{Field: "steps", Reason: fmt.Sprintf("must be positive, got %d", steps)}
	}

	preds, err := it.model.Predict(X)
	if err != nil {
		return nil, err
	}

	nFeatures := len(X[0])
	accum := make([][]float32, len(X))
	for i := range accum {
		accum[i] = make([]float32, nFeatures)
	}

	scaled := make([][]float32, len(X))
	for i := range scaled {
		scaled[i] = make([]float32, nFeatures)
	}

	// Right-endpoint Riemann sum over the straight path from the zero
	// baseline to each input.
	for k := 1; k <= steps; k++ {
		alpha := float32(k) / float32(steps)
		for i, row := range X {
			for j, v := range row {
				scaled[i][j] = alpha * v
			}
		}
		grads, err := it.model.InputGradients(scaled)
		if err != nil {
			return nil, err
		}
		for i, row := range grads {
			for j, g := range row {
				accum[i][j] += g
			}
		}
	}

	inv := 1.0 / float32(steps)
	for i, row := range accum {
		for j := range row {
			row[j] *= inv * X[i][j]
		}
	}
	return &Result{Method: IntegratedGradients, Scores: accum, Predictions: preds}, nil
}
