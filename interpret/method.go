package interpret

import (
	"fmt"

	"github.com/AzanPy/rna-seq-factornet/factornet"
)

// Method tags an attribution method. The tagged enum replaces
// stringly-typed dispatch; ParseMethod exists for CLI and config input.
type Method int

const (
	// Gradients is the raw signed input gradient d(prediction)/d(input).
	Gradients Method = iota
	// Saliency is the absolute input gradient.
	Saliency
	// IntegratedGradients accumulates gradients along the straight path
	// from a zero baseline to the input.
	IntegratedGradients
	// Contribution is gradient times input, a first-order score of each
	// feature's share of the prediction.
	Contribution
)

// Methods lists all attribution methods in a stable order.
func Methods() []Method {
	return []Method{Gradients, Saliency, IntegratedGradients, Contribution}
}

func (m Method) String() string {
	switch m {
	case Gradients:
		return "gradients"
	case Saliency:
		return "saliency"
	case IntegratedGradients:
		return "integrated_gradients"
	case Contribution:
		return "contribution"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a method name to its tag. The historical name
// "bpnet" is accepted for Contribution.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "gradients":
		return Gradients, nil
	case "saliency":
		return Saliency, nil
	case "integrated_gradients":
		return IntegratedGradients, nil
	case "contribution", "bpnet":
		return Contribution, nil
	default:
		return 0, &factornet.ConfigError{Field: "method", Reason: fmt.Sprintf("unknown method %q", s)}
	}
}
