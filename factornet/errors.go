package factornet

import (
	"errors"
	"fmt"
)

// ErrNotTrained is returned by Predict and the attribution entry points
// before the model has completed a successful training run.
var ErrNotTrained = errors.New("factornet: model is not trained")

// ConfigError reports an invalid hyperparameter or harness setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("factornet: invalid config %s: %s", e.Field, e.Reason)
}

// DataError reports malformed user data: ragged matrices, length
// mismatches or empty inputs.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "factornet: invalid data: " + e.Reason
}
