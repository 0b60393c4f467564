package factornet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the FactorNet hyperparameters. Every entry point takes
// an explicit Config; there is no package-level state.
type Config struct {
	ConvFilters    int     `yaml:"conv_filters"`
	ConvKernelSize int     `yaml:"conv_kernel_size"`
	LSTMUnits      int     `yaml:"lstm_units"`
	DenseUnits     int     `yaml:"dense_units"`
	DropoutRate    float32 `yaml:"dropout_rate"`
	LearningRate   float32 `yaml:"learning_rate"`
	Seed           int64   `yaml:"seed"`
}

// DefaultConfig returns the standard hyperparameters.
func DefaultConfig() Config {
	return Config{
		ConvFilters:    32,
		ConvKernelSize: 3,
		LSTMUnits:      32,
		DenseUnits:     64,
		DropoutRate:    0.3,
		LearningRate:   0.001,
		Seed:           42,
	}
}

// LoadConfig reads a YAML config file. Absent fields keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks each hyperparameter range.
func (c Config) Validate() error {
	if c.ConvFilters < 1 {
		return &ConfigError{Field: "conv_filters", Reason: fmt.Sprintf("must be positive, got %d", c.ConvFilters)}
	}
	if c.ConvKernelSize < 1 {
		return &ConfigError{Field: "conv_kernel_size", Reason: fmt.Sprintf("must be positive, got %d", c.ConvKernelSize)}
	}
	if c.LSTMUnits < 1 {
		return &ConfigError{Field: "lstm_units", Reason: fmt.Sprintf("must be positive, got %d", c.LSTMUnits)}
	}
	if c.DenseUnits < 1 {
		return &ConfigError{Field: "dense_units", Reason: fmt.Sprintf("must be positive, got %d", c.DenseUnits)}
	}
	if c.DropoutRate < 0 || c.DropoutRate >= 1 {
		return &ConfigError{Field: "dropout_rate", Reason: fmt.Sprintf("must be in [0, 1), got %v", c.DropoutRate)}
	}
	if c.LearningRate <= 0 {
		return &ConfigError{Field: "learning_rate", Reason: fmt.Sprintf("must be positive, got %v", c.LearningRate)}
	}
	return nil
}
