package factornet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzanPy/rna-seq-factornet/factornet"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "conv_filters: 16\nlstm_units: 8\nseed: 7\n")

	cfg, err := factornet.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.ConvFilters)
	assert.Equal(t, 8, cfg.LSTMUnits)
	assert.Equal(t, int64(7), cfg.Seed)

	// Absent fields keep their defaults.
	def := factornet.DefaultConfig()
	assert.Equal(t, def.ConvKernelSize, cfg.ConvKernelSize)
	assert.Equal(t, def.DenseUnits, cfg.DenseUnits)
	assert.Equal(t, def.DropoutRate, cfg.DropoutRate)
	assert.Equal(t, def.LearningRate, cfg.LearningRate)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := writeConfig(t, "dropout_rate: 1.5\n")

	_, err := factornet.LoadConfig(path)
	var cfgErr *factornet.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "dropout_rate", cfgErr.Field)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := factornet.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, factornet.DefaultConfig().Validate())
}

func TestValidateRanges(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*factornet.Config)
	}{
		{"conv_filters", func(c *factornet.Config) { c.ConvFilters = -1 }},
		{"conv_kernel_size", func(c *factornet.Config) { c.ConvKernelSize = 0 }},
		{"lstm_units", func(c *factornet.Config) { c.LSTMUnits = 0 }},
		{"dense_units", func(c *factornet.Config) { c.DenseUnits = 0 }},
		{"dropout_rate", func(c *factornet.Config) { c.DropoutRate = 1 }},
		{"learning_rate", func(c *factornet.Config) { c.LearningRate = 0 }},
	}
	for _, tc := range cases {
		cfg := factornet.DefaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		var cfgErr *factornet.ConfigError
		require.ErrorAs(t, err, &cfgErr, tc.field)
		assert.Equal(t, tc.field, cfgErr.Field)
	}
}
