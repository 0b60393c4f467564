package factornet_test

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzanPy/rna-seq-factornet/factornet"
)

func testConfig() factornet.Config {
	cfg := factornet.DefaultConfig()
	cfg.ConvFilters = 8
	cfg.LSTMUnits = 8
	cfg.DenseUnits = 16
	cfg.DropoutRate = 0
	cfg.LearningRate = 0.01
	return cfg
}

// meanDataset builds nGenes rows of nSamples uniform values with the
// row mean as target.
func meanDataset(nGenes, nSamples int, seed int64) ([][]float32, []float32) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float32, nGenes)
	y := make([]float32, nGenes)
	for i := range X {
		row := make([]float32, nSamples)
		var sum float32
		for j := range row {
			row[j] = rng.Float32()
			sum += row[j]
		}
		X[i] = row
		y[i] = sum / float32(nSamples)
	}
	return X, y
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ConvFilters = 0
	_, err := factornet.New(10, cfg)

	var cfgErr *factornet.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "conv_filters", cfgErr.Field)
}

func TestNewRejectsBadFeatureCount(t *testing.T) {
	_, err := factornet.New(0, testConfig())
	var cfgErr *factornet.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "n_features", cfgErr.Field)
}

func TestNewRejectsOversizedKernel(t *testing.T) {
	cfg := testConfig()
	cfg.ConvKernelSize = 9
	_, err := factornet.New(2, cfg)
	var cfgErr *factornet.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "conv_kernel_size", cfgErr.Field)

	// A kernel exactly one wider than the features is still too big.
	cfg.ConvKernelSize = 3
	_, err = factornet.New(2, cfg)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "conv_kernel_size", cfgErr.Field)

	// A kernel spanning all features fits.
	_, err = factornet.New(3, cfg)
	require.NoError(t, err)
}

func TestUntrainedModelErrors(t *testing.T) {
	m, err := factornet.New(5, testConfig())
	require.NoError(t, err)
	require.False(t, m.IsTrained())

	X := [][]float32{{1, 2, 3, 4, 5}}

	_, err = m.Predict(X)
	assert.ErrorIs(t, err, factornet.ErrNotTrained)

	_, err = m.InputGradients(X)
	assert.ErrorIs(t, err, factornet.ErrNotTrained)

	err = m.Save(filepath.Join(t.TempDir(), "m.fnet"))
	assert.ErrorIs(t, err, factornet.ErrNotTrained)
}

func TestTrainValidatesData(t *testing.T) {
	m, err := factornet.New(3, testConfig())
	require.NoError(t, err)

	var dataErr *factornet.DataError

	_, err = m.Train([][]float32{{1, 2, 3}, {1, 2}}, []float32{1, 2}, 1, 2)
	require.ErrorAs(t, err, &dataErr)

	_, err = m.Train([][]float32{{1, 2, 3}}, []float32{1, 2}, 1, 2)
	require.ErrorAs(t, err, &dataErr)

	_, err = m.Train(nil, nil, 1, 2)
	require.ErrorAs(t, err, &dataErr)

	var cfgErr *factornet.ConfigError
	_, err = m.Train([][]float32{{1, 2, 3}}, []float32{1}, 0, 2)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "epochs", cfgErr.Field)

	_, err = m.Train([][]float32{{1, 2, 3}}, []float32{1}, 1, 0)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "batch_size", cfgErr.Field)
}

func TestTrainRejectsNonFiniteValues(t *testing.T) {
	m, err := factornet.New(3, testConfig())
	require.NoError(t, err)

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	var dataErr *factornet.DataError

	_, err = m.Train([][]float32{{1, nan, 3}}, []float32{1}, 1, 1)
	require.ErrorAs(t, err, &dataErr)

	_, err = m.Train([][]float32{{1, 2, inf}}, []float32{1}, 1, 1)
	require.ErrorAs(t, err, &dataErr)

	_, err = m.Train([][]float32{{1, 2, 3}}, []float32{nan}, 1, 1)
	require.ErrorAs(t, err, &dataErr)

	X := [][]float32{{1, 2, 3}, {4, 5, 6}}
	_, err = m.TrainWithCV(X, []float32{1, inf}, 2, 1, 1)
	require.ErrorAs(t, err, &dataErr)

	require.False(t, m.IsTrained())
}

func TestTrainThenPredict(t *testing.T) {
	X, y := meanDataset(16, 6, 1)

	m, err := factornet.New(6, testConfig())
	require.NoError(t, err)

	loss, err := m.Train(X, y, 5, 4)
	require.NoError(t, err)
	require.True(t, m.IsTrained())
	assert.False(t, math.IsNaN(float64(loss)))
	assert.GreaterOrEqual(t, loss, float32(0))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	require.Len(t, preds, 16)
	for _, p := range preds {
		assert.False(t, math.IsNaN(float64(p)))
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	X, y := meanDataset(8, 5, 2)

	m, err := factornet.New(5, testConfig())
	require.NoError(t, err)
	_, err = m.Train(X, y, 3, 4)
	require.NoError(t, err)

	first, err := m.Predict(X)
	require.NoError(t, err)
	second, err := m.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestKFoldPartition(t *testing.T) {
	folds, err := factornet.KFold(10, 3, 42)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	seen := make(map[int]int)
	for _, fold := range folds {
		assert.Len(t, fold.TrainIdx, 10-len(fold.TestIdx))
		for _, idx := range fold.TestIdx {
			seen[idx]++
		}
	}
	require.Len(t, seen, 10)
	for idx, count := range seen {
		assert.Equalf(t, 1, count, "index %d in %d test folds", idx, count)
	}
}

func TestKFoldSeedReproducible(t *testing.T) {
	a, err := factornet.KFold(20, 5, 7)
	require.NoError(t, err)
	b, err := factornet.KFold(20, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := factornet.KFold(20, 5, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestKFoldRejectsBadK(t *testing.T) {
	var cfgErr *factornet.ConfigError

	_, err := factornet.KFold(5, 10, 42)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "k_folds", cfgErr.Field)

	_, err = factornet.KFold(5, 1, 42)
	require.ErrorAs(t, err, &cfgErr)
}

func TestRSquared(t *testing.T) {
	yTrue := []float32{1, 2, 3, 4}

	assert.InDelta(t, 1.0, float64(factornet.RSquared(yTrue, []float32{1, 2, 3, 4})), 1e-6)

	// Predicting the mean explains nothing.
	assert.InDelta(t, 0.0, float64(factornet.RSquared(yTrue, []float32{2.5, 2.5, 2.5, 2.5})), 1e-6)

	// Constant targets have no variance to explain.
	assert.Equal(t, float32(0), factornet.RSquared([]float32{3, 3, 3}, []float32{1, 2, 3}))

	// Worse than the mean goes negative.
	assert.Less(t, factornet.RSquared(yTrue, []float32{4, 3, 2, 1}), float32(0))
}

func TestTrainWithCVMeanDataset(t *testing.T) {
	if testing.Short() {
		t.Skip("full cross-validation run")
	}
	X, y := meanDataset(20, 10, 42)

	m, err := factornet.New(10, testConfig())
	require.NoError(t, err)

	result, err := m.TrainWithCV(X, y, 5, 50, 4)
	require.NoError(t, err)
	require.Len(t, result.FoldR2, 5)
	assert.Greater(t, result.MeanR2, float32(0.5))
	assert.GreaterOrEqual(t, result.StdR2, float32(0))
	assert.True(t, m.IsTrained())
}

func TestTrainWithCVRejectsTooManyFolds(t *testing.T) {
	X, y := meanDataset(5, 4, 1)

	m, err := factornet.New(4, testConfig())
	require.NoError(t, err)

	var cfgErr *factornet.ConfigError
	_, err = m.TrainWithCV(X, y, 10, 1, 2)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "k_folds", cfgErr.Field)
}

func TestInputGradientsShape(t *testing.T) {
	X, y := meanDataset(6, 7, 3)

	m, err := factornet.New(7, testConfig())
	require.NoError(t, err)
	_, err = m.Train(X, y, 3, 3)
	require.NoError(t, err)

	grads, err := m.InputGradients(X[:4])
	require.NoError(t, err)
	require.Len(t, grads, 4)
	for _, row := range grads {
		require.Len(t, row, 7)
	}
}

func TestInputGradientsRowIndependence(t *testing.T) {
	X, y := meanDataset(6, 5, 4)

	m, err := factornet.New(5, testConfig())
	require.NoError(t, err)
	_, err = m.Train(X, y, 3, 3)
	require.NoError(t, err)

	batched, err := m.InputGradients(X[:3])
	require.NoError(t, err)
	single, err := m.InputGradients(X[1:2])
	require.NoError(t, err)

	for j := range single[0] {
		assert.InDelta(t, float64(single[0][j]), float64(batched[1][j]), 1e-5)
	}
}

func TestStateDictRoundTrip(t *testing.T) {
	X, y := meanDataset(8, 6, 5)

	src, err := factornet.New(6, testConfig())
	require.NoError(t, err)
	_, err = src.Train(X, y, 3, 4)
	require.NoError(t, err)

	dst, err := factornet.New(6, testConfig())
	require.NoError(t, err)
	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.True(t, dst.IsTrained())

	want, err := src.Predict(X)
	require.NoError(t, err)
	got, err := dst.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadStateDictRejectsMissingKey(t *testing.T) {
	m, err := factornet.New(6, testConfig())
	require.NoError(t, err)

	state := m.StateDict()
	delete(state, "head.weight")

	var dataErr *factornet.DataError
	require.ErrorAs(t, m.LoadStateDict(state), &dataErr)
}

func TestSaveLoadCheckpoint(t *testing.T) {
	X, y := meanDataset(8, 6, 6)
	path := filepath.Join(t.TempDir(), "model.fnet")

	src, err := factornet.New(6, testConfig())
	require.NoError(t, err)
	_, err = src.Train(X, y, 3, 4)
	require.NoError(t, err)
	require.NoError(t, src.Save(path))

	loaded, err := factornet.Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.IsTrained())
	assert.Equal(t, 6, loaded.NumFeatures())
	assert.Equal(t, src.Config(), loaded.Config())

	want, err := src.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
