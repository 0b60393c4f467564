// Package factornet implements a hybrid convolutional-recurrent
// regression model for tabular gene-expression data, with a k-fold
// cross-validation harness and checkpointing.
package factornet

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/AzanPy/rna-seq-factornet/internal/autodiff"
	"github.com/AzanPy/rna-seq-factornet/internal/backend/cpu"
	"github.com/AzanPy/rna-seq-factornet/internal/nn"
	"github.com/AzanPy/rna-seq-factornet/internal/optim"
	"github.com/AzanPy/rna-seq-factornet/internal/serialization"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// backend is the compute stack the model runs on: tape autodiff over
// the CPU backend. The tape is what makes input-gradient attribution
// possible.
type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// FactorNet is the regression model: Conv1D over the feature axis,
// an LSTM over the convolved sequence, then a dense head with dropout.
// Each gene is one sample; its expression values across conditions are
// the features.
type FactorNet struct {
	cfg       Config
	nFeatures int
	backend   backend
	rng       *rand.Rand

	conv    *nn.Conv1D[backend]
	lstm    *nn.LSTM[backend]
	dense   *nn.Linear[backend]
	dropout *nn.Dropout[backend]
	head    *nn.Linear[backend]
	relu    *nn.ReLU[backend]
	loss    *nn.MSELoss[backend]

	trained bool
}

// New builds an untrained FactorNet for inputs with nFeatures columns.
func New(nFeatures int, cfg Config) (*FactorNet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if nFeatures < 1 {
		return nil, &ConfigError{Field: "n_features", Reason: fmt.Sprintf("must be positive, got %d", nFeatures)}
	}
	if cfg.ConvKernelSize > nFeatures {
		return nil, &ConfigError{
			Field:  "conv_kernel_size",
			Reason: fmt.Sprintf("kernel %d does not fit %d features", cfg.ConvKernelSize, nFeatures),
		}
	}
	padding := (cfg.ConvKernelSize - 1) / 2

	b := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &FactorNet{
		cfg:       cfg,
		nFeatures: nFeatures,
		backend:   b,
		rng:       rng,
		conv:      nn.NewConv1D(1, cfg.ConvFilters, cfg.ConvKernelSize, 1, padding, rng, b),
		lstm:      nn.NewLSTM(cfg.ConvFilters, cfg.LSTMUnits, rng, b),
		dense:     nn.NewLinear(cfg.LSTMUnits, cfg.DenseUnits, rng, b),
		dropout:   nn.NewDropout[backend](cfg.DropoutRate, rng, b),
		head:      nn.NewLinear(cfg.DenseUnits, 1, rng, b),
		relu:      nn.NewReLU[backend](),
		loss:      nn.NewMSELoss[backend](),
	}
	return m, nil
}

// Config returns the hyperparameters the model was built with.
func (m *FactorNet) Config() Config { return m.cfg }

// NumFeatures returns the expected input width.
func (m *FactorNet) NumFeatures() int { return m.nFeatures }

// forward runs the network on a [batch, nFeatures] tensor and returns
// [batch, 1] predictions.
func (m *FactorNet) forward(x *tensor.Tensor[float32, backend]) *tensor.Tensor[float32, backend] {
	batch := x.Shape()[0]

	// One channel per sample; the feature axis is the sequence.
	seq := x.Reshape(tensor.Shape{batch, 1, m.nFeatures})
	conv := m.relu.Forward(m.conv.Forward(seq))

	// [batch, filters, width] -> [batch, width, filters] for the LSTM.
	recurrent := m.lstm.Forward(conv.Transpose([]int{0, 2, 1}))

	hidden := m.relu.Forward(m.dense.Forward(recurrent))
	hidden = m.dropout.Forward(hidden)
	return m.head.Forward(hidden)
}

// Predict returns one prediction per input row. The model must be
// trained first.
func (m *FactorNet) Predict(X [][]float32) ([]float32, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}
	xT, err := m.inputTensor(X)
	if err != nil {
		return nil, err
	}

	m.dropout.SetTraining(false)
	out := m.forward(xT)

	preds := make([]float32, len(X))
	copy(preds, out.Data())
	return preds, nil
}

// Train fits the model with Adam on MSE loss and returns the mean loss
// of the final epoch.
func (m *FactorNet) Train(X [][]float32, y []float32, epochs, batchSize int) (float32, error) {
	if epochs < 1 {
		return 0, &ConfigError{Field: "epochs", Reason: fmt.Sprintf("must be positive, got %d", epochs)}
	}
	if batchSize < 1 {
		return 0, &ConfigError{Field: "batch_size", Reason: fmt.Sprintf("must be positive, got %d", batchSize)}
	}
	if _, err := m.validateMatrix(X); err != nil {
		return 0, err
	}
	if len(y) != len(X) {
		return 0, &DataError{Reason: fmt.Sprintf("%d rows but %d targets", len(X), len(y))}
	}
	if err := validateTargets(y); err != nil {
		return 0, err
	}

	params := m.parameters()
	optimizer := optim.NewAdam(params, optim.AdamConfig{LR: m.cfg.LearningRate}, m.backend)

	tape := m.backend.Tape()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	m.dropout.SetTraining(true)
	defer m.dropout.SetTraining(false)

	n := len(X)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	var finalLoss float32
	for epoch := 0; epoch < epochs; epoch++ {
		m.rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		var epochLoss float64
		batches := 0
		for start := 0; start < n; start += batchSize {
			end := start + batchSize
			if end > n {
				end = n
			}
			batchIdx := indices[start:end]

			tape.Clear()
			xT, yT := m.batchTensors(X, y, batchIdx)

			pred := m.forward(xT)
			lossT := m.loss.Forward(pred, yT)

			grads := autodiff.Backward(lossT)
			optimizer.Step(grads)

			epochLoss += float64(lossT.Item())
			batches++
		}
		finalLoss = float32(epochLoss / float64(batches))
	}

	m.trained = true
	return finalLoss, nil
}

// TrainWithCV runs k-fold cross-validation with fresh parameters per
// fold, then refits this model on the full dataset so predictions and
// attribution reflect all of it.
func (m *FactorNet) TrainWithCV(X [][]float32, y []float32, kFolds, epochs, batchSize int) (*CVResult, error) {
	if _, err := m.validateMatrix(X); err != nil {
		return nil, err
	}
	if len(y) != len(X) {
		return nil, &DataError{Reason: fmt.Sprintf("%d rows but %d targets", len(X), len(y))}
	}
	if err := validateTargets(y); err != nil {
		return nil, err
	}

	folds, err := KFold(len(X), kFolds, m.cfg.Seed)
	if err != nil {
		return nil, err
	}

	foldR2 := make([]float32, 0, kFolds)
	for f, fold := range folds {
		fresh, err := New(m.nFeatures, m.cfg)
		if err != nil {
			return nil, err
		}

		trainX, trainY := subset(X, y, fold.TrainIdx)
		testX, testY := subset(X, y, fold.TestIdx)

		if _, err := fresh.Train(trainX, trainY, epochs, batchSize); err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		preds, err := fresh.Predict(testX)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		foldR2 = append(foldR2, RSquared(testY, preds))
	}

	if _, err := m.Train(X, y, epochs, batchSize); err != nil {
		return nil, err
	}
	return newCVResult(foldR2), nil
}

// InputGradients computes d(prediction)/d(input) per row, the primitive
// the interpret package builds every attribution method on. Parameters
// are left untouched; dropout is off.
func (m *FactorNet) InputGradients(X [][]float32) ([][]float32, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}
	xT, err := m.inputTensor(X)
	if err != nil {
		return nil, err
	}

	tape := m.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	m.dropout.SetTraining(false)
	out := m.forward(xT)

	// Rows are independent, so seeding every output with 1 recovers
	// each row's own gradient.
	grads := autodiff.Backward(out)
	inputGrad, ok := grads[xT.Raw()]
	if !ok {
		return nil, fmt.Errorf("factornet: no gradient reached the input")
	}

	flat := inputGrad.AsFloat32()
	result := make([][]float32, len(X))
	for i := range result {
		row := make([]float32, m.nFeatures)
		copy(row, flat[i*m.nFeatures:(i+1)*m.nFeatures])
		result[i] = row
	}
	return result, nil
}

// IsTrained reports whether a training run has completed.
func (m *FactorNet) IsTrained() bool { return m.trained }

// StateDict exports all parameters with layer-qualified names.
func (m *FactorNet) StateDict() map[string][]float32 {
	state := make(map[string][]float32)
	for prefix, layer := range m.layerStates() {
		for name, raw := range layer {
			data := raw.AsFloat32()
			state[prefix+"."+name] = append([]float32(nil), data...)
		}
	}
	return state
}

// LoadStateDict restores parameters exported by StateDict. The model
// counts as trained afterwards.
func (m *FactorNet) LoadStateDict(state map[string][]float32) error {
	for prefix, layer := range m.layerStates() {
		for name, raw := range layer {
			key := prefix + "." + name
			values, ok := state[key]
			if !ok {
				return &DataError{Reason: fmt.Sprintf("state dict is missing %q", key)}
			}
			dst := raw.AsFloat32()
			if len(values) != len(dst) {
				return &DataError{Reason: fmt.Sprintf("%q has %d values, expected %d", key, len(values), len(dst))}
			}
			copy(dst, values)
		}
	}
	m.trained = true
	return nil
}

// Save writes the model parameters and hyperparameters to a checkpoint
// file.
func (m *FactorNet) Save(path string) error {
	if !m.trained {
		return ErrNotTrained
	}
	state := make(map[string]*tensor.RawTensor)
	for prefix, layer := range m.layerStates() {
		for name, raw := range layer {
			state[prefix+"."+name] = raw
		}
	}
	return serialization.Save(path, "FactorNet", state, m.metadata())
}

// Load reads a checkpoint written by Save and reconstructs the model.
func Load(path string) (*FactorNet, error) {
	header, tensors, err := serialization.Load(path)
	if err != nil {
		return nil, err
	}
	cfg, nFeatures, err := configFromMetadata(header.Metadata)
	if err != nil {
		return nil, err
	}
	m, err := New(nFeatures, cfg)
	if err != nil {
		return nil, err
	}

	state := make(map[string][]float32, len(tensors))
	for name, raw := range tensors {
		state[name] = raw.AsFloat32()
	}
	if err := m.LoadStateDict(state); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *FactorNet) metadata() map[string]string {
	return map[string]string{
		"n_features":       strconv.Itoa(m.nFeatures),
		"conv_filters":     strconv.Itoa(m.cfg.ConvFilters),
		"conv_kernel_size": strconv.Itoa(m.cfg.ConvKernelSize),
		"lstm_units":       strconv.Itoa(m.cfg.LSTMUnits),
		"dense_units":      strconv.Itoa(m.cfg.DenseUnits),
		"dropout_rate":     strconv.FormatFloat(float64(m.cfg.DropoutRate), 'g', -1, 32),
		"learning_rate":    strconv.FormatFloat(float64(m.cfg.LearningRate), 'g', -1, 32),
		"seed":             strconv.FormatInt(m.cfg.Seed, 10),
	}
}

func configFromMetadata(meta map[string]string) (Config, int, error) {
	cfg := DefaultConfig()
	intField := func(key string, dst *int) error {
		s, ok := meta[key]
		if !ok {
			return &DataError{Reason: fmt.Sprintf("checkpoint is missing %q", key)}
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return &DataError{Reason: fmt.Sprintf("checkpoint field %q: %v", key, err)}
		}
		*dst = v
		return nil
	}

	var nFeatures int
	if err := intField("n_features", &nFeatures); err != nil {
		return cfg, 0, err
	}
	if err := intField("conv_filters", &cfg.ConvFilters); err != nil {
		return cfg, 0, err
	}
	if err := intField("conv_kernel_size", &cfg.ConvKernelSize); err != nil {
		return cfg, 0, err
	}
	if err := intField("lstm_units", &cfg.LSTMUnits); err != nil {
		return cfg, 0, err
	}
	if err := intField("dense_units", &cfg.DenseUnits); err != nil {
		return cfg, 0, err
	}
	if s, ok := meta["dropout_rate"]; ok {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return cfg, 0, &DataError{Reason: fmt.Sprintf("checkpoint field dropout_rate: %v", err)}
		}
		cfg.DropoutRate = float32(v)
	}
	if s, ok := meta["learning_rate"]; ok {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return cfg, 0, &DataError{Reason: fmt.Sprintf("checkpoint field learning_rate: %v", err)}
		}
		cfg.LearningRate = float32(v)
	}
	if s, ok := meta["seed"]; ok {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return cfg, 0, &DataError{Reason: fmt.Sprintf("checkpoint field seed: %v", err)}
		}
		cfg.Seed = v
	}
	return cfg, nFeatures, nil
}

func (m *FactorNet) layerStates() map[string]map[string]*tensor.RawTensor {
	return map[string]map[string]*tensor.RawTensor{
		"conv":  m.conv.StateDict(),
		"lstm":  m.lstm.StateDict(),
		"dense": m.dense.StateDict(),
		"head":  m.head.StateDict(),
	}
}

func (m *FactorNet) parameters() []*nn.Parameter[backend] {
	var params []*nn.Parameter[backend]
	params = append(params, m.conv.Parameters()...)
	params = append(params, m.lstm.Parameters()...)
	params = append(params, m.dense.Parameters()...)
	params = append(params, m.head.Parameters()...)
	return params
}

// validateMatrix checks for empty or ragged input, width mismatch and
// non-finite values.
func (m *FactorNet) validateMatrix(X [][]float32) (int, error) {
	if len(X) == 0 {
		return 0, &DataError{Reason: "empty input matrix"}
	}
	for i, row := range X {
		if len(row) != m.nFeatures {
			return 0, &DataError{
				Reason: fmt.Sprintf("row %d has %d features, expected %d", i, len(row), m.nFeatures),
			}
		}
		for j, v := range row {
			if !isFinite(v) {
				return 0, &DataError{
					Reason: fmt.Sprintf("row %d column %d is not finite: %v", i, j, v),
				}
			}
		}
	}
	return len(X), nil
}

// validateTargets checks the target vector for non-finite values.
func validateTargets(y []float32) error {
	for i, v := range y {
		if !isFinite(v) {
			return &DataError{Reason: fmt.Sprintf("target %d is not finite: %v", i, v)}
		}
	}
	return nil
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// inputTensor flattens rows into a [batch, nFeatures] tensor.
func (m *FactorNet) inputTensor(X [][]float32) (*tensor.Tensor[float32, backend], error) {
	if _, err := m.validateMatrix(X); err != nil {
		return nil, err
	}
	flat := make([]float32, 0, len(X)*m.nFeatures)
	for _, row := range X {
		flat = append(flat, row...)
	}
	t, err := tensor.FromSlice(flat, tensor.Shape{len(X), m.nFeatures}, m.backend)
	if err != nil {
		return nil, &DataError{Reason: err.Error()}
	}
	return t, nil
}

// batchTensors gathers the indexed rows into input and target tensors.
func (m *FactorNet) batchTensors(X [][]float32, y []float32, idx []int) (*tensor.Tensor[float32, backend], *tensor.Tensor[float32, backend]) {
	flat := make([]float32, 0, len(idx)*m.nFeatures)
	targets := make([]float32, 0, len(idx))
	for _, i := range idx {
		flat = append(flat, X[i]...)
		targets = append(targets, y[i])
	}
	xT, err := tensor.FromSlice(flat, tensor.Shape{len(idx), m.nFeatures}, m.backend)
	if err != nil {
		panic(err)
	}
	yT, err := tensor.FromSlice(targets, tensor.Shape{len(idx), 1}, m.backend)
	if err != nil {
		panic(err)
	}
	return xT, yT
}

// subset gathers the indexed rows of X and y.
func subset(X [][]float32, y []float32, idx []int) ([][]float32, []float32) {
	subX := make([][]float32, len(idx))
	subY := make([]float32, len(idx))
	for i, j := range idx {
		subX[i] = X[j]
		subY[i] = y[j]
	}
	return subX, subY
}
