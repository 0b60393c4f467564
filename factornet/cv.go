package factornet

import (
	"fmt"
	"math"
	"math/rand"
)

// Fold is one train/test split of a k-fold partition.
type Fold struct {
	TrainIdx []int
	TestIdx  []int
}

// CVResult aggregates per-fold R² scores of a cross-validation run.
type CVResult struct {
	FoldR2 []float32
	MeanR2 float32
	StdR2  float32
}

// KFold partitions n samples into k folds. Indices are shuffled with
// the given seed, then position i of the shuffle goes to test fold
// i mod k, so every sample appears in exactly one test fold and the
// same seed reproduces the same split.
func KFold(n, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, &ConfigError{Field: "k_folds", Reason: fmt.Sprintf("must be at least 2, got %d", k)}
	}
	if k > n {
		return nil, &ConfigError{Field: "k_folds", Reason: fmt.Sprintf("%d folds exceed %d samples", k, n)}
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	folds := make([]Fold, k)
	for i, idx := range perm {
		f := i % k
		folds[f].TestIdx = append(folds[f].TestIdx, idx)
	}
	for f := range folds {
		for i, idx := range perm {
			if i%k != f {
				folds[f].TrainIdx = append(folds[f].TrainIdx, idx)
			}
		}
	}
	return folds, nil
}

// RSquared computes the coefficient of determination,
// 1 - SS_res/SS_tot. A constant yTrue has no variance to explain and
// scores 0.0 regardless of the predictions.
func RSquared(yTrue, yPred []float32) float32 {
	var mean float64
	for _, v := range yTrue {
		mean += float64(v)
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i, v := range yTrue {
		diff := float64(v) - float64(yPred[i])
		ssRes += diff * diff
		dev := float64(v) - mean
		ssTot += dev * dev
	}
	if ssTot == 0 {
		return 0.0
	}
	return float32(1.0 - ssRes/ssTot)
}

// newCVResult computes mean and population standard deviation over the
// per-fold scores.
func newCVResult(foldR2 []float32) *CVResult {
	var mean float64
	for _, v := range foldR2 {
		mean += float64(v)
	}
	mean /= float64(len(foldR2))

	var variance float64
	for _, v := range foldR2 {
		dev := float64(v) - mean
		variance += dev * dev
	}
	variance /= float64(len(foldR2))

	return &CVResult{
		FoldR2: foldR2,
		MeanR2: float32(mean),
		StdR2:  float32(math.Sqrt(variance)),
	}
}
