// Command factornet trains and interprets FactorNet models over CSV
// expression matrices.
//
// Usage:
//
//	factornet train -data expr.csv -out model.fnet [-config cfg.yaml] [-epochs 50] [-batch 16] [-folds 5]
//	factornet interpret -model model.fnet -data expr.csv [-method saliency]
//	factornet version
//
// The training CSV holds one gene per row: feature columns first, the
// regression target in the last column. The interpret CSV holds only
// the feature columns.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/AzanPy/rna-seq-factornet/factornet"
	"github.com/AzanPy/rna-seq-factornet/interpret"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("factornet %s\n", version)
	case "train":
		err = runTrain(os.Args[2:])
	case "interpret":
		err = runInterpret(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "factornet: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("FactorNet - expression regression and attribution")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  train      Fit a model on a CSV expression matrix")
	fmt.Println("  interpret  Score feature importance with a trained model")
	fmt.Println("  version    Show version")
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	dataPath := fs.String("data", "", "training CSV (features..., target)")
	outPath := fs.String("out", "model.fnet", "output checkpoint path")
	configPath := fs.String("config", "", "YAML hyperparameter file")
	epochs := fs.Int("epochs", 50, "training epochs")
	batch := fs.Int("batch", 16, "batch size")
	folds := fs.Int("folds", 5, "cross-validation folds (0 disables CV)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataPath == "" {
		return fmt.Errorf("missing -data")
	}

	cfg := factornet.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = factornet.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	X, y, err := readTrainingCSV(*dataPath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d genes with %d features from %s\n", len(X), len(X[0]), *dataPath)

	model, err := factornet.New(len(X[0]), cfg)
	if err != nil {
		return err
	}

	if *folds > 0 {
		fmt.Printf("Running %d-fold cross-validation...\n", *folds)
		result, err := model.TrainWithCV(X, y, *folds, *epochs, *batch)
		if err != nil {
			return err
		}
		for i, r2 := range result.FoldR2 {
			fmt.Printf("  fold %d: R² = %.4f\n", i+1, r2)
		}
		fmt.Printf("Mean R² = %.4f (std %.4f)\n", result.MeanR2, result.StdR2)
	} else {
		loss, err := model.Train(X, y, *epochs, *batch)
		if err != nil {
			return err
		}
		fmt.Printf("Final loss: %.6f\n", loss)
	}

	if err := model.Save(*outPath); err != nil {
		return err
	}
	fmt.Printf("Saved checkpoint to %s\n", *outPath)
	return nil
}

func runInterpret(args []string) error {
	fs := flag.NewFlagSet("interpret", flag.ExitOnError)
	modelPath := fs.String("model", "", "checkpoint path")
	dataPath := fs.String("data", "", "feature CSV")
	methodName := fs.String("method", "saliency", "gradients | saliency | integrated_gradients | contribution")
	steps := fs.Int("steps", interpret.DefaultIGSteps, "integrated gradients steps")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelPath == "" || *dataPath == "" {
		return fmt.Errorf("missing -model or -data")
	}

	method, err := interpret.ParseMethod(*methodName)
	if err != nil {
		return err
	}

	model, err := factornet.Load(*modelPath)
	if err != nil {
		return err
	}
	X, err := readFeatureCSV(*dataPath, model.NumFeatures())
	if err != nil {
		return err
	}

	it := interpret.New(model)
	var result *interpret.Result
	if method == interpret.IntegratedGradients {
		result, err = it.IntegratedGradientsSteps(X, *steps)
	} else {
		result, err = it.Compute(method, X)
	}
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	for i, row := range result.Scores {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.FormatFloat(float64(result.Predictions[i]), 'g', 6, 32))
		for _, v := range row {
			record = append(record, strconv.FormatFloat(float64(v), 'g', 6, 32))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readTrainingCSV(path string) ([][]float32, []float32, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	X := make([][]float32, 0, len(records))
	y := make([]float32, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("%s row %d: need at least one feature and a target", path, i+1)
		}
		row, err := parseFloats(record)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		X = append(X, row[:len(row)-1])
		y = append(y, row[len(row)-1])
	}
	return X, y, nil
}

func readFeatureCSV(path string, nFeatures int) ([][]float32, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	X := make([][]float32, 0, len(records))
	for i, record := range records {
		row, err := parseFloats(record)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%s row %d: %d columns, model expects %d", path, i+1, len(row), nFeatures)
		}
		X = append(X, row)
	}
	return X, nil
}

// readCSV loads all records, skipping a header line when the first
// field is not numeric.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		if _, err := strconv.ParseFloat(records[0][0], 32); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}
	return records, nil
}

func parseFloats(record []string) ([]float32, error) {
	row := make([]float32, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		row[i] = float32(v)
	}
	return row, nil
}
